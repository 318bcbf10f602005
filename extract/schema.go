package extract

import (
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// Schema describes the JSON produced for an Info.
func Schema() *jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.Namer = func(t reflect.Type) string {
		name := t.Name()
		switch strings.ToLower(name) {
		case "stream", "info":
			return filepath.Base(t.PkgPath()) + "." + name
		}

		return name
	}

	return reflector.Reflect(&Info{})
}
