// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/style"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PlayerBinary, "mpv", "Path or name of the mpv executable")
	register(key.PlayerVolume, 100, "Initial volume of the playback engine. From 0 to 100")
	register(key.PlayerHwdec, "auto-safe", "Hardware decoding mode passed to mpv (--hwdec)")
	register(key.PlayerSeekStep, 10, "Seconds to jump on seek forward / backward")
	register(key.PlayerVolumeStep, 5, "Volume change per volume up / down key press")
	register(key.PlayerAskResume, true, "Offer to resume from the saved position when loading a file")
	register(key.PlayerResumeThreshold, 10, "Saved positions at or below this many seconds are not offered for resume")
	register(key.PlayerNearEndThreshold, 5, "Positions within this many seconds of the end reset the saved position to 0")
	register(key.ExtractBinary, "yt-dlp", "Path or name of the yt-dlp executable used for network URLs")
	register(key.ExtractTimeout, 60, "Seconds before a stream extraction is abandoned")
	register(key.ThumbnailsEnabled, true, "Fetch duration, resolution and thumbnails for library rows")
	register(key.ThumbnailsDebounce, 100, "Milliseconds to wait for more rows before dispatching thumbnail jobs")
	register(key.ThumbnailsDownloadTimeout, 15, "Seconds allowed for a thumbnail download")
	register(key.ThumbnailsGrace, 1000, "Milliseconds granted to running thumbnail jobs when the library is cleared")
	register(key.ThumbnailsTTL, 30, "Days a cached thumbnail is kept after it was written. 0 keeps them forever")
	register(key.NetworkTLSFingerprint, false, "Download thumbnails with a browser TLS fingerprint")
	register(key.UITheme, "Nord Dark", "Color theme of the terminal interface.\nType \"vidra config info -k ui.theme\" to show the current one")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, nerd (nerd-font required), plain")
	register(key.UIShowURLs, true, "Show file paths and URLs under library rows")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Look for a newer release when showing help or version")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(style.Purple),
	"blue":     style.Fg(style.Blue),
	"cyan":     style.Fg(style.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(style.Green)(b)
			}
			return style.Fg(style.Red)(b)
		case string:
			return style.Fg(style.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
