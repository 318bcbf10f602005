// Package version tracks the application release and looks up newer ones.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// parse reads up to three dot separated numbers. Missing parts are zero and pre-release suffixes are ignored.
func parse(s string) ([3]int, error) {
	var parts [3]int

	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}

	fields := strings.Split(s, ".")
	if len(fields) > len(parts) {
		return parts, fmt.Errorf("version %q: too many components", s)
	}

	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return parts, fmt.Errorf("version %q: bad component %q", s, field)
		}
		parts[i] = n
	}

	return parts, nil
}

// Compare returns 1 if a is newer than b, -1 if it is older and 0 if they are the same release.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}

	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for i := range av {
		switch {
		case av[i] > bv[i]:
			return 1, nil
		case av[i] < bv[i]:
			return -1, nil
		}
	}

	return 0, nil
}
