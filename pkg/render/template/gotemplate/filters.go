package gotemplate

import (
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-widgets/pkg/sanitize"
)

var defaultFilters sync.Once

// registerDefaultFilters installs the filters widget templates use for
// class names and links. pongo2 keeps filters in a global map, so this runs
// once per process.
func registerDefaultFilters() {
	defaultFilters.Do(installDefaultFilters)
}

func installDefaultFilters() {
	for name, fn := range map[string]pongo2.FilterFunction{
		"trim":       filterTrim,
		"html_class": filterHTMLClass,
		"esc_url":    filterEscURL,
	} {
		if !pongo2.FilterExists(name) {
			_ = pongo2.RegisterFilter(name, fn)
		}
	}
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

func filterHTMLClass(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(HTMLClass(in.String())), nil
}

func filterEscURL(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(sanitize.EscapeURL(in.String())), nil
}

// HTMLClass strips everything but letters, digits, '_' and '-' so the value
// can be used as a class name. Percent-encoded octets are dropped first.
func HTMLClass(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		switch {
		case c == '%' && idx+2 < len(s) && isHex(s[idx+1]) && isHex(s[idx+2]):
			idx += 2
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
