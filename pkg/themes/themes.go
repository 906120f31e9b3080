// Package themes resolves named widget styles and asset locations from
// go-theme manifests. A style's tokens seed its LESS variables; variants
// override them.
package themes

import (
	"errors"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
)

var (
	// ErrUnknownTheme is returned when no manifest carries the requested name.
	ErrUnknownTheme = errors.New("themes: unknown theme")
	// ErrUnknownVariant is returned when the manifest lacks the variant.
	ErrUnknownVariant = errors.New("themes: unknown variant")
)

// Set is a fixed collection of manifests. It implements theme.ThemeSelector.
type Set struct {
	manifests map[string]*theme.Manifest
	provider  theme.ThemeProvider
}

var _ theme.ThemeSelector = (*Set)(nil)

// New registers manifests with a go-theme registry and indexes them by name.
func New(manifests ...*theme.Manifest) (*Set, error) {
	registry := theme.NewRegistry()
	set := &Set{manifests: make(map[string]*theme.Manifest, len(manifests))}
	for _, m := range manifests {
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return nil, errors.New("themes: manifest name is required")
		}
		if _, dup := set.manifests[name]; dup {
			return nil, fmt.Errorf("themes: duplicate theme %q", name)
		}
		if err := registry.Register(m); err != nil {
			return nil, fmt.Errorf("themes: register %q: %w", name, err)
		}
		set.manifests[name] = m
	}
	set.provider = registry
	return set, nil
}

// Provider exposes the underlying go-theme registry.
func (s *Set) Provider() theme.ThemeProvider { return s.provider }

// Select returns the manifest named name. An empty variant selects the base
// theme.
func (s *Set) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	m, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	if variant != "" {
		if _, ok := m.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %q has no %q", ErrUnknownVariant, name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: m}, nil
}

// Config flattens a selection: variant tokens, templates and asset files
// override the base manifest, and every token is mirrored as a "--token"
// CSS variable.
func Config(sel *theme.Selection) *theme.RendererConfig {
	if sel == nil || sel.Manifest == nil {
		return nil
	}
	m := sel.Manifest
	tokens := merge(m.Tokens, nil)
	partials := merge(m.Templates, nil)
	files := merge(m.Assets.Files, nil)
	prefix := m.Assets.Prefix
	if v, ok := m.Variants[sel.Variant]; ok && sel.Variant != "" {
		tokens = merge(tokens, v.Tokens)
		partials = merge(partials, v.Templates)
		files = merge(files, v.Assets.Files)
		if v.Assets.Prefix != "" {
			prefix = v.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		if !strings.HasPrefix(key, "--") {
			key = "--" + key
		}
		cssVars[key] = value
	}
	return &theme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: AssetResolver(prefix, files),
	}
}

// AssetResolver maps an asset key through files (falling back to the key
// itself) and joins it to prefix. Absolute URLs are returned unchanged.
func AssetResolver(prefix string, files map[string]string) func(string) string {
	prefix = strings.TrimRight(prefix, "/")
	return func(key string) string {
		if key == "" {
			return ""
		}
		path := key
		if mapped, ok := files[key]; ok && mapped != "" {
			path = mapped
		}
		if strings.Contains(path, "://") || strings.HasPrefix(path, "//") {
			return path
		}
		return prefix + "/" + strings.TrimLeft(path, "/")
	}
}

func merge(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range override {
		out[key] = value
	}
	return out
}
