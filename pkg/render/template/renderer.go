package template

import "io"

// TemplateRenderer is the engine contract the field renderer and widget
// templates rely on.
type TemplateRenderer interface {
	// RenderTemplate renders the named template, also copying the result to
	// every writer in out.
	RenderTemplate(name string, data map[string]any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data map[string]any) error
}
