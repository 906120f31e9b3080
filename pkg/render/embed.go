package render

import (
	"embed"
	"io/fs"
)

//go:embed templates/fields/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded field control templates.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
