package render

import "github.com/goliatone/go-widgets/pkg/schema"

// SubWidgetForms resolves the form schema of an embedded widget class.
type SubWidgetForms interface {
	FormSchema(class string) (schema.Schema, bool)
}

// Attachment is the thumbnail data shown for a stored media reference.
type Attachment struct {
	Title     string
	Thumbnail string
	Width     int
	Height    int
}

// MediaLibrary looks up media attachments by identifier.
type MediaLibrary interface {
	Attachment(id string) (Attachment, bool)
}

// PostCounter reports how many posts a stored posts query matches.
type PostCounter interface {
	CountPosts(query string) int
}

// IconFamily is one selectable icon set.
type IconFamily struct {
	ID    string
	Name  string
	Icons []string
}

// IconFamilies lists the icon sets offered by icon fields, in display order.
type IconFamilies interface {
	IconFamilies() []IconFamily
}

// StaticIcons is a fixed IconFamilies list.
type StaticIcons []IconFamily

func (s StaticIcons) IconFamilies() []IconFamily { return s }

// StaticMedia is an in-memory MediaLibrary keyed by attachment id.
type StaticMedia map[string]Attachment

func (m StaticMedia) Attachment(id string) (Attachment, bool) {
	a, ok := m[id]
	return a, ok
}
