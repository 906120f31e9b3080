package schema

import "strings"

// Type identifies a field variant as written in schema documents.
type Type string

const (
	TypeText     Type = "text"
	TypeTextarea Type = "textarea"
	TypeEditor   Type = "editor"
	TypeColor    Type = "color"
	TypeNumber   Type = "number"
	TypeSelect   Type = "select"
	TypeCheckbox Type = "checkbox"
	TypeMedia    Type = "media"
	TypePosts    Type = "posts"
	TypeIcon     Type = "icon"
	TypeRepeater Type = "repeater"
	TypeSection  Type = "section"
	TypeWidget   Type = "widget"
)

// Sanitize directives understood by the sanitizer in addition to the
// type-based cleaning.
const (
	SanitizeURL  = "url"
	SanitizeHTML = "html"
)

const defaultRows = 4

// Field is a tagged union over the supported field descriptors. Consumers
// dispatch on the concrete variant through Accept rather than switching on
// Kind.
type Field interface {
	Kind() Type
	Common() *Base
	Accept(v Visitor) error
}

// Base carries the attributes every descriptor shares.
type Base struct {
	Name        string
	Label       string
	Description string
	Default     any
	Sanitize    string
}

// Common returns the shared attributes.
func (b *Base) Common() *Base { return b }

// HasDefault reports whether the schema declared a non-nil default.
func (b *Base) HasDefault() bool { return b.Default != nil }

type TextField struct{ Base }

type TextareaField struct {
	Base
	Rows int
}

type EditorField struct {
	Base
	Rows int
}

type ColorField struct{ Base }

type NumberField struct{ Base }

// Option is a single select choice. Options keep declaration order.
type Option struct {
	Value string
	Label string
}

type SelectField struct {
	Base
	Options []Option
}

// HasOption reports whether value matches one of the declared option keys.
func (f *SelectField) HasOption(value string) bool {
	for _, opt := range f.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

type CheckboxField struct{ Base }

type MediaField struct {
	Base
	Library string
	Choose  string
	Update  string
}

type PostsField struct{ Base }

type IconField struct{ Base }

// RepeaterField is a user-extensible list of rows sharing Fields.
type RepeaterField struct {
	Base
	ItemName string
	Fields   Schema
}

// SectionField groups nested fields under a single key.
type SectionField struct {
	Base
	Hide   bool
	Fields Schema
}

// WidgetField embeds the form of another registered widget.
type WidgetField struct {
	Base
	Class string
	Hide  bool
}

// UnknownField preserves descriptors with a type the framework does not
// recognise so renderers can emit a placeholder instead of failing.
type UnknownField struct {
	Base
	TypeName string
}

func (*TextField) Kind() Type     { return TypeText }
func (*TextareaField) Kind() Type { return TypeTextarea }
func (*EditorField) Kind() Type   { return TypeEditor }
func (*ColorField) Kind() Type    { return TypeColor }
func (*NumberField) Kind() Type   { return TypeNumber }
func (*SelectField) Kind() Type   { return TypeSelect }
func (*CheckboxField) Kind() Type { return TypeCheckbox }
func (*MediaField) Kind() Type    { return TypeMedia }
func (*PostsField) Kind() Type    { return TypePosts }
func (*IconField) Kind() Type     { return TypeIcon }
func (*RepeaterField) Kind() Type { return TypeRepeater }
func (*SectionField) Kind() Type  { return TypeSection }
func (*WidgetField) Kind() Type   { return TypeWidget }
func (f *UnknownField) Kind() Type {
	return Type(f.TypeName)
}

// RowCount returns the configured textarea height, falling back to 4.
func (f *TextareaField) RowCount() int {
	if f.Rows > 0 {
		return f.Rows
	}
	return defaultRows
}

// RowCount returns the configured editor height, falling back to 4.
func (f *EditorField) RowCount() int {
	if f.Rows > 0 {
		return f.Rows
	}
	return defaultRows
}

// LibraryName returns the media library filter, "image" unless configured.
func (f *MediaField) LibraryName() string {
	if lib := strings.TrimSpace(f.Library); lib != "" {
		return lib
	}
	return "image"
}

// Schema is an ordered list of field descriptors.
type Schema []Field

// Lookup returns the field registered under name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, field := range s {
		if field != nil && field.Common().Name == name {
			return field, true
		}
	}
	return nil, false
}

// Names returns the field identifiers in declaration order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for _, field := range s {
		if field == nil {
			continue
		}
		names = append(names, field.Common().Name)
	}
	return names
}

// HasType reports whether any top-level field is of the given type.
func (s Schema) HasType(t Type) bool {
	for _, field := range s {
		if field != nil && field.Kind() == t {
			return true
		}
	}
	return false
}
