package render

import "strings"

// Namer builds the form names and element ids of one widget instance, in
// the `widget-{idBase}[{number}][field]` layout hosts post back.
type Namer struct {
	IDBase string
	Number string
}

// Name returns the input name of field. Each enclosing repeater r adds a
// `[r][#r#]` segment whose placeholder the admin script replaces with the
// row index.
func (n Namer) Name(field string, repeater []string) string {
	var b strings.Builder
	b.WriteString("widget-")
	b.WriteString(n.IDBase)
	b.WriteString("[")
	b.WriteString(n.Number)
	b.WriteString("]")
	for _, r := range repeater {
		b.WriteString("[")
		b.WriteString(r)
		b.WriteString("][#")
		b.WriteString(r)
		b.WriteString("#]")
	}
	b.WriteString("[")
	b.WriteString(field)
	b.WriteString("]")
	return b.String()
}

// ID returns the element id of field; repeater segments are joined with '-'.
func (n Namer) ID(field string, repeater []string) string {
	parts := append(append([]string(nil), repeater...), field)
	return "widget-" + n.IDBase + "-" + n.Number + "-" + strings.Join(parts, "-")
}

// Prefix is the name prefix shared by every input of the instance, as
// expected by schema.DecodeForm.
func (n Namer) Prefix() string {
	return "widget-" + n.IDBase + "[" + n.Number + "]"
}

// nested joins a container field and a child the way sub-field names are
// spliced into the bracket path.
func nested(parent, child string) string {
	return parent + "][" + child
}
