package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/goliatone/go-widgets/pkg/render/template/gotemplate"
	"github.com/goliatone/go-widgets/pkg/schema"
)

const (
	defaultIconFamily = "fontawesome"
	unknownFieldText  = "Unknown Field"
)

// Session renders the fields of one form. It collects the blank row markup
// of every repeater so the admin script can clone new rows client side.
// A Session is not safe for concurrent use.
type Session struct {
	renderer     *Renderer
	namer        Namer
	repeaterHTML map[string]string
}

// Namer returns the naming scheme of the session.
func (s *Session) Namer() Namer {
	return s.namer
}

// RepeaterHTML returns the blank row markup keyed by repeater name.
func (s *Session) RepeaterHTML() map[string]string {
	out := make(map[string]string, len(s.repeaterHTML))
	for key, value := range s.repeaterHTML {
		out[key] = value
	}
	return out
}

// RenderFields renders every field of fields. Each field shows the instance
// value when set, else its default, else false.
func (s *Session) RenderFields(w io.Writer, fields schema.Schema, inst schema.Instance) error {
	for _, field := range fields {
		if field == nil {
			continue
		}
		if err := s.RenderField(w, field.Common().Name, field, valueOrDefault(inst, field), nil); err != nil {
			return err
		}
	}
	return nil
}

// RenderField writes the wrapper, label, control and description of one
// field. name may be a bracket-spliced path for section children.
func (s *Session) RenderField(w io.Writer, name string, field schema.Field, value any, repeater []string) error {
	base := field.Common()
	var buf bytes.Buffer

	buf.WriteString(`<div class="siteorigin-widget-field siteorigin-widget-field-type-`)
	buf.WriteString(gotemplate.HTMLClass(string(field.Kind())))
	buf.WriteString(` siteorigin-widget-field-`)
	buf.WriteString(gotemplate.HTMLClass(name))
	buf.WriteString(`">`)

	switch field.Kind() {
	case schema.TypeRepeater, schema.TypeCheckbox:
	default:
		buf.WriteString(`<label for="`)
		buf.WriteString(html.EscapeString(s.namer.ID(name, repeater)))
		buf.WriteString(`">`)
		buf.WriteString(s.label(base.Label))
		buf.WriteString(`</label>`)
	}

	v := &fieldVisitor{
		session:  s,
		buf:      &buf,
		name:     name,
		value:    value,
		repeater: repeater,
	}
	if err := field.Accept(v); err != nil {
		return fmt.Errorf("render: field %q: %w", name, err)
	}

	if base.Description != "" {
		buf.WriteString(`<div class="siteorigin-widget-field-description">`)
		buf.WriteString(html.EscapeString(base.Description))
		buf.WriteString(`</div>`)
	}
	buf.WriteString(`</div>`)

	_, err := w.Write(buf.Bytes())
	return err
}

func (s *Session) label(raw string) string {
	return s.renderer.labelPolicy.Sanitize(raw)
}

func (s *Session) control(buf *bytes.Buffer, name string, data map[string]any) error {
	rendered, err := s.renderer.templates.RenderTemplate(templatePrefix+name, data)
	if err != nil {
		return err
	}
	buf.WriteString(rendered)
	return nil
}

type fieldVisitor struct {
	session  *Session
	buf      *bytes.Buffer
	name     string
	value    any
	repeater []string
}

func (v *fieldVisitor) inputData(class string) map[string]any {
	return map[string]any{
		"name":  v.session.namer.Name(v.name, v.repeater),
		"id":    v.session.namer.ID(v.name, v.repeater),
		"value": schema.String(v.value),
		"class": class,
	}
}

func (v *fieldVisitor) VisitText(*schema.TextField) error {
	return v.session.control(v.buf, "input", v.inputData("widefat siteorigin-widget-input"))
}

func (v *fieldVisitor) VisitColor(*schema.ColorField) error {
	return v.session.control(v.buf, "input", v.inputData("widefat siteorigin-widget-input siteorigin-widget-input-color"))
}

func (v *fieldVisitor) VisitNumber(*schema.NumberField) error {
	return v.session.control(v.buf, "input", v.inputData("widefat siteorigin-widget-input siteorigin-widget-input-number"))
}

func (v *fieldVisitor) VisitTextarea(f *schema.TextareaField) error {
	data := v.inputData("widefat siteorigin-widget-input")
	data["rows"] = f.RowCount()
	return v.session.control(v.buf, "textarea", data)
}

func (v *fieldVisitor) VisitEditor(f *schema.EditorField) error {
	data := v.inputData("widefat siteorigin-widget-input siteorigin-widget-input-editor")
	data["rows"] = f.RowCount()
	return v.session.control(v.buf, "textarea", data)
}

func (v *fieldVisitor) VisitSelect(f *schema.SelectField) error {
	current := schema.String(v.value)
	options := make([]any, 0, len(f.Options))
	for _, opt := range f.Options {
		options = append(options, map[string]any{
			"value":    opt.Value,
			"label":    opt.Label,
			"selected": opt.Value == current,
		})
	}
	data := v.inputData("siteorigin-widget-input")
	data["options"] = options
	return v.session.control(v.buf, "select", data)
}

func (v *fieldVisitor) VisitCheckbox(f *schema.CheckboxField) error {
	data := v.inputData("siteorigin-widget-input")
	data["checked"] = !schema.Empty(v.value)
	data["label"] = v.session.label(f.Label)
	return v.session.control(v.buf, "checkbox", data)
}

func (v *fieldVisitor) VisitMedia(f *schema.MediaField) error {
	var src, title, hidden string
	switch {
	case schema.Empty(v.value):
	default:
		if list, ok := schema.AsList(v.value); ok {
			if len(list) > 0 {
				src = schema.String(list[0])
			}
			hidden = "-1"
			break
		}
		hidden = schema.String(v.value)
		if lib := v.session.renderer.media; lib != nil {
			if att, ok := lib.Attachment(hidden); ok {
				src, title = att.Thumbnail, att.Title
			}
		}
	}

	choose := f.Choose
	if choose == "" {
		choose = "Choose Media"
	}
	update := f.Update
	if update == "" {
		update = "Set Media"
	}
	data := v.inputData("siteorigin-widget-input")
	data["value"] = hidden
	data["src"] = src
	data["title"] = title
	data["choose"] = choose
	data["update"] = update
	data["library"] = f.LibraryName()
	return v.session.control(v.buf, "media", data)
}

func (v *fieldVisitor) VisitPosts(*schema.PostsField) error {
	query := ""
	if _, isList := schema.AsList(v.value); !isList {
		query = schema.String(v.value)
	}
	count := 0
	if counter := v.session.renderer.posts; counter != nil {
		count = counter.CountPosts(query)
	}
	data := v.inputData("siteorigin-widget-input")
	data["value"] = query
	data["count"] = count
	return v.session.control(v.buf, "posts", data)
}

func (v *fieldVisitor) VisitIcon(*schema.IconField) error {
	value := schema.String(v.value)
	family := defaultIconFamily
	if !schema.Empty(v.value) {
		family, _, _ = strings.Cut(value, "-")
	}
	var families []any
	if provider := v.session.renderer.icons; provider != nil {
		for _, fam := range provider.IconFamilies() {
			families = append(families, map[string]any{
				"id":       fam.ID,
				"name":     fam.Name,
				"count":    len(fam.Icons),
				"selected": fam.ID == family,
			})
		}
	}
	data := v.inputData("siteorigin-widget-icon-icon siteorigin-widget-input")
	data["value"] = value
	data["families"] = families
	return v.session.control(v.buf, "icon", data)
}

func (v *fieldVisitor) VisitRepeater(f *schema.RepeaterField) error {
	repeater := append(append([]string(nil), v.repeater...), v.name)

	var blank bytes.Buffer
	for _, sub := range f.Fields {
		if err := v.session.RenderField(&blank, sub.Common().Name, sub, false, repeater); err != nil {
			return err
		}
	}
	v.session.repeaterHTML[v.name] = blank.String()

	b := v.buf
	b.WriteString(`<div class="siteorigin-widget-field-repeater" data-item-name="`)
	b.WriteString(html.EscapeString(f.ItemName))
	b.WriteString(`" data-repeater-name="`)
	b.WriteString(html.EscapeString(v.name))
	b.WriteString(`"><div class="siteorigin-widget-field-repeater-top"><div class="siteorigin-widget-field-repeater-expend"></div><h3>`)
	b.WriteString(v.session.label(f.Label))
	b.WriteString(`</h3></div><div class="siteorigin-widget-field-repeater-items">`)

	rows, _ := schema.AsList(v.value)
	for _, raw := range rows {
		row, _ := schema.AsMap(raw)
		b.WriteString(`<div class="siteorigin-widget-field-repeater-item"><div class="siteorigin-widget-field-repeater-item-top"><div class="siteorigin-widget-field-expand"></div><div class="siteorigin-widget-field-remove"></div><h4>`)
		b.WriteString(html.EscapeString(f.ItemName))
		b.WriteString(`</h4></div><div class="siteorigin-widget-field-repeater-item-form">`)
		for _, sub := range f.Fields {
			name := sub.Common().Name
			value, ok := row[name]
			if !ok || value == nil {
				value = false
			}
			if err := v.session.RenderField(b, name, sub, value, repeater); err != nil {
				return err
			}
		}
		b.WriteString(`</div></div>`)
	}

	b.WriteString(`</div><div class="siteorigin-widget-field-repeater-add">Add</div></div>`)
	return nil
}

func (v *fieldVisitor) VisitSection(f *schema.SectionField) error {
	return v.section(f.Fields, f.Hide)
}

func (v *fieldVisitor) VisitWidget(f *schema.WidgetField) error {
	forms := v.session.renderer.subWidgets
	if forms == nil {
		v.session.renderer.logger.Warnw("widget field without sub-widget resolver", "field", v.name, "class", f.Class)
		v.buf.WriteString(unknownFieldText)
		return nil
	}
	fields, ok := forms.FormSchema(f.Class)
	if !ok {
		v.session.renderer.logger.Warnw("unresolved sub-widget class", "field", v.name, "class", f.Class)
		v.buf.WriteString(unknownFieldText)
		return nil
	}
	return v.section(fields, f.Hide)
}

func (v *fieldVisitor) VisitUnknown(f *schema.UnknownField) error {
	v.session.renderer.logger.Debugw("unknown field type", "field", v.name, "type", f.TypeName)
	v.buf.WriteString(unknownFieldText)
	return nil
}

func (v *fieldVisitor) section(fields schema.Schema, hide bool) error {
	v.buf.WriteString(`<div class="siteorigin-widget-section`)
	if hide {
		v.buf.WriteString(` siteorigin-widget-section-hide`)
	}
	v.buf.WriteString(`">`)
	group, _ := schema.AsMap(v.value)
	for _, sub := range fields {
		if sub == nil {
			continue
		}
		name := sub.Common().Name
		if err := v.session.RenderField(v.buf, nested(v.name, name), sub, valueOrDefault(group, sub), v.repeater); err != nil {
			return err
		}
	}
	v.buf.WriteString(`</div>`)
	return nil
}

func valueOrDefault(values map[string]any, field schema.Field) any {
	base := field.Common()
	if value, ok := values[base.Name]; ok && value != nil {
		return value
	}
	if base.HasDefault() {
		return base.Default
	}
	return false
}
