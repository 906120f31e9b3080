package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-widgets/pkg/schema"
)

const heroSchema = `
title:
  type: text
  label: Title
  default: Welcome
style:
  type: select
  label: Style
  description: Pick a look.
  options:
    light: Light
    dark: Dark
sticky:
  type: checkbox
  label: Stick to <em>top</em>
frames:
  type: repeater
  label: Frames
  item_name: Frame
  fields:
    url:
      type: text
      label: URL
controls:
  type: section
  label: Controls
  hide: true
  fields:
    nav:
      type: color
      label: Nav
      default: "#ffffff"
gallery:
  type: gallery
  label: Gallery
`

func newTestRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func decodeSchema(t *testing.T, doc string) schema.Schema {
	t.Helper()
	s, err := schema.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	return s
}

func renderOne(t *testing.T, r *Renderer, fields schema.Schema, name string, value any) string {
	t.Helper()
	field, ok := fields.Lookup(name)
	if !ok {
		t.Fatalf("field %q missing", name)
	}
	var buf bytes.Buffer
	session := r.NewSession(Namer{IDBase: "hero", Number: "2"})
	if err := session.RenderField(&buf, name, field, value, nil); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return buf.String()
}

func TestNamer(t *testing.T) {
	n := Namer{IDBase: "slider", Number: "3"}
	cases := []struct {
		field    string
		repeater []string
		name     string
		id       string
	}{
		{field: "speed", name: "widget-slider[3][speed]", id: "widget-slider-3-speed"},
		{field: "url", repeater: []string{"frames"}, name: "widget-slider[3][frames][#frames#][url]", id: "widget-slider-3-frames-url"},
		{field: "controls][nav", name: "widget-slider[3][controls][nav]", id: "widget-slider-3-controls][nav"},
	}
	for _, tc := range cases {
		if got := n.Name(tc.field, tc.repeater); got != tc.name {
			t.Fatalf("Name(%q): expected %q, got %q", tc.field, tc.name, got)
		}
		if got := n.ID(tc.field, tc.repeater); got != tc.id {
			t.Fatalf("ID(%q): expected %q, got %q", tc.field, tc.id, got)
		}
	}
	if got := n.Prefix(); got != "widget-slider[3]" {
		t.Fatalf("prefix: got %q", got)
	}
}

func TestRenderField_Text(t *testing.T) {
	r := newTestRenderer(t)
	got := renderOne(t, r, decodeSchema(t, heroSchema), "title", `Say "hi"`)
	want := `<div class="siteorigin-widget-field siteorigin-widget-field-type-text siteorigin-widget-field-title">` +
		`<label for="widget-hero-2-title">Title</label>` +
		`<input type="text" name="widget-hero[2][title]" id="widget-hero-2-title" value="Say &quot;hi&quot;" class="widefat siteorigin-widget-input" />` +
		`</div>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("text markup mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderField_SelectMarksCurrentOption(t *testing.T) {
	r := newTestRenderer(t)
	got := renderOne(t, r, decodeSchema(t, heroSchema), "style", "dark")
	want := `<div class="siteorigin-widget-field siteorigin-widget-field-type-select siteorigin-widget-field-style">` +
		`<label for="widget-hero-2-style">Style</label>` +
		`<select name="widget-hero[2][style]" id="widget-hero-2-style" class="siteorigin-widget-input">` +
		`<option value="light">Light</option>` +
		`<option value="dark" selected="selected">Dark</option>` +
		`</select>` +
		`<div class="siteorigin-widget-field-description">Pick a look.</div>` +
		`</div>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("select markup mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderField_CheckboxInlinesLabel(t *testing.T) {
	r := newTestRenderer(t)
	fields := decodeSchema(t, heroSchema)

	checked := renderOne(t, r, fields, "sticky", true)
	want := `<div class="siteorigin-widget-field siteorigin-widget-field-type-checkbox siteorigin-widget-field-sticky">` +
		`<label for="widget-hero-2-sticky"><input type="checkbox" name="widget-hero[2][sticky]" id="widget-hero-2-sticky" class="siteorigin-widget-input" checked="checked" /> Stick to <em>top</em></label>` +
		`</div>`
	if diff := cmp.Diff(want, checked); diff != "" {
		t.Fatalf("checkbox markup mismatch (-want +got):\n%s", diff)
	}

	unchecked := renderOne(t, r, fields, "sticky", false)
	if strings.Contains(unchecked, "checked=") {
		t.Fatalf("expected unchecked box, got %s", unchecked)
	}
}

func TestRenderField_LabelMarkupIsSanitized(t *testing.T) {
	r := newTestRenderer(t)
	fields := decodeSchema(t, "title:\n  type: text\n  label: \"Title<script>alert(1)</script>\"\n")
	got := renderOne(t, r, fields, "title", false)
	if strings.Contains(got, "<script>") {
		t.Fatalf("script survived label sanitizing: %s", got)
	}
	if !strings.Contains(got, `<label for="widget-hero-2-title">Title</label>`) {
		t.Fatalf("label missing: %s", got)
	}
}

func TestRenderField_RepeaterRowsAndTemplate(t *testing.T) {
	r := newTestRenderer(t)
	fields := decodeSchema(t, heroSchema)
	field, _ := fields.Lookup("frames")

	session := r.NewSession(Namer{IDBase: "hero", Number: "2"})
	var buf bytes.Buffer
	rows := []any{
		map[string]any{"url": "https://example.com/a"},
		map[string]any{},
	}
	if err := session.RenderField(&buf, "frames", field, rows, nil); err != nil {
		t.Fatalf("render repeater: %v", err)
	}
	got := buf.String()

	if !strings.HasPrefix(got, `<div class="siteorigin-widget-field siteorigin-widget-field-type-repeater siteorigin-widget-field-frames"><div class="siteorigin-widget-field-repeater" data-item-name="Frame" data-repeater-name="frames">`) {
		t.Fatalf("repeater wrapper mismatch: %s", got)
	}
	if strings.Contains(got, `<label for="widget-hero-2-frames">`) {
		t.Fatalf("repeater must not render a label: %s", got)
	}
	if n := strings.Count(got, `<div class="siteorigin-widget-field-repeater-item">`); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	if !strings.Contains(got, `name="widget-hero[2][frames][#frames#][url]" id="widget-hero-2-frames-url" value="https://example.com/a"`) {
		t.Fatalf("row value missing: %s", got)
	}
	if !strings.Contains(got, `<h3>Frames</h3>`) || !strings.HasSuffix(got, `<div class="siteorigin-widget-field-repeater-add">Add</div></div></div>`) {
		t.Fatalf("repeater chrome mismatch: %s", got)
	}

	blank := session.RepeaterHTML()["frames"]
	want := `<div class="siteorigin-widget-field siteorigin-widget-field-type-text siteorigin-widget-field-url">` +
		`<label for="widget-hero-2-frames-url">URL</label>` +
		`<input type="text" name="widget-hero[2][frames][#frames#][url]" id="widget-hero-2-frames-url" value="" class="widefat siteorigin-widget-input" />` +
		`</div>`
	if diff := cmp.Diff(want, blank); diff != "" {
		t.Fatalf("repeater template mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderField_SectionSplicesNamesAndDefaults(t *testing.T) {
	r := newTestRenderer(t)
	got := renderOne(t, r, decodeSchema(t, heroSchema), "controls", false)

	if !strings.Contains(got, `<div class="siteorigin-widget-section siteorigin-widget-section-hide">`) {
		t.Fatalf("hidden section wrapper missing: %s", got)
	}
	want := `<div class="siteorigin-widget-field siteorigin-widget-field-type-color siteorigin-widget-field-controlsnav">` +
		`<label for="widget-hero-2-controls][nav">Nav</label>` +
		`<input type="text" name="widget-hero[2][controls][nav]" id="widget-hero-2-controls][nav" value="#ffffff" class="widefat siteorigin-widget-input siteorigin-widget-input-color" />` +
		`</div>`
	if !strings.Contains(got, want) {
		t.Fatalf("section child mismatch:\nwant substring %s\ngot %s", want, got)
	}

	stored := renderOne(t, r, decodeSchema(t, heroSchema), "controls", map[string]any{"nav": "#000000"})
	if !strings.Contains(stored, `value="#000000"`) {
		t.Fatalf("stored section value ignored: %s", stored)
	}
}

type stubForms map[string]schema.Schema

func (s stubForms) FormSchema(class string) (schema.Schema, bool) {
	fields, ok := s[class]
	return fields, ok
}

func TestRenderField_WidgetEmbedsSubForm(t *testing.T) {
	button := decodeSchema(t, "text:\n  type: text\n  label: Text\n  default: Go\n")
	r := newTestRenderer(t, WithSubWidgetForms(stubForms{"Button_Widget": button}))
	fields := decodeSchema(t, "cta:\n  type: widget\n  label: Button\n  class: Button_Widget\nmissing:\n  type: widget\n  class: Nope_Widget\n")

	got := renderOne(t, r, fields, "cta", false)
	if !strings.Contains(got, `<div class="siteorigin-widget-section">`) {
		t.Fatalf("widget section missing: %s", got)
	}
	if !strings.Contains(got, `name="widget-hero[2][cta][text]" id="widget-hero-2-cta][text" value="Go"`) {
		t.Fatalf("sub-widget default missing: %s", got)
	}

	unresolved := renderOne(t, r, fields, "missing", false)
	if !strings.Contains(unresolved, unknownFieldText) {
		t.Fatalf("unresolved class should render placeholder: %s", unresolved)
	}
}

func TestRenderField_UnknownType(t *testing.T) {
	r := newTestRenderer(t)
	got := renderOne(t, r, decodeSchema(t, heroSchema), "gallery", false)
	want := `<div class="siteorigin-widget-field siteorigin-widget-field-type-gallery siteorigin-widget-field-gallery">` +
		`<label for="widget-hero-2-gallery">Gallery</label>Unknown Field</div>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unknown markup mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderField_Media(t *testing.T) {
	media := StaticMedia{"7": {Title: "Beach", Thumbnail: "https://cdn.example.com/beach.jpg"}}
	r := newTestRenderer(t, WithMediaLibrary(media))
	fields := decodeSchema(t, "image:\n  type: media\n  label: Image\n  choose: Pick image\n")

	stored := renderOne(t, r, fields, "image", "7")
	for _, fragment := range []string{
		`<img src="https://cdn.example.com/beach.jpg" class="thumbnail" />`,
		`<div class="title">Beach</div>`,
		`data-choose="Pick image" data-update="Set Media" data-library="image">Pick image</a>`,
		`<input type="hidden" value="7" name="widget-hero[2][image]" class="siteorigin-widget-input" />`,
	} {
		if !strings.Contains(stored, fragment) {
			t.Fatalf("expected %s in %s", fragment, stored)
		}
	}

	external := renderOne(t, r, fields, "image", []any{"https://example.com/x.png", 10, 20})
	if !strings.Contains(external, `<img src="https://example.com/x.png"`) || !strings.Contains(external, `value="-1"`) {
		t.Fatalf("external image mismatch: %s", external)
	}

	empty := renderOne(t, r, fields, "image", false)
	if !strings.Contains(empty, `style="display:none"`) {
		t.Fatalf("empty media should hide thumbnail: %s", empty)
	}
}

type countingPosts struct{ queries []string }

func (c *countingPosts) CountPosts(query string) int {
	c.queries = append(c.queries, query)
	return 12
}

func TestRenderField_PostsAndIcon(t *testing.T) {
	posts := &countingPosts{}
	icons := StaticIcons{
		{ID: "fontawesome", Name: "Font Awesome", Icons: []string{"star", "heart"}},
		{ID: "genericons", Name: "Genericons", Icons: []string{"home"}},
	}
	r := newTestRenderer(t, WithPostCounter(posts), WithIconFamilies(icons))
	fields := decodeSchema(t, "query:\n  type: posts\n  label: Posts\nicon:\n  type: icon\n  label: Icon\n")

	got := renderOne(t, r, fields, "query", "post_type=post")
	if !strings.Contains(got, `<span class="sow-current-count">12</span>`) {
		t.Fatalf("post count missing: %s", got)
	}
	if diff := cmp.Diff([]string{"post_type=post"}, posts.queries); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}

	icon := renderOne(t, r, fields, "icon", "genericons-home")
	if !strings.Contains(icon, `<option value="genericons" selected="selected">Genericons (1)</option>`) {
		t.Fatalf("icon family not selected: %s", icon)
	}
	if !strings.Contains(icon, `<option value="fontawesome">Font Awesome (2)</option>`) {
		t.Fatalf("default family missing: %s", icon)
	}

	blank := renderOne(t, r, fields, "icon", false)
	if !strings.Contains(blank, `<option value="fontawesome" selected="selected">`) {
		t.Fatalf("empty icon should select fontawesome: %s", blank)
	}
}

func TestRenderFields_UsesInstanceThenDefault(t *testing.T) {
	r := newTestRenderer(t)
	fields := decodeSchema(t, "title:\n  type: text\n  default: Welcome\nsubtitle:\n  type: text\nsize:\n  type: number\n  default: 3\n")
	session := r.NewSession(Namer{IDBase: "hero", Number: "2"})

	var buf bytes.Buffer
	if err := session.RenderFields(&buf, fields, schema.Instance{"size": 9, "title": nil}); err != nil {
		t.Fatalf("render fields: %v", err)
	}
	got := buf.String()
	for _, fragment := range []string{
		`name="widget-hero[2][title]" id="widget-hero-2-title" value="Welcome"`,
		`name="widget-hero[2][subtitle]" id="widget-hero-2-subtitle" value=""`,
		`name="widget-hero[2][size]" id="widget-hero-2-size" value="9"`,
	} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("expected %s in %s", fragment, got)
		}
	}
	if strings.Index(got, "[title]") > strings.Index(got, "[size]") {
		t.Fatalf("fields rendered out of order: %s", got)
	}
}
