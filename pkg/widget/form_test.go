package widget

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/schema"
)

const listFields = `
title:
  type: text
  label: Title
frames:
  type: repeater
  label: Frames
  item_name: Frame
  fields:
    caption:
      type: text
      label: Caption
query:
  type: posts
  label: Posts
`

type listDefinition struct{ adminRuns int }

func (d *listDefinition) TemplateName(schema.Instance) string { return "list" }
func (d *listDefinition) StyleName(schema.Instance) string    { return "" }
func (d *listDefinition) EnqueueAdmin(*request.Scope)         { d.adminRuns++ }

func (d *listDefinition) ModifyInstance(inst schema.Instance) schema.Instance {
	if _, ok := inst["title"]; !ok {
		inst["title"] = "Untitled"
	}
	return inst
}

func newListWidget(t *testing.T, def *listDefinition) *Widget {
	t.Helper()
	env, err := NewEnvironment(WithAssetsURL("https://example.com/assets/"), WithVersion("2.0"))
	if err != nil {
		t.Fatalf("new environment: %v", err)
	}
	fields, err := schema.Decode([]byte(listFields))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	w, err := New(env, "post-list", "Post list", def, fields,
		WithClass("SiteOrigin_Widget_PostList"),
		WithHelp("https://example.com/help"),
	)
	if err != nil {
		t.Fatalf("new widget: %v", err)
	}
	return w
}

func TestForm_MarkupAndRepeaterPayload(t *testing.T) {
	def := &listDefinition{}
	w := newListWidget(t, def)
	scope := request.NewScope()

	var buf bytes.Buffer
	if err := w.Form(context.Background(), scope, &buf, "4", nil); err != nil {
		t.Fatalf("form: %v", err)
	}
	got := buf.String()

	for _, fragment := range []string{
		`<div class="siteorigin-widget-form siteorigin-widget-form-main siteorigin-widget-form-main-siteorigin-widget-postlist" id="siteorigin_widget_form_`,
		`data-class="SiteOrigin_Widget_PostList">`,
		`name="widget-post-list[4][title]" id="widget-post-list-4-title" value="Untitled"`,
		`data-repeater-name="frames"`,
		`<a href="https://example.com/help" class="siteorigin-widget-help-link siteorigin-panels-help-link" target="_blank">Help</a>`,
		`window.sow_repeater_html["SiteOrigin_Widget_PostList"] = {"frames":"\u003cdiv class=\"siteorigin-widget-field siteorigin-widget-field-type-text siteorigin-widget-field-caption\"\u003e`,
		`widget-post-list[4][frames][#frames#][caption]`,
		`.sowSetupForm();`,
	} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("expected %s in form:\n%s", fragment, got)
		}
	}
}

func TestForm_AdminAssetsOncePerRequest(t *testing.T) {
	def := &listDefinition{}
	w := newListWidget(t, def)
	scope := request.NewScope()

	var first, second bytes.Buffer
	if err := w.Form(context.Background(), scope, &first, "1", nil); err != nil {
		t.Fatalf("form: %v", err)
	}
	if err := w.Form(context.Background(), scope, &second, "2", nil); err != nil {
		t.Fatalf("form: %v", err)
	}

	if def.adminRuns != 1 {
		t.Fatalf("expected widget admin hook once, got %d", def.adminRuns)
	}
	q := scope.Assets()
	if !q.ScriptQueued(AdminHandle) || !q.ScriptQueued(PostsSelectorHandle) {
		t.Fatalf("admin scripts missing: %+v", q.Scripts())
	}
	if n := len(q.Scripts()); n != 4 {
		t.Fatalf("expected 4 scripts, got %d", n)
	}

	var head bytes.Buffer
	if err := q.WriteHead(&head); err != nil {
		t.Fatalf("write head: %v", err)
	}
	if !strings.Contains(head.String(), `href="https://example.com/assets/base/css/admin.css?ver=2.0"`) {
		t.Fatalf("admin stylesheet missing from head:\n%s", head.String())
	}
	var footer bytes.Buffer
	if err := q.WriteFooter(&footer); err != nil {
		t.Fatalf("write footer: %v", err)
	}
	for _, fragment := range []string{
		`var soWidgets = {"sure":"Are you sure?"};`,
		`var sowPostsSelectorVars = {"modalTitle":"Select Posts"};`,
		`src="https://example.com/assets/base/js/posts-selector.min.js?ver=2.0"`,
	} {
		if !strings.Contains(footer.String(), fragment) {
			t.Fatalf("expected %s in footer:\n%s", fragment, footer.String())
		}
	}

	id := func(s string) string {
		start := strings.Index(s, `id="siteorigin_widget_form_`)
		return s[start : start+60]
	}
	if id(first.String()) == id(second.String()) {
		t.Fatalf("form ids should be unique")
	}
}

func TestForm_NoPostsSelectorWithoutPostsField(t *testing.T) {
	f := newFixture(t, false)
	scope := request.NewScope()
	var buf bytes.Buffer
	if err := f.hero.Form(context.Background(), scope, &buf, "1", nil); err != nil {
		t.Fatalf("form: %v", err)
	}
	if scope.Assets().ScriptQueued(PostsSelectorHandle) {
		t.Fatalf("posts selector should only load for posts fields")
	}
	if !strings.Contains(buf.String(), `window.sow_repeater_html["Hero_Widget"] = {};`) {
		t.Fatalf("expected empty repeater payload:\n%s", buf.String())
	}
}
