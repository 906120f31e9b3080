package widget

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/schema"
)

type buttonDefinition struct{}

func (buttonDefinition) TemplateName(schema.Instance) string { return "button" }
func (buttonDefinition) StyleName(schema.Instance) string    { return "" }

func registerButton(t *testing.T, env *Environment) {
	t.Helper()
	fields, err := schema.Decode([]byte("text:\n  type: text\n  label: Text\n  default: Go\nsize:\n  type: number\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	templates := map[string]string{"tpl/button.tmpl": `<a class="button">{{ instance.text }}</a>`}
	env.Registry().MustRegister("Button_Widget", func(env *Environment) (any, error) {
		return New(env, "button", "Button", buttonDefinition{}, fields,
			WithClass("Button_Widget"),
			WithTemplates(mapFS(templates)),
		)
	})
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	env, err := NewEnvironment()
	if err != nil {
		t.Fatalf("new environment: %v", err)
	}
	reg := env.Registry()
	registerButton(t, env)

	if err := reg.Register("Button_Widget", func(*Environment) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := reg.Register(" ", func(*Environment) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected empty class error")
	}
	reg.MustRegister("Broken_Widget", func(*Environment) (any, error) { return struct{}{}, nil })

	if diff := cmp.Diff([]string{"Broken_Widget", "Button_Widget"}, reg.Classes()); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}

	component, err := reg.Resolve("Button_Widget")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if component.IDBase() != "button" {
		t.Fatalf("unexpected component %s", component.IDBase())
	}
	if _, err := reg.Resolve("Nope_Widget"); !errors.Is(err, ErrUnknownClass) {
		t.Fatalf("expected ErrUnknownClass, got %v", err)
	}
	if _, err := reg.Resolve("Broken_Widget"); !errors.Is(err, ErrIncompatible) {
		t.Fatalf("expected ErrIncompatible, got %v", err)
	}
	if _, ok := reg.Updater("Broken_Widget"); ok {
		t.Fatalf("incompatible class must not be used as updater")
	}
	if found, err := reg.Lookup("button"); err != nil || found.Class() != "Button_Widget" {
		t.Fatalf("lookup by id base: %v", err)
	}
}

func TestRegistry_EmbeddedWidgetFlow(t *testing.T) {
	env, err := NewEnvironment()
	if err != nil {
		t.Fatalf("new environment: %v", err)
	}
	registerButton(t, env)

	fields, err := schema.Decode([]byte("cta:\n  type: widget\n  label: Call to action\n  class: Button_Widget\nlegacy:\n  type: widget\n  class: Legacy_Widget\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	parent, err := New(env, "hero", "Hero", buttonDefinition{}, fields)
	if err != nil {
		t.Fatalf("new widget: %v", err)
	}

	updated, err := parent.Update(context.Background(), schema.Instance{
		"cta":    map[string]any{"text": "", "size": "12px"},
		"legacy": map[string]any{"raw": "kept"},
	}, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := schema.Instance{
		"cta":    map[string]any{"text": false, "size": 12.0},
		"legacy": map[string]any{"raw": "kept"},
	}
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Fatalf("embedded update mismatch (-want +got):\n%s", diff)
	}

	var form bytes.Buffer
	if err := parent.Form(context.Background(), request.NewScope(), &form, "1", nil); err != nil {
		t.Fatalf("form: %v", err)
	}
	if !strings.Contains(form.String(), `name="widget-hero[1][cta][text]" id="widget-hero-1-cta][text" value="Go"`) {
		t.Fatalf("embedded form missing:\n%s", form.String())
	}
	if !strings.Contains(form.String(), "Unknown Field") {
		t.Fatalf("unresolved class should render placeholder:\n%s", form.String())
	}

	var out bytes.Buffer
	args := Args{BeforeWidget: "<li>", AfterWidget: "</li>"}
	if err := parent.SubWidget(context.Background(), request.NewScope(), &out, "Button_Widget", args, schema.Instance{"text": "Buy"}); err != nil {
		t.Fatalf("sub widget: %v", err)
	}
	if diff := cmp.Diff(`<div class="so-widget-button so-widget-button-base"><a class="button">Buy</a></div>`, out.String()); diff != "" {
		t.Fatalf("sub widget mismatch (-want +got):\n%s", diff)
	}

	out.Reset()
	if err := parent.SubWidget(context.Background(), request.NewScope(), &out, "Legacy_Widget", args, nil); err != nil {
		t.Fatalf("unknown sub widget should be skipped: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("unknown sub widget rendered %q", out.String())
	}
}

func TestRegistry_ResolveBuildsOnce(t *testing.T) {
	env, err := NewEnvironment()
	if err != nil {
		t.Fatalf("new environment: %v", err)
	}
	fields, err := schema.Decode([]byte("text:\n  type: text\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	builds := 0
	env.Registry().MustRegister("Counter_Widget", func(env *Environment) (any, error) {
		builds++
		return New(env, "counter", "Counter", buttonDefinition{}, fields)
	})
	fails := 0
	env.Registry().MustRegister("Acme_Flaky_Widget", func(*Environment) (any, error) {
		fails++
		return nil, errors.New("not yet")
	})

	first, err := env.Registry().Resolve("Counter_Widget")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := env.Registry().Lookup("counter")
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		if again != first {
			t.Fatalf("expected the memoized component")
		}
	}
	if builds != 1 {
		t.Fatalf("expected one construction, got %d", builds)
	}
	if fails != 3 {
		t.Fatalf("failed constructions should be retried, got %d attempts", fails)
	}
}
