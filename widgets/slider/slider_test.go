package slider

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-widgets/pkg/render"
	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/schema"
	"github.com/goliatone/go-widgets/pkg/style"
	"github.com/goliatone/go-widgets/pkg/widget"
)

func newSlider(t *testing.T) (*widget.Environment, *widget.Widget) {
	t.Helper()
	env, err := widget.NewEnvironment(widget.WithAssetsURL("https://example.com/so-slider"))
	if err != nil {
		t.Fatalf("new environment: %v", err)
	}
	media := render.StaticMedia{"42": {Title: "Beach", Thumbnail: "https://example.com/beach.jpg"}}
	if err := Register(WithMedia(media))(env); err != nil {
		t.Fatalf("register: %v", err)
	}
	component, err := env.Registry().Resolve(Class)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return env, component.(*widget.Widget)
}

func TestSlider_SchemaLoads(t *testing.T) {
	_, w := newSlider(t)
	if diff := cmp.Diff([]string{"frames", "speed", "timeout", "controls"}, w.FormSchema().Names()); diff != "" {
		t.Fatalf("form fields mismatch (-want +got):\n%s", diff)
	}
}

func TestSlider_RendersFramesAndInlineCSS(t *testing.T) {
	_, w := newSlider(t)
	inst := schema.Instance{
		"frames": []any{
			map[string]any{"background_image": "42", "background_color": "#222222", "url": "https://example.com/a", "new_window": true},
			map[string]any{"foreground_image": []any{"https://cdn.example.com/fg.png", 300, 200}},
		},
		"controls": map[string]any{"nav_color_hex": "#ff0000", "nav_style": "thick", "nav_size": 30},
	}
	scope := request.NewScope()
	var buf bytes.Buffer
	if err := w.Widget(context.Background(), scope, &buf, widget.Args{}, inst); err != nil {
		t.Fatalf("widget: %v", err)
	}
	got := buf.String()

	hash := style.Hash(map[string]string{"nav_color_hex": "#ff0000", "nav_size": "30"})
	for _, fragment := range []string{
		`<div class="so-widget-sow-slider so-widget-sow-slider-default-` + hash + `">`,
		`data-settings='{"speed":800,"timeout":8000}'`,
		`<li class="sow-slider-image sow-slider-image-cover" style="background-color: #222222;background-image: url(https://example.com/beach.jpg);">`,
		`<a href="https://example.com/a" target="_blank">`,
		`<img src="https://cdn.example.com/fg.png" class="sow-slider-foreground-image" />`,
		`<a href="#" data-goto="1">2</a>`,
		`sow-sld-icon-thick-right`,
	} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("expected %s in:\n%s", fragment, got)
		}
	}

	inline := scope.Assets().InlineCSS()
	if len(inline) != 1 {
		t.Fatalf("expected inline css without a cache, got %d blocks", len(inline))
	}
	for _, fragment := range []string{
		".so-widget-sow-slider-default-" + hash + " .sow-slider-base ol.sow-slider-pagination li a:hover",
		"background: rgba(255, 0, 0, 0.75);",
		"font-size: 30px;",
		"border-radius: 4px;",
	} {
		if !strings.Contains(inline[0], fragment) {
			t.Fatalf("expected %q in css:\n%s", fragment, inline[0])
		}
	}
	if !scope.Assets().ScriptQueued("sow-slider-slider") {
		t.Fatalf("slider script not queued")
	}
}

func TestSlider_EmptyFramesRenderNothingInside(t *testing.T) {
	_, w := newSlider(t)
	var buf bytes.Buffer
	if err := w.Widget(context.Background(), request.NewScope(), &buf, widget.Args{}, nil); err != nil {
		t.Fatalf("widget: %v", err)
	}
	if strings.Contains(buf.String(), "sow-slider-base") {
		t.Fatalf("slider without frames should be empty: %s", buf.String())
	}
}

func TestSlider_UpdateSanitizesFrames(t *testing.T) {
	_, w := newSlider(t)
	got, err := w.Update(context.Background(), schema.Instance{
		"frames": []any{
			map[string]any{"url": "javascript:alert(1)", "new_window": "on", "background_color": ""},
			map[string]any{"url": "example.com/b"},
		},
		"speed":    "500ms",
		"timeout":  "",
		"controls": map[string]any{"nav_style": "wavy", "nav_size": "20"},
	}, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := schema.Instance{
		"frames": []any{
			map[string]any{"url": false, "new_window": true, "background_color": false, "background_image": false, "foreground_image": false},
			map[string]any{"url": "http://example.com/b", "new_window": false, "background_color": false, "background_image": false, "foreground_image": false},
		},
		"speed":    500.0,
		"timeout":  false,
		"controls": map[string]any{"nav_style": "thin", "nav_size": 20.0, "nav_color_hex": false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sanitized slider mismatch (-want +got):\n%s", diff)
	}
}

func TestSlider_DarkVariantColoursNavigation(t *testing.T) {
	env, err := widget.NewEnvironment(widget.WithThemeVariant("dark"))
	if err != nil {
		t.Fatalf("new environment: %v", err)
	}
	w, err := New(env)
	if err != nil {
		t.Fatalf("new slider: %v", err)
	}
	inst := schema.Instance{"controls": map[string]any{"nav_size": 30}}

	want := map[string]string{"nav_color_hex": "#222222", "nav_size": "30"}
	if diff := cmp.Diff(want, w.LessVariables(inst)); diff != "" {
		t.Fatalf("variables mismatch (-want +got):\n%s", diff)
	}
	css, err := w.InstanceCSS(inst)
	if err != nil {
		t.Fatalf("instance css: %v", err)
	}
	if !strings.Contains(css, "rgba(34, 34, 34, 0.75)") {
		t.Fatalf("expected dark navigation colour in:\n%s", css)
	}
}
