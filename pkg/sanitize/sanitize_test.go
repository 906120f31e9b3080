package sanitize

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-widgets/pkg/schema"
	"github.com/goliatone/go-widgets/pkg/testsupport"
)

func selectSchema() schema.Schema {
	return schema.Schema{
		&schema.SelectField{
			Base:    schema.Base{Name: "choice", Default: "a"},
			Options: []schema.Option{{Value: "a", Label: "A"}, {Value: "b", Label: "B"}},
		},
	}
}

func TestSanitize_SelectFallsBackToDefault(t *testing.T) {
	got, err := New().Sanitize(context.Background(), schema.Instance{"choice": "z"}, selectSchema())
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got["choice"] != "a" {
		t.Fatalf("expected fallback to default, got %v", got["choice"])
	}
}

func TestSanitize_SelectWithoutDefaultBecomesFalse(t *testing.T) {
	fields := schema.Schema{
		&schema.SelectField{
			Base:    schema.Base{Name: "choice"},
			Options: []schema.Option{{Value: "a", Label: "A"}},
		},
	}
	got, err := New().Sanitize(context.Background(), schema.Instance{"choice": "z"}, fields)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got["choice"] != false {
		t.Fatalf("expected false, got %v", got["choice"])
	}
}

func TestSanitize_NumberCoercion(t *testing.T) {
	fields := schema.Schema{&schema.NumberField{Base: schema.Base{Name: "n"}}}
	cases := []struct {
		in   any
		want any
	}{
		{"3.5abc", 3.5},
		{" 42", 42.0},
		{"1e3px", 1000.0},
		{".25", 0.25},
		{"1e999", math.Inf(1)},
		{"-1e999px", math.Inf(-1)},
		{"1e-999", false},
		{"abc", false},
		{"0.0", false},
		{"", false},
		{7, 7.0},
	}
	for _, tc := range cases {
		got, err := New().Sanitize(context.Background(), schema.Instance{"n": tc.in}, fields)
		if err != nil {
			t.Fatalf("sanitize: %v", err)
		}
		if diff := cmp.Diff(tc.want, got["n"]); diff != "" {
			t.Fatalf("number %q mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestSanitize_TypeRules(t *testing.T) {
	fields := schema.Schema{
		&schema.TextField{Base: schema.Base{Name: "title"}},
		&schema.CheckboxField{Base: schema.Base{Name: "enabled"}},
		&schema.CheckboxField{Base: schema.Base{Name: "disabled"}},
		&schema.TextField{Base: schema.Base{Name: "link", Sanitize: schema.SanitizeURL}},
		&schema.TextareaField{Base: schema.Base{Name: "body", Sanitize: schema.SanitizeHTML}},
		&schema.RepeaterField{
			Base: schema.Base{Name: "frames"},
			Fields: schema.Schema{
				&schema.TextField{Base: schema.Base{Name: "url", Sanitize: schema.SanitizeURL}},
				&schema.NumberField{Base: schema.Base{Name: "delay"}},
			},
		},
		&schema.SectionField{
			Base:   schema.Base{Name: "design"},
			Fields: schema.Schema{&schema.ColorField{Base: schema.Base{Name: "color"}}},
		},
	}
	in := schema.Instance{
		"title":    "Hello",
		"enabled":  "on",
		"disabled": "",
		"link":     "example.com/path with space",
		"body":     `<p onclick="x()">Hi <script>alert(1)</script><b>there</b></p>`,
		"frames": []any{
			map[string]any{"url": "javascript:alert(1)", "delay": "250ms"},
			map[string]any{"url": "/local", "delay": ""},
		},
		"design":  map[string]any{"color": ""},
		"unknown": "kept",
	}
	got, err := New().Sanitize(context.Background(), in, fields)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	want := schema.Instance{
		"title":    "Hello",
		"enabled":  true,
		"disabled": false,
		"link":     "http://example.com/path%20with%20space",
		"body":     "<p>Hi <b>there</b></p>",
		"frames": []any{
			schema.Instance{"url": false, "delay": 250.0},
			schema.Instance{"url": "/local", "delay": false},
		},
		"design":  schema.Instance{"color": false},
		"unknown": "kept",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sanitize mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitize_NonListRepeaterBecomesFalse(t *testing.T) {
	fields := schema.Schema{&schema.RepeaterField{Base: schema.Base{Name: "rows"}, Fields: schema.Schema{}}}
	got, err := New().Sanitize(context.Background(), schema.Instance{"rows": "nope"}, fields)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got["rows"] != false {
		t.Fatalf("expected false, got %v", got["rows"])
	}
}

type stubUpdater struct {
	calls int
}

func (s *stubUpdater) Update(_ context.Context, newInstance, _ schema.Instance) (schema.Instance, error) {
	s.calls++
	out := schema.Clone(newInstance)
	out["updated"] = true
	return out, nil
}

type stubSubWidgets map[string]Updater

func (s stubSubWidgets) Updater(class string) (Updater, bool) {
	u, ok := s[class]
	return u, ok
}

func TestSanitize_WidgetDelegation(t *testing.T) {
	updater := &stubUpdater{}
	fields := schema.Schema{
		&schema.WidgetField{Base: schema.Base{Name: "button"}, Class: "button"},
		&schema.WidgetField{Base: schema.Base{Name: "legacy"}, Class: "missing"},
	}
	in := schema.Instance{
		"button": map[string]any{"text": "Go"},
		"legacy": map[string]any{"raw": "<b>kept</b>"},
	}
	got, err := New(WithSubWidgets(stubSubWidgets{"button": updater})).Sanitize(context.Background(), in, fields)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if updater.calls != 1 {
		t.Fatalf("expected one delegated update, got %d", updater.calls)
	}
	want := schema.Instance{
		"button": schema.Instance{"text": "Go", "updated": true},
		"legacy": map[string]any{"raw": "<b>kept</b>"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("widget delegation mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	fields := schema.Schema{
		&schema.TextField{Base: schema.Base{Name: "title"}},
		&schema.NumberField{Base: schema.Base{Name: "speed"}},
		&schema.CheckboxField{Base: schema.Base{Name: "autoplay"}},
		&schema.TextField{Base: schema.Base{Name: "link", Sanitize: schema.SanitizeURL}},
		&schema.EditorField{Base: schema.Base{Name: "body", Sanitize: schema.SanitizeHTML}},
		&schema.SelectField{
			Base:    schema.Base{Name: "style", Default: "thin"},
			Options: []schema.Option{{Value: "thin"}, {Value: "thick"}},
		},
		&schema.RepeaterField{
			Base: schema.Base{Name: "frames"},
			Fields: schema.Schema{
				&schema.MediaField{Base: schema.Base{Name: "image"}},
				&schema.NumberField{Base: schema.Base{Name: "delay"}},
			},
		},
		&schema.SectionField{
			Base:   schema.Base{Name: "design"},
			Fields: schema.Schema{&schema.CheckboxField{Base: schema.Base{Name: "shadow"}}},
		},
	}
	instances := []schema.Instance{
		{},
		{"title": "0", "speed": "0", "autoplay": "yes", "link": "mailto:me@example.com"},
		{"speed": "12.5s", "style": "bogus", "link": "ftp://files.example.com/a b"},
		{"link": "data:text/html;base64,xx", "body": "<i>a & b</i><iframe></iframe>"},
		{"frames": []any{map[string]any{"image": "15", "delay": "1.5"}, "junk"}},
		{"frames": map[string]any{"x": 1}, "design": "flat"},
		{"design": map[string]any{"shadow": 1}, "extra": []any{1, 2}},
	}
	s := New()
	for _, inst := range instances {
		once, err := s.Sanitize(context.Background(), inst, fields)
		if err != nil {
			t.Fatalf("sanitize once: %v", err)
		}
		twice, err := s.Sanitize(context.Background(), once, fields)
		if err != nil {
			t.Fatalf("sanitize twice: %v", err)
		}
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("sanitize not idempotent for %v (-once +twice):\n%s", inst, diff)
		}
	}
}

func TestSanitize_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Sanitize(ctx, schema.Instance{}, selectSchema())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSanitize_SliderFixture(t *testing.T) {
	fields := testsupport.LoadSchema(t, filepath.Join("testdata", "slider.yaml"))
	submitted := schema.Instance{
		"frames": []any{
			map[string]any{
				"background_image": "12",
				"background_color": "#123456",
				"url":              "javascript:alert(1)",
				"new_window":       "on",
			},
			map[string]any{"url": "example.com/landing"},
		},
		"speed":    "650ms",
		"timeout":  "",
		"controls": map[string]any{"nav_style": "sideways", "nav_size": "18px"},
	}
	got, err := New().Sanitize(testsupport.Context(), submitted, fields)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	want := schema.Instance{
		"frames": []any{
			map[string]any{
				"background_image": "12",
				"background_color": "#123456",
				"foreground_image": false,
				"url":              false,
				"new_window":       true,
			},
			map[string]any{
				"background_image": false,
				"background_color": false,
				"foreground_image": false,
				"url":              "http://example.com/landing",
				"new_window":       false,
			},
		},
		"speed":   650.0,
		"timeout": false,
		"controls": map[string]any{
			"nav_color_hex": false,
			"nav_style":     "thin",
			"nav_size":      18.0,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sanitized slider mismatch (-want +got):\n%s", diff)
	}
}
