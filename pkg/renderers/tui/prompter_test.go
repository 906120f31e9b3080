package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-widgets/pkg/schema"
)

type stubDriver struct {
	inputs    []string
	selectIdx []int
	confirm   []bool
	textAreas []string
	messages  []string
	defaults  []string
	info      []string
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if len(s.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	s.defaults = append(s.defaults, cfg.Default)
	val := s.inputs[0]
	s.inputs = s.inputs[1:]
	if cfg.Validator != nil {
		if err := cfg.Validator(val); err != nil {
			return "", err
		}
	}
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	if len(s.confirm) == 0 {
		return false, errors.New("no confirm scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	val := s.confirm[0]
	s.confirm = s.confirm[1:]
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if len(s.selectIdx) == 0 {
		return -1, errors.New("no select scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	val := s.selectIdx[0]
	s.selectIdx = s.selectIdx[1:]
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg TextAreaConfig) (string, error) {
	if len(s.textAreas) == 0 {
		return "", errors.New("no textarea scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	val := s.textAreas[0]
	s.textAreas = s.textAreas[1:]
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.info = append(s.info, msg)
	return nil
}

const promptSchema = `
title:
  type: text
  label: Title
  default: Hello
speed:
  type: number
  default: 800
style:
  type: select
  label: Style
  options:
    thin: Thin
    thick: Thick
  default: thin
body:
  type: textarea
  label: Body
sticky:
  type: checkbox
  label: Sticky
frames:
  type: repeater
  item_name: Frame
  fields:
    url:
      type: text
      label: URL
controls:
  type: section
  label: Controls
  fields:
    nav_color:
      type: color
      default: "#ffffff"
gallery:
  type: gallery
`

func decodePromptSchema(t *testing.T) schema.Schema {
	t.Helper()
	s, err := schema.Decode([]byte(promptSchema))
	if err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	return s
}

func TestPrompter_FillWalksSchemaInOrder(t *testing.T) {
	driver := &stubDriver{
		// title, speed, kept frame url, added frame url, nav colour
		inputs:    []string{"Welcome", "400", "https://example.com/kept", "https://example.com/new", "#000"},
		selectIdx: []int{1},
		textAreas: []string{"Some text"},
		// sticky, keep frame 1, add frame, stop adding
		confirm: []bool{true, true, true, false},
	}
	p := New(WithPromptDriver(driver), WithTheme(Theme{SectionPrefix: "== "}))

	existing := schema.Instance{
		"frames": []any{map[string]any{"url": "https://example.com/old"}},
	}
	got, err := p.Fill(context.Background(), decodePromptSchema(t), existing)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := schema.Instance{
		"title":  "Welcome",
		"speed":  "400",
		"style":  "thick",
		"body":   "Some text",
		"sticky": "on",
		"frames": []any{
			map[string]any{"url": "https://example.com/kept"},
			map[string]any{"url": "https://example.com/new"},
		},
		"controls": map[string]any{"nav_color": "#000"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("instance mismatch (-want +got):\n%s", diff)
	}

	wantDefaults := []string{"Hello", "800", "https://example.com/old", "", "#ffffff"}
	if diff := cmp.Diff(wantDefaults, driver.defaults); diff != "" {
		t.Fatalf("prompt defaults mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"== Controls"}, driver.info); diff != "" {
		t.Fatalf("section headings mismatch (-want +got):\n%s", diff)
	}
	if len(driver.inputs) != 0 {
		t.Fatalf("unused scripted inputs: %v", driver.inputs)
	}
	if _, ok := existing["title"]; ok {
		t.Fatalf("input instance was mutated")
	}
}

func TestPrompter_UncheckedAndDroppedRows(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"", "", "#fff"},
		selectIdx: []int{0},
		textAreas: []string{""},
		// sticky off, drop frame 1, add nothing
		confirm: []bool{false, false, false},
	}
	p := New(WithPromptDriver(driver))
	got, err := p.Fill(context.Background(), decodePromptSchema(t), schema.Instance{
		"sticky": "on",
		"frames": []any{map[string]any{"url": "x"}},
	})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if _, ok := got["sticky"]; ok {
		t.Fatalf("unchecked box should be absent, got %v", got["sticky"])
	}
	if diff := cmp.Diff([]any{}, got["frames"]); diff != "" {
		t.Fatalf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestPrompter_ValidationErrorsPropagate(t *testing.T) {
	driver := &stubDriver{inputs: []string{"Title", "fast"}}
	p := New(WithPromptDriver(driver))
	_, err := p.Fill(context.Background(), decodePromptSchema(t), nil)
	if err == nil {
		t.Fatalf("expected number validation error")
	}
}

type stubForms map[string]schema.Schema

func (s stubForms) FormSchema(class string) (schema.Schema, bool) {
	fields, ok := s[class]
	return fields, ok
}

func TestPrompter_EmbeddedWidget(t *testing.T) {
	outer, err := schema.Decode([]byte("button:\n  type: widget\n  class: Button_Widget\n  label: Button\nother:\n  type: widget\n  class: Missing\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	inner, err := schema.Decode([]byte("text:\n  type: text\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	driver := &stubDriver{inputs: []string{"Click"}}
	p := New(WithPromptDriver(driver), WithSubWidgetForms(stubForms{"Button_Widget": inner}))
	got, err := p.Fill(context.Background(), outer, nil)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	want := schema.Instance{"button": map[string]any{"text": "Click"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("instance mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateColor(t *testing.T) {
	for _, ok := range []string{"", "#fff", "#A0B1C2", "abc"} {
		if err := validateColor(ok); err != nil {
			t.Fatalf("validateColor(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"#ff", "#gggggg", "red"} {
		if err := validateColor(bad); err == nil {
			t.Fatalf("validateColor(%q): expected error", bad)
		}
	}
}
