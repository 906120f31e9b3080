// Package tui fills widget instances interactively from a terminal by
// walking the widget form schema and prompting for each field.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2/terminal"
	"go.uber.org/zap"

	"github.com/goliatone/go-widgets/pkg/render"
	"github.com/goliatone/go-widgets/pkg/schema"
)

// Prompter collects field values through a PromptDriver. The result is an
// unsanitized instance, shaped the way a submitted admin form would be, ready
// to be passed to a widget update.
type Prompter struct {
	driver PromptDriver
	forms  render.SubWidgetForms
	theme  Theme
	logger *zap.SugaredLogger
}

// New constructs a Prompter; without WithPromptDriver it talks to the
// process terminal through survey.
func New(options ...Option) *Prompter {
	p := &Prompter{logger: zap.NewNop().Sugar()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	if p.driver == nil {
		p.driver = NewSurveyDriver(terminal.Stdio{})
	}
	return p
}

// Fill prompts for every field of s. Current values in inst, then field
// defaults, seed each prompt. The input instance is not modified.
func (p *Prompter) Fill(ctx context.Context, s schema.Schema, inst schema.Instance) (schema.Instance, error) {
	if ctx == nil {
		return nil, fmt.Errorf("tui: context is required")
	}
	out := schema.Clone(inst)
	if out == nil {
		out = make(schema.Instance)
	}
	v := &fieldPrompt{p: p, ctx: ctx, values: out}
	for _, field := range s {
		if field == nil {
			continue
		}
		if err := field.Accept(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type fieldPrompt struct {
	p      *Prompter
	ctx    context.Context
	values map[string]any
}

var _ schema.Visitor = (*fieldPrompt)(nil)

func (v *fieldPrompt) current(base *schema.Base) any {
	if value, ok := v.values[base.Name]; ok && value != nil {
		return value
	}
	return base.Default
}

func (v *fieldPrompt) input(base *schema.Base, validate func(string) error) error {
	answer, err := v.p.driver.Input(v.ctx, InputConfig{
		Message:   message(base),
		Default:   schema.String(v.current(base)),
		Help:      base.Description,
		Validator: validate,
	})
	if err != nil {
		return fmt.Errorf("tui: field %q: %w", base.Name, err)
	}
	v.values[base.Name] = answer
	return nil
}

func (v *fieldPrompt) textarea(base *schema.Base) error {
	answer, err := v.p.driver.TextArea(v.ctx, TextAreaConfig{
		Message: message(base),
		Default: schema.String(v.current(base)),
		Help:    base.Description,
	})
	if err != nil {
		return fmt.Errorf("tui: field %q: %w", base.Name, err)
	}
	v.values[base.Name] = answer
	return nil
}

func (v *fieldPrompt) VisitText(f *schema.TextField) error         { return v.input(&f.Base, nil) }
func (v *fieldPrompt) VisitTextarea(f *schema.TextareaField) error { return v.textarea(&f.Base) }
func (v *fieldPrompt) VisitEditor(f *schema.EditorField) error     { return v.textarea(&f.Base) }
func (v *fieldPrompt) VisitColor(f *schema.ColorField) error       { return v.input(&f.Base, validateColor) }
func (v *fieldPrompt) VisitNumber(f *schema.NumberField) error     { return v.input(&f.Base, validateNumber) }
func (v *fieldPrompt) VisitMedia(f *schema.MediaField) error       { return v.input(&f.Base, nil) }
func (v *fieldPrompt) VisitPosts(f *schema.PostsField) error       { return v.input(&f.Base, nil) }
func (v *fieldPrompt) VisitIcon(f *schema.IconField) error         { return v.input(&f.Base, nil) }

func (v *fieldPrompt) VisitSelect(f *schema.SelectField) error {
	if len(f.Options) == 0 {
		return nil
	}
	labels := make([]string, len(f.Options))
	selected := schema.String(v.current(&f.Base))
	defaultIdx := 0
	for idx, opt := range f.Options {
		labels[idx] = opt.Label
		if opt.Value == selected {
			defaultIdx = idx
		}
	}
	idx, err := v.p.driver.Select(v.ctx, SelectConfig{
		Message:      message(&f.Base),
		Options:      labels,
		DefaultIndex: defaultIdx,
		Help:         f.Description,
	})
	if err != nil {
		return fmt.Errorf("tui: field %q: %w", f.Name, err)
	}
	if idx < 0 || idx >= len(f.Options) {
		idx = defaultIdx
	}
	v.values[f.Name] = f.Options[idx].Value
	return nil
}

func (v *fieldPrompt) VisitCheckbox(f *schema.CheckboxField) error {
	checked, err := v.p.driver.Confirm(v.ctx, ConfirmConfig{
		Message: message(&f.Base),
		Default: !schema.Empty(v.current(&f.Base)),
		Help:    f.Description,
	})
	if err != nil {
		return fmt.Errorf("tui: field %q: %w", f.Name, err)
	}
	// Unchecked boxes are absent from a submitted form.
	if checked {
		v.values[f.Name] = "on"
	} else {
		delete(v.values, f.Name)
	}
	return nil
}

func (v *fieldPrompt) VisitRepeater(f *schema.RepeaterField) error {
	item := f.ItemName
	if item == "" {
		item = "item"
	}
	existing, _ := schema.AsList(v.values[f.Name])
	rows := make([]any, 0, len(existing))
	for idx, raw := range existing {
		keep, err := v.p.driver.Confirm(v.ctx, ConfirmConfig{
			Message: fmt.Sprintf("%sKeep %s %d?", v.p.theme.RowPrefix, item, idx+1),
			Default: true,
		})
		if err != nil {
			return fmt.Errorf("tui: field %q: %w", f.Name, err)
		}
		if !keep {
			continue
		}
		row, _ := schema.AsMap(raw)
		filled, err := v.p.Fill(v.ctx, f.Fields, row)
		if err != nil {
			return err
		}
		rows = append(rows, filled)
	}
	for {
		add, err := v.p.driver.Confirm(v.ctx, ConfirmConfig{
			Message: fmt.Sprintf("%sAdd %s?", v.p.theme.RowPrefix, item),
		})
		if err != nil {
			return fmt.Errorf("tui: field %q: %w", f.Name, err)
		}
		if !add {
			break
		}
		filled, err := v.p.Fill(v.ctx, f.Fields, nil)
		if err != nil {
			return err
		}
		rows = append(rows, filled)
	}
	v.values[f.Name] = rows
	return nil
}

func (v *fieldPrompt) VisitSection(f *schema.SectionField) error {
	return v.nested(&f.Base, f.Fields)
}

func (v *fieldPrompt) VisitWidget(f *schema.WidgetField) error {
	if v.p.forms == nil {
		v.p.logger.Debugw("embedded widget skipped", "field", f.Name, "class", f.Class)
		return nil
	}
	fields, ok := v.p.forms.FormSchema(f.Class)
	if !ok {
		v.p.logger.Warnw("embedded widget class not registered", "field", f.Name, "class", f.Class)
		return nil
	}
	return v.nested(&f.Base, fields)
}

func (v *fieldPrompt) VisitUnknown(f *schema.UnknownField) error {
	v.p.logger.Debugw("unknown field type skipped", "field", f.Name, "type", f.TypeName)
	return nil
}

func (v *fieldPrompt) nested(base *schema.Base, fields schema.Schema) error {
	if err := v.p.driver.Info(v.ctx, v.p.theme.SectionPrefix+message(base)); err != nil {
		return err
	}
	current, _ := schema.AsMap(v.current(base))
	filled, err := v.p.Fill(v.ctx, fields, current)
	if err != nil {
		return err
	}
	v.values[base.Name] = filled
	return nil
}

func message(base *schema.Base) string {
	if base.Label != "" {
		return base.Label
	}
	return base.Name
}

func validateNumber(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return fmt.Errorf("%q is not a number", value)
	}
	return nil
}

func validateColor(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	hex := strings.TrimPrefix(value, "#")
	if len(hex) != 3 && len(hex) != 6 {
		return fmt.Errorf("%q is not a hex color", value)
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return fmt.Errorf("%q is not a hex color", value)
	}
	return nil
}
