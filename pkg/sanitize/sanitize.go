package sanitize

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-widgets/pkg/schema"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Updater is the capability an embedded widget must expose before the
// sanitizer delegates its nested value to it.
type Updater interface {
	Update(ctx context.Context, newInstance, oldInstance schema.Instance) (schema.Instance, error)
}

// SubWidgets resolves the class named by a widget-type field. ok is false
// when the class is unknown or does not implement Updater.
type SubWidgets interface {
	Updater(class string) (Updater, bool)
}

// Sanitizer cleans submitted instances against a schema.
type Sanitizer struct {
	subWidgets SubWidgets
	htmlPolicy *bluemonday.Policy
	logger     *zap.SugaredLogger
}

// New constructs a Sanitizer.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{
		htmlPolicy: HTMLPolicy(),
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Sanitize returns a cleaned copy of inst. Keys without a schema entry are
// kept as submitted. Sanitizing an already sanitized instance is a no-op.
func (s *Sanitizer) Sanitize(ctx context.Context, inst schema.Instance, fields schema.Schema) (schema.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := schema.Clone(inst)
	if out == nil {
		out = make(schema.Instance)
	}
	for _, field := range fields {
		if field == nil {
			continue
		}
		v := &fieldVisitor{ctx: ctx, s: s, inst: out}
		if err := field.Accept(v); err != nil {
			return nil, err
		}
		applyDirective(s, field.Common(), out)
	}
	return out, nil
}

type fieldVisitor struct {
	ctx  context.Context
	s    *Sanitizer
	inst schema.Instance
}

// empty reports (and records) the false sentinel for empty submissions.
func (v *fieldVisitor) empty(name string) bool {
	if schema.Empty(v.inst[name]) {
		v.inst[name] = false
		return true
	}
	return false
}

func (v *fieldVisitor) passthrough(f schema.Field) error {
	v.empty(f.Common().Name)
	return nil
}

func (v *fieldVisitor) VisitText(f *schema.TextField) error         { return v.passthrough(f) }
func (v *fieldVisitor) VisitTextarea(f *schema.TextareaField) error { return v.passthrough(f) }
func (v *fieldVisitor) VisitEditor(f *schema.EditorField) error     { return v.passthrough(f) }
func (v *fieldVisitor) VisitColor(f *schema.ColorField) error       { return v.passthrough(f) }
func (v *fieldVisitor) VisitMedia(f *schema.MediaField) error       { return v.passthrough(f) }
func (v *fieldVisitor) VisitPosts(f *schema.PostsField) error       { return v.passthrough(f) }
func (v *fieldVisitor) VisitIcon(f *schema.IconField) error         { return v.passthrough(f) }
func (v *fieldVisitor) VisitUnknown(f *schema.UnknownField) error   { return v.passthrough(f) }

func (v *fieldVisitor) VisitSelect(f *schema.SelectField) error {
	if v.empty(f.Name) {
		return nil
	}
	if f.HasOption(schema.String(v.inst[f.Name])) {
		return nil
	}
	if f.HasDefault() {
		v.inst[f.Name] = f.Default
		return nil
	}
	v.inst[f.Name] = false
	return nil
}

func (v *fieldVisitor) VisitNumber(f *schema.NumberField) error {
	if v.empty(f.Name) {
		return nil
	}
	n := ParseNumber(v.inst[f.Name])
	if n == 0 {
		v.inst[f.Name] = false
		return nil
	}
	v.inst[f.Name] = n
	return nil
}

func (v *fieldVisitor) VisitCheckbox(f *schema.CheckboxField) error {
	if v.empty(f.Name) {
		return nil
	}
	v.inst[f.Name] = true
	return nil
}

func (v *fieldVisitor) VisitRepeater(f *schema.RepeaterField) error {
	if v.empty(f.Name) {
		return nil
	}
	rows, ok := schema.AsList(v.inst[f.Name])
	if !ok {
		v.inst[f.Name] = false
		return nil
	}
	cleaned := make([]any, len(rows))
	for idx, raw := range rows {
		row, _ := schema.AsMap(raw)
		sub, err := v.s.Sanitize(v.ctx, row, f.Fields)
		if err != nil {
			return fmt.Errorf("sanitize: repeater %q row %d: %w", f.Name, idx, err)
		}
		cleaned[idx] = sub
	}
	v.inst[f.Name] = cleaned
	return nil
}

func (v *fieldVisitor) VisitSection(f *schema.SectionField) error {
	if v.empty(f.Name) {
		return nil
	}
	nested, _ := schema.AsMap(v.inst[f.Name])
	sub, err := v.s.Sanitize(v.ctx, nested, f.Fields)
	if err != nil {
		return fmt.Errorf("sanitize: section %q: %w", f.Name, err)
	}
	v.inst[f.Name] = sub
	return nil
}

func (v *fieldVisitor) VisitWidget(f *schema.WidgetField) error {
	if v.empty(f.Name) {
		return nil
	}
	if f.Class == "" || v.s.subWidgets == nil {
		v.s.logger.Debugw("embedded widget value kept as submitted", "field", f.Name, "class", f.Class)
		return nil
	}
	updater, ok := v.s.subWidgets.Updater(f.Class)
	if !ok {
		v.s.logger.Debugw("embedded widget class cannot update, value kept as submitted", "field", f.Name, "class", f.Class)
		return nil
	}
	nested, _ := schema.AsMap(v.inst[f.Name])
	updated, err := updater.Update(v.ctx, nested, nested)
	if err != nil {
		return fmt.Errorf("sanitize: widget %q (%s): %w", f.Name, f.Class, err)
	}
	v.inst[f.Name] = updated
	return nil
}

func applyDirective(s *Sanitizer, base *schema.Base, inst schema.Instance) {
	raw, ok := inst[base.Name].(string)
	if !ok {
		return
	}
	var cleaned string
	switch base.Sanitize {
	case schema.SanitizeURL:
		cleaned = EscapeURL(raw)
	case schema.SanitizeHTML:
		cleaned = strings.TrimSpace(s.htmlPolicy.Sanitize(raw))
	default:
		return
	}
	if schema.Empty(cleaned) {
		inst[base.Name] = false
		return
	}
	inst[base.Name] = cleaned
}

var leadingFloat = regexp.MustCompile(`^[ \t\n\r\v\f]*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber converts submitted values to float64 using the leading numeric
// prefix of strings, so "3.5abc" yields 3.5 and "abc" yields 0.
// Out of range strings saturate to ±Inf, or 0 on underflow.
func ParseNumber(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		match := strings.TrimSpace(leadingFloat.FindString(v))
		if match == "" {
			return 0
		}
		n, err := strconv.ParseFloat(match, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0
		}
		return n
	default:
		return 0
	}
}
