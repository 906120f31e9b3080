package schema

// ApplyDefaults returns a copy of inst where every field missing from the
// instance takes its declared default. Repeater rows are filled
// independently. Sections and embedded widgets are not descended into; their
// nested defaults are resolved at render time instead.
func ApplyDefaults(s Schema, inst Instance) Instance {
	out := Clone(inst)
	if out == nil {
		out = make(Instance)
	}
	for _, field := range s {
		if field == nil {
			continue
		}
		_ = field.Accept(defaultsVisitor{inst: out})
	}
	return out
}

type defaultsVisitor struct {
	inst Instance
}

func (v defaultsVisitor) VisitRepeater(f *RepeaterField) error {
	rows, ok := AsList(v.inst[f.Name])
	if !ok || len(rows) == 0 {
		return v.fill(f)
	}
	filled := make([]any, len(rows))
	for idx, raw := range rows {
		row, ok := AsMap(raw)
		if !ok {
			filled[idx] = raw
			continue
		}
		filled[idx] = ApplyDefaults(f.Fields, row)
	}
	v.inst[f.Name] = filled
	return nil
}

func (v defaultsVisitor) VisitText(f *TextField) error         { return v.fill(f) }
func (v defaultsVisitor) VisitTextarea(f *TextareaField) error { return v.fill(f) }
func (v defaultsVisitor) VisitEditor(f *EditorField) error     { return v.fill(f) }
func (v defaultsVisitor) VisitColor(f *ColorField) error       { return v.fill(f) }
func (v defaultsVisitor) VisitNumber(f *NumberField) error     { return v.fill(f) }
func (v defaultsVisitor) VisitSelect(f *SelectField) error     { return v.fill(f) }
func (v defaultsVisitor) VisitCheckbox(f *CheckboxField) error { return v.fill(f) }
func (v defaultsVisitor) VisitMedia(f *MediaField) error       { return v.fill(f) }
func (v defaultsVisitor) VisitPosts(f *PostsField) error       { return v.fill(f) }
func (v defaultsVisitor) VisitIcon(f *IconField) error         { return v.fill(f) }
func (v defaultsVisitor) VisitSection(f *SectionField) error   { return v.fill(f) }
func (v defaultsVisitor) VisitWidget(f *WidgetField) error     { return v.fill(f) }
func (v defaultsVisitor) VisitUnknown(f *UnknownField) error   { return v.fill(f) }

func (v defaultsVisitor) fill(field Field) error {
	base := field.Common()
	if current, ok := v.inst[base.Name]; ok && current != nil {
		return nil
	}
	if !base.HasDefault() {
		return nil
	}
	v.inst[base.Name] = cloneValue(base.Default)
	return nil
}
