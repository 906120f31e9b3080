package schema

// Visitor dispatches on the concrete field variant. Renderers, the
// sanitizer and the defaults merger implement it instead of branching on
// Kind.
type Visitor interface {
	VisitText(f *TextField) error
	VisitTextarea(f *TextareaField) error
	VisitEditor(f *EditorField) error
	VisitColor(f *ColorField) error
	VisitNumber(f *NumberField) error
	VisitSelect(f *SelectField) error
	VisitCheckbox(f *CheckboxField) error
	VisitMedia(f *MediaField) error
	VisitPosts(f *PostsField) error
	VisitIcon(f *IconField) error
	VisitRepeater(f *RepeaterField) error
	VisitSection(f *SectionField) error
	VisitWidget(f *WidgetField) error
	VisitUnknown(f *UnknownField) error
}

func (f *TextField) Accept(v Visitor) error     { return v.VisitText(f) }
func (f *TextareaField) Accept(v Visitor) error { return v.VisitTextarea(f) }
func (f *EditorField) Accept(v Visitor) error   { return v.VisitEditor(f) }
func (f *ColorField) Accept(v Visitor) error    { return v.VisitColor(f) }
func (f *NumberField) Accept(v Visitor) error   { return v.VisitNumber(f) }
func (f *SelectField) Accept(v Visitor) error   { return v.VisitSelect(f) }
func (f *CheckboxField) Accept(v Visitor) error { return v.VisitCheckbox(f) }
func (f *MediaField) Accept(v Visitor) error    { return v.VisitMedia(f) }
func (f *PostsField) Accept(v Visitor) error    { return v.VisitPosts(f) }
func (f *IconField) Accept(v Visitor) error     { return v.VisitIcon(f) }
func (f *RepeaterField) Accept(v Visitor) error { return v.VisitRepeater(f) }
func (f *SectionField) Accept(v Visitor) error  { return v.VisitSection(f) }
func (f *WidgetField) Accept(v Visitor) error   { return v.VisitWidget(f) }
func (f *UnknownField) Accept(v Visitor) error  { return v.VisitUnknown(f) }

// Funcs adapts optional per-variant callbacks into a Visitor. Variants
// without a callback fall through to Fallback; a nil Fallback is a no-op.
type Funcs struct {
	Text     func(*TextField) error
	Textarea func(*TextareaField) error
	Editor   func(*EditorField) error
	Color    func(*ColorField) error
	Number   func(*NumberField) error
	Select   func(*SelectField) error
	Checkbox func(*CheckboxField) error
	Media    func(*MediaField) error
	Posts    func(*PostsField) error
	Icon     func(*IconField) error
	Repeater func(*RepeaterField) error
	Section  func(*SectionField) error
	Widget   func(*WidgetField) error
	Unknown  func(*UnknownField) error
	Fallback func(Field) error
}

var _ Visitor = Funcs{}

func (fn Funcs) fallback(f Field) error {
	if fn.Fallback == nil {
		return nil
	}
	return fn.Fallback(f)
}

func (fn Funcs) VisitText(f *TextField) error {
	if fn.Text != nil {
		return fn.Text(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitTextarea(f *TextareaField) error {
	if fn.Textarea != nil {
		return fn.Textarea(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitEditor(f *EditorField) error {
	if fn.Editor != nil {
		return fn.Editor(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitColor(f *ColorField) error {
	if fn.Color != nil {
		return fn.Color(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitNumber(f *NumberField) error {
	if fn.Number != nil {
		return fn.Number(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitSelect(f *SelectField) error {
	if fn.Select != nil {
		return fn.Select(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitCheckbox(f *CheckboxField) error {
	if fn.Checkbox != nil {
		return fn.Checkbox(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitMedia(f *MediaField) error {
	if fn.Media != nil {
		return fn.Media(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitPosts(f *PostsField) error {
	if fn.Posts != nil {
		return fn.Posts(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitIcon(f *IconField) error {
	if fn.Icon != nil {
		return fn.Icon(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitRepeater(f *RepeaterField) error {
	if fn.Repeater != nil {
		return fn.Repeater(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitSection(f *SectionField) error {
	if fn.Section != nil {
		return fn.Section(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitWidget(f *WidgetField) error {
	if fn.Widget != nil {
		return fn.Widget(f)
	}
	return fn.fallback(f)
}

func (fn Funcs) VisitUnknown(f *UnknownField) error {
	if fn.Unknown != nil {
		return fn.Unknown(f)
	}
	return fn.fallback(f)
}
