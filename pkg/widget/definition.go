package widget

import (
	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/schema"
)

// Definition is implemented by every concrete widget.
type Definition interface {
	// TemplateName selects the front-end template, rendered from
	// tpl/{name}.tmpl.
	TemplateName(inst schema.Instance) string
	// StyleName selects the LESS style; "" means the widget has no CSS.
	StyleName(inst schema.Instance) string
}

// LessVariableProvider derives the LESS variables of an instance. The
// variables also key the cached stylesheet.
type LessVariableProvider interface {
	LessVariables(inst schema.Instance) map[string]string
}

// FormModifier adjusts the form schema before it is rendered or used for
// sanitizing. It receives a copy of the declared schema.
type FormModifier interface {
	ModifyForm(fields schema.Schema) schema.Schema
}

// InstanceModifier filters an instance before the form or the widget is
// rendered.
type InstanceModifier interface {
	ModifyInstance(inst schema.Instance) schema.Instance
}

// FrontendEnqueuer queues the assets the front-end template needs.
type FrontendEnqueuer interface {
	EnqueueFrontend(scope *request.Scope)
}

// AdminEnqueuer queues extra admin form assets.
type AdminEnqueuer interface {
	EnqueueAdmin(scope *request.Scope)
}

// Initializer runs once when the widget is constructed.
type Initializer interface {
	Initialize() error
}

// Args is the wrapper markup supplied by the host sidebar.
type Args struct {
	BeforeWidget string
	AfterWidget  string
	BeforeTitle  string
	AfterTitle   string
}

func (a Args) data() map[string]any {
	return map[string]any{
		"before_widget": a.BeforeWidget,
		"after_widget":  a.AfterWidget,
		"before_title":  a.BeforeTitle,
		"after_title":   a.AfterTitle,
	}
}
