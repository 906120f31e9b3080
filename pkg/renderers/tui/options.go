package tui

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-widgets/pkg/render"
)

// Theme captures optional prefixes applied to prompt messages.
type Theme struct {
	SectionPrefix string
	RowPrefix     string
}

// Option configures the Prompter.
type Option func(*Prompter)

// WithPromptDriver overrides the prompt driver used by the prompter.
func WithPromptDriver(driver PromptDriver) Option {
	return func(p *Prompter) {
		if driver != nil {
			p.driver = driver
		}
	}
}

// WithSubWidgetForms resolves embedded widget schemas so their fields can be
// prompted in place.
func WithSubWidgetForms(forms render.SubWidgetForms) Option {
	return func(p *Prompter) {
		if forms != nil {
			p.forms = forms
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(p *Prompter) {
		p.theme = theme
	}
}

// WithLogger sets the logger used for skipped fields.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(p *Prompter) {
		if logger != nil {
			p.logger = logger
		}
	}
}
