package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Option configures the sanitizer.
type Option func(*Sanitizer)

// WithSubWidgets wires the resolver used for widget-type fields. Without it,
// embedded widget values pass through unchanged.
func WithSubWidgets(resolver SubWidgets) Option {
	return func(s *Sanitizer) {
		s.subWidgets = resolver
	}
}

// WithHTMLPolicy overrides the policy applied to `sanitize: html` fields.
func WithHTMLPolicy(policy *bluemonday.Policy) Option {
	return func(s *Sanitizer) {
		if policy != nil {
			s.htmlPolicy = policy
		}
	}
}

// WithLogger attaches a logger for pass-through and delegation diagnostics.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Sanitizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}
