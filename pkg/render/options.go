package render

import (
	"io/fs"
	"os"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	rendertemplate "github.com/goliatone/go-widgets/pkg/render/template"
)

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	labelPolicy      *bluemonday.Policy
	subWidgets       SubWidgetForms
	media            MediaLibrary
	posts            PostCounter
	icons            IconFamilies
	logger           *zap.SugaredLogger
}

// WithTemplatesFS supplies an alternate field template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads field templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithLabelPolicy overrides the policy that cleans label markup.
func WithLabelPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.labelPolicy = policy
		}
	}
}

// WithSubWidgetForms wires the schema lookup used by widget-type fields.
func WithSubWidgetForms(forms SubWidgetForms) Option {
	return func(cfg *config) {
		cfg.subWidgets = forms
	}
}

// WithMediaLibrary wires attachment lookups for media fields.
func WithMediaLibrary(media MediaLibrary) Option {
	return func(cfg *config) {
		cfg.media = media
	}
}

// WithPostCounter wires the query counter shown by posts fields.
func WithPostCounter(posts PostCounter) Option {
	return func(cfg *config) {
		cfg.posts = posts
	}
}

// WithIconFamilies wires the icon families offered by icon fields.
func WithIconFamilies(icons IconFamilies) Option {
	return func(cfg *config) {
		cfg.icons = icons
	}
}

// WithLogger attaches a logger for degraded-field diagnostics.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
