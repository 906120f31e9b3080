// Package render turns field schemas into the admin form markup of a widget
// instance. Simple controls come from templates; containers (repeaters,
// sections, embedded widgets) are assembled here so their children can be
// rendered recursively.
package render

import (
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-widgets/pkg/render/template/gotemplate"
	rendertemplate "github.com/goliatone/go-widgets/pkg/render/template"
	"github.com/goliatone/go-widgets/pkg/sanitize"
)

const templatePrefix = "templates/fields/"

// Renderer holds the shared, read-only rendering dependencies. Per-form
// state lives on Session.
type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	labelPolicy *bluemonday.Policy
	subWidgets  SubWidgetForms
	media       MediaLibrary
	posts       PostCounter
	icons       IconFamilies
	logger      *zap.SugaredLogger
}

// New constructs a renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
			gotemplate.WithSetName("fields"),
		)
		if err != nil {
			return nil, fmt.Errorf("render: configure template renderer: %w", err)
		}
		templates = engine
	}

	r := &Renderer{
		templates:   templates,
		labelPolicy: cfg.labelPolicy,
		subWidgets:  cfg.subWidgets,
		media:       cfg.media,
		posts:       cfg.posts,
		icons:       cfg.icons,
		logger:      cfg.logger,
	}
	if r.labelPolicy == nil {
		r.labelPolicy = sanitize.HTMLPolicy()
	}
	if r.logger == nil {
		r.logger = zap.NewNop().Sugar()
	}
	return r, nil
}

// Templates exposes the template engine so callers can share it.
func (r *Renderer) Templates() rendertemplate.TemplateRenderer {
	return r.templates
}

// NewSession starts rendering one instance form.
func (r *Renderer) NewSession(namer Namer) *Session {
	return &Session{
		renderer:     r,
		namer:        namer,
		repeaterHTML: make(map[string]string),
	}
}
