// Package slider is the image slider widget: a repeater of frames with
// background and foreground images, cycled on the front end.
package slider

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-widgets/pkg/assets"
	"github.com/goliatone/go-widgets/pkg/render"
	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/schema"
	"github.com/goliatone/go-widgets/pkg/themes"
	"github.com/goliatone/go-widgets/pkg/widget"
)

// Plugin identity.
const (
	Slug    = "slider"
	Class   = "SiteOrigin_Widget_Slider_Widget"
	IDBase  = "sow-slider"
	Name    = "SiteOrigin Slider"
	Version = "1.1"
)

//go:embed form.yaml styles/*.less tpl/*.tmpl
var files embed.FS

// Files exposes the slider's form, styles and templates.
func Files() fs.FS { return files }

// Themes returns the variants of the default style. The base theme adds no
// tokens, so the style file's own defaults apply.
var Themes = sync.OnceValues(func() (*themes.Set, error) {
	return themes.New(&theme.Manifest{
		Name:    "default",
		Version: Version + ".0",
		Variants: map[string]theme.Variant{
			"dark": {Tokens: map[string]string{"nav_color_hex": "#222222"}},
			"bold": {Tokens: map[string]string{"nav_size": "35"}},
		},
	})
})

// Definition implements widget.Definition for the slider.
type Definition struct {
	env   *widget.Environment
	media render.MediaLibrary
}

var (
	_ widget.Definition           = (*Definition)(nil)
	_ widget.LessVariableProvider = (*Definition)(nil)
	_ widget.InstanceModifier     = (*Definition)(nil)
	_ widget.FrontendEnqueuer     = (*Definition)(nil)
)

func (d *Definition) TemplateName(schema.Instance) string { return "base" }

func (d *Definition) StyleName(schema.Instance) string { return "default" }

// LessVariables maps the navigation controls onto the style variables.
func (d *Definition) LessVariables(inst schema.Instance) map[string]string {
	controls, _ := schema.AsMap(inst["controls"])
	return map[string]string{
		"nav_color_hex": schema.String(controls["nav_color_hex"]),
		"nav_size":      schema.String(controls["nav_size"]),
	}
}

// ModifyInstance resolves frame images into background_src and
// foreground_src for the template.
func (d *Definition) ModifyInstance(inst schema.Instance) schema.Instance {
	rows, ok := schema.AsList(inst["frames"])
	if !ok {
		return inst
	}
	frames := make([]any, len(rows))
	for idx, raw := range rows {
		frame, ok := schema.AsMap(raw)
		if !ok {
			frames[idx] = raw
			continue
		}
		frame["background_src"] = d.imageSource(frame["background_image"])
		frame["foreground_src"] = d.imageSource(frame["foreground_image"])
		frames[idx] = frame
	}
	inst["frames"] = frames
	return inst
}

func (d *Definition) imageSource(value any) string {
	if schema.Empty(value) {
		return ""
	}
	if list, ok := schema.AsList(value); ok {
		if len(list) == 0 {
			return ""
		}
		return schema.String(list[0])
	}
	if d.media == nil {
		return ""
	}
	attachment, ok := d.media.Attachment(schema.String(value))
	if !ok {
		return ""
	}
	return attachment.Thumbnail
}

// EnqueueFrontend queues the cycle plugin and the slider script.
func (d *Definition) EnqueueFrontend(scope *request.Scope) {
	q := scope.Assets()
	q.EnqueueScript(assets.Script{
		Handle:  "sow-slider-slider-cycle2",
		Src:     d.env.AssetURL("js/jquery.cycle.min.js"),
		Version: Version,
		Deps:    []string{"jquery"},
	})
	q.EnqueueScript(assets.Script{
		Handle:   "sow-slider-slider",
		Src:      d.env.AssetURL("js/slider/jquery.slider.min.js"),
		Version:  Version,
		Deps:     []string{"jquery"},
		InFooter: true,
	})
}

// Option configures the slider.
type Option func(*Definition)

// WithMedia resolves attachment ids stored in frames.
func WithMedia(media render.MediaLibrary) Option {
	return func(d *Definition) {
		d.media = media
	}
}

// New builds the slider widget for env.
func New(env *widget.Environment, opts ...Option) (*widget.Widget, error) {
	fields, err := schema.ReadFile(files, "form.yaml")
	if err != nil {
		return nil, fmt.Errorf("slider: %w", err)
	}
	styles, err := fs.Sub(files, "styles")
	if err != nil {
		return nil, fmt.Errorf("slider: styles: %w", err)
	}
	styleThemes, err := Themes()
	if err != nil {
		return nil, fmt.Errorf("slider: themes: %w", err)
	}
	def := &Definition{env: env}
	for _, opt := range opts {
		if opt != nil {
			opt(def)
		}
	}
	return widget.New(env, IDBase, Name, def, fields,
		widget.WithClass(Class),
		widget.WithStyles(styles),
		widget.WithThemes(styleThemes),
		widget.WithTemplates(files),
	)
}

// Register adds the slider class to the environment registry.
func Register(opts ...Option) func(env *widget.Environment) error {
	return func(env *widget.Environment) error {
		return env.Registry().Register(Class, func(env *widget.Environment) (any, error) {
			return New(env, opts...)
		})
	}
}
