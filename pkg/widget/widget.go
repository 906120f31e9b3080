// Package widget implements the lifecycle shared by every schema-driven
// widget: front-end rendering with per-instance stylesheets, the admin form
// and the update path that sanitizes submissions and refreshes the CSS
// cache.
package widget

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-widgets/pkg/assets"
	"github.com/goliatone/go-widgets/pkg/render/template/gotemplate"
	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/schema"
	"github.com/goliatone/go-widgets/pkg/style"
	"github.com/goliatone/go-widgets/pkg/themes"
)

// PreviewKey flags instances rendered for live editing. Their CSS is always
// printed inline.
const PreviewKey = "is_preview"

// Widget is one widget class bound to an environment.
type Widget struct {
	env       *Environment
	idBase    string
	name      string
	class     string
	help      string
	def       Definition
	fields    schema.Schema
	generator *style.Generator
	templates *gotemplate.Engine
	themes    theme.ThemeSelector
}

// Option configures a Widget.
type Option func(*Widget)

// WithClass sets the class identifier used in the admin markup and the
// repeater payload. Defaults to the id base.
func WithClass(class string) Option {
	return func(w *Widget) {
		if class = strings.TrimSpace(class); class != "" {
			w.class = class
		}
	}
}

// WithHelp adds a help link below the admin form.
func WithHelp(url string) Option {
	return func(w *Widget) {
		w.help = strings.TrimSpace(url)
	}
}

// WithThemes supplies theme manifests keyed by style name. The selected
// theme's tokens are the LESS variables an instance leaves empty.
func WithThemes(selector theme.ThemeSelector) Option {
	return func(w *Widget) {
		w.themes = selector
	}
}

// WithStyles sets the directory holding `{style}.less` templates.
func WithStyles(styles fs.FS) Option {
	return func(w *Widget) {
		w.generator.Styles = styles
	}
}

// WithTemplates sets the directory holding `tpl/{name}.tmpl` front-end
// templates.
func WithTemplates(templates fs.FS) Option {
	return func(w *Widget) {
		if templates == nil {
			return
		}
		engine, err := gotemplate.New(
			gotemplate.WithFS(templates),
			gotemplate.WithSetName(w.idBase),
		)
		if err != nil {
			w.env.logger.Warnw("widget templates unavailable", "widget", w.idBase, "error", err)
			return
		}
		w.templates = engine
	}
}

// New binds def to env. fields is the declared form schema.
func New(env *Environment, idBase, name string, def Definition, fields schema.Schema, opts ...Option) (*Widget, error) {
	if env == nil {
		return nil, fmt.Errorf("widget: environment is required")
	}
	if strings.TrimSpace(idBase) == "" {
		return nil, fmt.Errorf("widget: id base is required")
	}
	if def == nil {
		return nil, fmt.Errorf("widget: %s: definition is required", idBase)
	}
	w := &Widget{
		env:       env,
		idBase:    idBase,
		name:      name,
		class:     idBase,
		def:       def,
		fields:    fields,
		generator: &style.Generator{Mixins: env.mixins, Compiler: env.compiler},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if init, ok := def.(Initializer); ok {
		if err := init.Initialize(); err != nil {
			return nil, fmt.Errorf("widget: %s: initialize: %w", idBase, err)
		}
	}
	return w, nil
}

// IDBase returns the widget base id, the prefix of field names and CSS
// classes.
func (w *Widget) IDBase() string { return w.idBase }

// Name returns the human readable widget name.
func (w *Widget) Name() string { return w.name }

// Class returns the class identifier the widget is registered under.
func (w *Widget) Class() string { return w.class }

// Definition returns the concrete widget behind w.
func (w *Widget) Definition() Definition { return w.def }

// FormSchema returns the form after the widget's ModifyForm hook.
func (w *Widget) FormSchema() schema.Schema {
	fields := append(schema.Schema(nil), w.fields...)
	if modifier, ok := w.def.(FormModifier); ok {
		return modifier.ModifyForm(fields)
	}
	return fields
}

// FormOptions is FormSchema under the name hosts know it by.
func (w *Widget) FormOptions() schema.Schema { return w.FormSchema() }

func (w *Widget) modifyInstance(inst schema.Instance) schema.Instance {
	inst = schema.Clone(inst)
	if inst == nil {
		inst = make(schema.Instance)
	}
	if modifier, ok := w.def.(InstanceModifier); ok {
		if modified := modifier.ModifyInstance(inst); modified != nil {
			return modified
		}
	}
	return inst
}

// LessVariables returns the style variables of inst: the style theme's
// tokens overlaid with the values the definition derives from inst. Empty
// derived values keep the token.
func (w *Widget) LessVariables(inst schema.Instance) map[string]string {
	vars := w.themeTokens(w.def.StyleName(inst))
	if provider, ok := w.def.(LessVariableProvider); ok {
		for key, value := range provider.LessVariables(inst) {
			if value == "" && vars[key] != "" {
				continue
			}
			vars[key] = value
		}
	}
	return vars
}

func (w *Widget) themeTokens(styleName string) map[string]string {
	tokens := map[string]string{}
	if w.themes == nil || styleName == "" {
		return tokens
	}
	sel, err := w.themes.Select(styleName, w.env.variant)
	if err != nil && w.env.variant != "" {
		w.env.logger.Debugw("theme variant unavailable, using base theme", "widget", w.idBase, "style", styleName, "variant", w.env.variant, "error", err)
		sel, err = w.themes.Select(styleName, "")
	}
	if err != nil {
		w.env.logger.Debugw("style has no theme", "widget", w.idBase, "style", styleName, "error", err)
		return tokens
	}
	if cfg := themes.Config(sel); cfg != nil {
		for key, value := range cfg.Tokens {
			tokens[key] = value
		}
	}
	return tokens
}

// StyleHash keys the cached stylesheet of inst.
func (w *Widget) StyleHash(inst schema.Instance) string {
	return style.Hash(w.LessVariables(inst))
}

// CSSName returns the scope class and cache file name of inst.
func (w *Widget) CSSName(inst schema.Instance) string {
	name := w.def.StyleName(inst)
	if name == "" {
		return style.BaseName(w.idBase)
	}
	return style.CSSName(w.idBase, name, w.StyleHash(inst))
}

// InstanceCSS compiles the stylesheet of inst. Styleless widgets yield "".
func (w *Widget) InstanceCSS(inst schema.Instance) (string, error) {
	name := w.def.StyleName(inst)
	if name == "" {
		return "", nil
	}
	css, err := w.generator.CSS(name, w.CSSName(inst), w.LessVariables(inst))
	if err != nil {
		return "", fmt.Errorf("widget: %s: %w", w.idBase, err)
	}
	return css, nil
}

// SaveCSS writes the stylesheet of inst to the cache and returns its hash.
func (w *Widget) SaveCSS(inst schema.Instance) (string, error) {
	cache := w.env.cache
	if cache == nil {
		return "", fmt.Errorf("widget: %s: css cache is not configured", w.idBase)
	}
	hash := w.StyleHash(inst)
	if w.def.StyleName(inst) == "" {
		return hash, nil
	}
	css, err := w.InstanceCSS(inst)
	if err != nil {
		return "", err
	}
	if err := cache.Save(w.CSSName(inst), css); err != nil {
		return "", fmt.Errorf("widget: %s: %w", w.idBase, err)
	}
	return hash, nil
}

// Widget renders the front-end markup of inst inside the host's wrapper.
func (w *Widget) Widget(ctx context.Context, scope *request.Scope, out io.Writer, args Args, inst schema.Instance) error {
	if scope == nil {
		scope = request.FromContext(ctx)
	}
	inst = w.modifyInstance(inst)
	styleName := w.def.StyleName(inst)
	inst = schema.ApplyDefaults(w.FormSchema(), inst)

	w.env.sweep(scope)

	cssName := style.BaseName(w.idBase)
	if styleName != "" {
		cssName = style.CSSName(w.idBase, styleName, w.StyleHash(inst))
		w.enqueueCSS(scope, inst, cssName)
	}

	if enqueuer, ok := w.def.(FrontendEnqueuer); ok {
		enqueuer.EnqueueFrontend(scope)
	}

	var buf bytes.Buffer
	buf.WriteString(args.BeforeWidget)
	buf.WriteString(`<div class="so-widget-`)
	buf.WriteString(html.EscapeString(w.idBase))
	buf.WriteString(` so-widget-`)
	buf.WriteString(html.EscapeString(cssName))
	buf.WriteString(`">`)
	buf.WriteString(w.renderTemplate(inst, args, cssName))
	buf.WriteString(`</div>`)
	buf.WriteString(args.AfterWidget)

	_, err := out.Write(buf.Bytes())
	return err
}

// SubWidget renders the widget registered as class without the host's
// wrapper markup. Unknown classes render nothing.
func (w *Widget) SubWidget(ctx context.Context, scope *request.Scope, out io.Writer, class string, args Args, inst schema.Instance) error {
	component, err := w.env.registry.Resolve(class)
	if err != nil {
		w.env.logger.Debugw("sub-widget skipped", "widget", w.idBase, "class", class, "error", err)
		return nil
	}
	args.BeforeWidget = ""
	args.AfterWidget = ""
	return component.Widget(ctx, scope, out, args, inst)
}

// Update sanitizes a submitted instance and refreshes its cached
// stylesheet. The returned instance is what the host persists.
func (w *Widget) Update(ctx context.Context, newInstance, oldInstance schema.Instance) (schema.Instance, error) {
	cleaned, err := w.env.sanitizer.Sanitize(ctx, newInstance, w.FormSchema())
	if err != nil {
		return nil, fmt.Errorf("widget: %s: %w", w.idBase, err)
	}
	if w.env.cache != nil {
		if _, err := w.SaveCSS(cleaned); err != nil {
			w.env.logger.Warnw("stylesheet not cached", "widget", w.idBase, "error", err)
		}
	}
	return cleaned, nil
}

func (w *Widget) enqueueCSS(scope *request.Scope, inst schema.Instance, cssName string) {
	cache := w.env.cache
	if schema.Truthy(inst, PreviewKey) || cache == nil {
		w.inlineCSS(scope, inst)
		return
	}

	if !cache.Exists(cssName) || w.env.debug {
		if _, err := w.SaveCSS(inst); err != nil {
			w.env.logger.Warnw("stylesheet regeneration failed", "widget", w.idBase, "css", cssName, "error", err)
		}
	}
	if cache.Exists(cssName) {
		scope.Assets().EnqueueStyle(assets.Style{Handle: cssName, Src: cache.URL(cssName)})
		return
	}
	w.inlineCSS(scope, inst)
}

func (w *Widget) inlineCSS(scope *request.Scope, inst schema.Instance) {
	css, err := w.InstanceCSS(inst)
	if err != nil {
		w.env.logger.Warnw("inline stylesheet failed", "widget", w.idBase, "error", err)
		return
	}
	scope.Assets().AddInlineCSS(css)
}

func (w *Widget) renderTemplate(inst schema.Instance, args Args, cssName string) string {
	if w.templates == nil {
		w.env.logger.Debugw("widget has no templates", "widget", w.idBase)
		return ""
	}
	name := w.def.TemplateName(inst)
	rendered, err := w.templates.RenderTemplate("tpl/"+name, map[string]any{
		"instance": inst,
		"args":     args.data(),
		"id_base":  w.idBase,
		"css_name": cssName,
	})
	if err != nil {
		w.env.logger.Debugw("widget template failed", "widget", w.idBase, "template", name, "error", err)
		return ""
	}
	return rendered
}
