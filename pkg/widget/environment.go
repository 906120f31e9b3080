package widget

import (
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-widgets/pkg/csscache"
	"github.com/goliatone/go-widgets/pkg/less"
	"github.com/goliatone/go-widgets/pkg/render"
	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/sanitize"
	"github.com/goliatone/go-widgets/pkg/themes"
)

// DefaultVersion is appended to the shared admin assets.
const DefaultVersion = "1.1"

// AdminTheme names the manifest that locates the shared admin assets.
const AdminTheme = "siteorigin-widgets"

// Environment is the runtime shared by every widget of a host: the CSS
// cache, the form renderer, the sanitizer and the widget registry.
type Environment struct {
	cache      *csscache.Cache
	renderer   *render.Renderer
	renderOpts []render.Option
	sanitizer  *sanitize.Sanitizer
	compiler   *less.Compiler
	mixins     string
	assetsURL  string
	assetFiles map[string]string
	assets     *theme.RendererConfig
	variant    string
	version    string
	debug      bool
	logger     *zap.SugaredLogger
	registry   *Registry
}

// EnvironmentOption configures an Environment.
type EnvironmentOption func(*Environment)

// WithCache stores generated stylesheets in cache. Without a cache every
// stylesheet is printed inline.
func WithCache(cache *csscache.Cache) EnvironmentOption {
	return func(env *Environment) {
		env.cache = cache
	}
}

// WithRenderer replaces the form renderer. A custom renderer is responsible
// for its own sub-widget resolution.
func WithRenderer(r *render.Renderer) EnvironmentOption {
	return func(env *Environment) {
		if r != nil {
			env.renderer = r
		}
	}
}

// WithRenderOptions adds options to the default form renderer, typically
// the media, posts and icon providers.
func WithRenderOptions(opts ...render.Option) EnvironmentOption {
	return func(env *Environment) {
		env.renderOpts = append(env.renderOpts, opts...)
	}
}

// WithSanitizer replaces the instance sanitizer.
func WithSanitizer(s *sanitize.Sanitizer) EnvironmentOption {
	return func(env *Environment) {
		if s != nil {
			env.sanitizer = s
		}
	}
}

// WithCompiler sets the LESS compiler shared by all widgets.
func WithCompiler(c *less.Compiler) EnvironmentOption {
	return func(env *Environment) {
		if c != nil {
			env.compiler = c
		}
	}
}

// WithMixins replaces the shared mixins library inlined into styles.
func WithMixins(src string) EnvironmentOption {
	return func(env *Environment) {
		env.mixins = src
	}
}

// WithAssetsURL sets the base URL of the admin scripts and stylesheets.
func WithAssetsURL(url string) EnvironmentOption {
	return func(env *Environment) {
		env.assetsURL = strings.TrimRight(url, "/")
	}
}

// WithAssetFiles remaps admin asset paths, for example to minified or
// fingerprinted builds.
func WithAssetFiles(files map[string]string) EnvironmentOption {
	return func(env *Environment) {
		if env.assetFiles == nil {
			env.assetFiles = make(map[string]string, len(files))
		}
		for key, value := range files {
			env.assetFiles[key] = value
		}
	}
}

// WithThemeVariant selects the style variant applied to widgets that ship
// themes. Widgets without the variant use their base theme.
func WithThemeVariant(variant string) EnvironmentOption {
	return func(env *Environment) {
		env.variant = strings.TrimSpace(variant)
	}
}

// WithVersion sets the version appended to admin asset URLs.
func WithVersion(version string) EnvironmentOption {
	return func(env *Environment) {
		if version != "" {
			env.version = version
		}
	}
}

// WithDebug regenerates cached stylesheets on every render.
func WithDebug(debug bool) EnvironmentOption {
	return func(env *Environment) {
		env.debug = debug
	}
}

// WithLogger attaches the logger used for degraded renders.
func WithLogger(logger *zap.SugaredLogger) EnvironmentOption {
	return func(env *Environment) {
		if logger != nil {
			env.logger = logger
		}
	}
}

// NewEnvironment builds the shared runtime. The default renderer and
// sanitizer resolve embedded widgets through the environment registry.
func NewEnvironment(opts ...EnvironmentOption) (*Environment, error) {
	env := &Environment{
		mixins:  BaseMixins(),
		version: DefaultVersion,
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(env)
		}
	}
	env.registry = newRegistry(env)
	env.assets = themes.Config(&theme.Selection{
		Theme: AdminTheme,
		Manifest: &theme.Manifest{
			Name:    AdminTheme,
			Version: env.version,
			Assets:  theme.Assets{Prefix: env.assetsURL, Files: env.assetFiles},
		},
	})

	if env.compiler == nil {
		env.compiler = less.New()
	}
	if env.renderer == nil {
		options := append([]render.Option{
			render.WithSubWidgetForms(env.registry),
			render.WithLogger(env.logger),
		}, env.renderOpts...)
		r, err := render.New(options...)
		if err != nil {
			return nil, fmt.Errorf("widget: configure renderer: %w", err)
		}
		env.renderer = r
	}
	if env.sanitizer == nil {
		env.sanitizer = sanitize.New(
			sanitize.WithSubWidgets(env.registry),
			sanitize.WithLogger(env.logger),
		)
	}
	return env, nil
}

// Registry returns the widget registry bound to this environment.
func (env *Environment) Registry() *Registry { return env.registry }

// Cache returns the stylesheet cache, nil when caching is disabled.
func (env *Environment) Cache() *csscache.Cache { return env.cache }

// Renderer returns the form renderer.
func (env *Environment) Renderer() *render.Renderer { return env.renderer }

// Logger returns the environment logger.
func (env *Environment) Logger() *zap.SugaredLogger { return env.logger }

// Debug reports whether stylesheets are regenerated on every render.
func (env *Environment) Debug() bool { return env.debug }

// ThemeVariant returns the style variant selected for this host.
func (env *Environment) ThemeVariant() string { return env.variant }

// AssetURL resolves path against the admin assets base URL, after any
// remapping set with WithAssetFiles.
func (env *Environment) AssetURL(path string) string {
	return env.assets.AssetURL(strings.TrimLeft(path, "/"))
}

// sweep runs the expiry sweep at most once per request.
func (env *Environment) sweep(scope *request.Scope) {
	if env.cache == nil {
		return
	}
	removed, err := env.cache.Sweep(scope, false)
	if err != nil {
		env.logger.Warnw("css cache sweep failed", "error", err)
		return
	}
	if removed > 0 {
		env.logger.Debugw("css cache swept", "removed", removed)
	}
}
