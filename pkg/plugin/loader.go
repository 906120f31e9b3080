// Package plugin holds the entry point of the legacy widget plugins: a shim
// that, unless the widgets bundle is active, creates a loader registering the
// plugin's widgets.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-widgets/pkg/widget"
)

// Metadata describes one legacy widget plugin.
type Metadata struct {
	Slug           string
	File           string
	Implementation string
	Version        string
}

// RegisterFunc adds a plugin's widget classes to env.
type RegisterFunc func(env *widget.Environment) error

// Loader registers the widgets of one plugin. Load is idempotent.
type Loader struct {
	Metadata
	env      *widget.Environment
	register RegisterFunc

	once sync.Once
	err  error
}

// NewLoader binds a plugin to env.
func NewLoader(meta Metadata, env *widget.Environment, register RegisterFunc) (*Loader, error) {
	if meta.Slug == "" {
		return nil, fmt.Errorf("plugin: slug is required")
	}
	if env == nil {
		return nil, fmt.Errorf("plugin: %s: environment is required", meta.Slug)
	}
	if register == nil {
		return nil, fmt.Errorf("plugin: %s: register function is required", meta.Slug)
	}
	return &Loader{Metadata: meta, env: env, register: register}, nil
}

// Load registers the plugin's widgets once.
func (l *Loader) Load() error {
	l.once.Do(func() {
		if err := l.register(l.env); err != nil {
			l.err = fmt.Errorf("plugin: %s: %w", l.Slug, err)
		}
	})
	return l.err
}

// Shim is the plugin entry point. BundleActive reports whether the
// superseding bundle plugin is installed, in which case the shim does
// nothing.
type Shim struct {
	Meta         Metadata
	Env          *widget.Environment
	Register     RegisterFunc
	BundleActive func() bool
	Logger       *zap.SugaredLogger

	mu     sync.Mutex
	loader *Loader
}

// Init creates and runs the loader. It returns nil when the bundle is
// active.
func (s *Shim) Init(context.Context) (*Loader, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if s.BundleActive != nil && s.BundleActive() {
		logger.Infow("widgets bundle active, legacy plugin skipped", "slug", s.Meta.Slug)
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loader == nil {
		loader, err := NewLoader(s.Meta, s.Env, s.Register)
		if err != nil {
			return nil, err
		}
		s.loader = loader
	}
	if err := s.loader.Load(); err != nil {
		return nil, err
	}
	logger.Debugw("legacy widget plugin loaded", "slug", s.Meta.Slug, "version", s.Meta.Version)
	return s.loader, nil
}

// Loader returns the loader created by Init, nil before Init ran or when
// the bundle is active.
func (s *Shim) Loader() *Loader {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loader
}

// Install attaches the shim to the plugins_loaded hook with priority 1 so
// it runs before plugins that expect the widgets to exist.
func Install(hooks *Hooks, s *Shim) {
	hooks.AddAction(PluginsLoaded, "siteorigin_legacy_widget_plugin_"+s.Meta.Slug+"_init", 1, func(ctx context.Context) error {
		_, err := s.Init(ctx)
		return err
	})
}
