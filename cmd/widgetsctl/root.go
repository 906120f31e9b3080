package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/goliatone/go-widgets/internal/config"
	"github.com/goliatone/go-widgets/internal/logging"
	"github.com/goliatone/go-widgets/pkg/csscache"
	"github.com/goliatone/go-widgets/pkg/filesystem"
	"github.com/goliatone/go-widgets/pkg/plugin"
	"github.com/goliatone/go-widgets/pkg/store"
	"github.com/goliatone/go-widgets/pkg/widget"
	"github.com/goliatone/go-widgets/widgets/slider"
)

// app is the runtime shared by every sub command.
type app struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
	env    *widget.Environment
	store  *store.Store
}

type appKey struct{}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configFile string

	root := &cobra.Command{
		Use:           "widgetsctl",
		Short:         "Render, edit and serve schema driven widgets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), v, configFile)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a := appFrom(cmd); a != nil {
				_ = a.logger.Sync()
				return a.store.Close()
			}
			return nil
		},
	}
	root.SetContext(context.Background())

	flags := root.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "widgets.yaml", "Configuration file")
	flags.StringP("database", "d", "", "Instance database file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Bool("debug", false, "Regenerate stylesheets on every render")
	bindFlag(v, "database", flags.Lookup("database"))
	bindFlag(v, "log_level", flags.Lookup("log-level"))
	bindFlag(v, "debug", flags.Lookup("debug"))

	root.AddCommand(
		newServeCmd(v),
		newListCmd(),
		newRenderCmd(),
		newFormCmd(),
		newUpdateCmd(),
		newPromptCmd(),
		newCacheCmd(),
	)
	return root
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	_ = v.BindPFlag(key, flag)
}

func newApp(ctx context.Context, v *viper.Viper, configFile string) (*app, error) {
	if err := config.ReadFile(v, configFile); err != nil {
		return nil, err
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	cache := csscache.New(filesystem.NewOS(), cfg.CacheDir(), cfg.CacheURL(),
		csscache.WithExpiry(cfg.Cache.Expiry),
		csscache.WithLogger(logger.Named("csscache")),
	)
	env, err := widget.NewEnvironment(
		widget.WithCache(cache),
		widget.WithAssetsURL(cfg.AssetsURL),
		widget.WithDebug(cfg.Debug),
		widget.WithThemeVariant(cfg.ThemeVariant),
		widget.WithLogger(logger.Named("widget")),
	)
	if err != nil {
		return nil, err
	}

	hooks := plugin.NewHooks()
	plugin.Install(hooks, &plugin.Shim{
		Meta: plugin.Metadata{
			Slug:           slider.Slug,
			File:           "widgets/slider",
			Implementation: "widgets/slider/slider.go",
			Version:        slider.Version,
		},
		Env:          env,
		Register:     slider.Register(),
		BundleActive: func() bool { return cfg.BundleActive },
		Logger:       logger.Named("plugin"),
	})
	if err := hooks.Do(ctx, plugin.PluginsLoaded); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, env: env, store: st}, nil
}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

// component resolves a placed widget by its id base.
func (a *app) component(idBase string) (widget.Component, error) {
	comp, err := a.env.Registry().Lookup(idBase)
	if err != nil {
		return nil, fmt.Errorf("widgetsctl: %w (registered: %v)", err, a.env.Registry().Classes())
	}
	return comp, nil
}
