package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-widgets/pkg/renderers/tui"
	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/schema"
	"github.com/goliatone/go-widgets/pkg/server"
	"github.com/goliatone/go-widgets/pkg/store"
	"github.com/goliatone/go-widgets/pkg/widget"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve widgets, admin forms and the stylesheet cache over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			srv, err := server.New(a.env, a.store,
				server.WithUploads(a.cfg.Uploads.Dir, a.cfg.Uploads.URL),
				server.WithLogger(a.logger.Named("server")),
			)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, a.cfg.Listen)
		},
	}
	cmd.Flags().StringP("listen", "l", "", "Listen address")
	bindFlag(v, "listen", cmd.Flags().Lookup("listen"))
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered widget classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			out := cmd.OutOrStdout()
			for _, class := range a.env.Registry().Classes() {
				comp, err := a.env.Registry().Resolve(class)
				if err != nil {
					fmt.Fprintf(out, "%s\t(error: %v)\n", class, err)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", comp.IDBase(), class)
			}
			return nil
		},
	}
}

func newRenderCmd() *cobra.Command {
	var preview bool
	cmd := &cobra.Command{
		Use:   "render <id-base> <number>",
		Short: "Render a stored widget instance with its assets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.component(args[0])
			if err != nil {
				return err
			}
			inst, err := a.load(cmd.Context(), comp.IDBase(), args[1])
			if err != nil {
				return err
			}
			if preview {
				inst[widget.PreviewKey] = true
			}
			return writePage(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, scope *request.Scope, w io.Writer) error {
				return comp.Widget(ctx, scope, w, server.DefaultArgs, inst)
			})
		},
	}
	cmd.Flags().BoolVar(&preview, "preview", false, "Inline the stylesheet instead of using the cache")
	return cmd
}

func newFormCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "form <id-base> <number>",
		Short: "Render the admin form of a widget instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.component(args[0])
			if err != nil {
				return err
			}
			inst, err := a.load(cmd.Context(), comp.IDBase(), args[1])
			if err != nil {
				return err
			}
			return writePage(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, scope *request.Scope, w io.Writer) error {
				return comp.Form(ctx, scope, w, args[1], inst)
			})
		},
	}
}

func newUpdateCmd() *cobra.Command {
	var file string
	var sets []string
	cmd := &cobra.Command{
		Use:   "update <id-base> <number>",
		Short: "Sanitize and store a widget instance from a YAML/JSON file or key=value pairs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.component(args[0])
			if err != nil {
				return err
			}
			submitted := schema.Instance{}
			if file != "" {
				submitted, err = readInstance(file)
				if err != nil {
					return err
				}
			}
			for _, pair := range sets {
				key, value, ok := strings.Cut(pair, "=")
				if !ok || key == "" {
					return fmt.Errorf("widgetsctl: --set expects key=value, got %q", pair)
				}
				submitted[key] = value
			}
			return a.update(cmd, comp, args[1], submitted)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Instance document (YAML or JSON, - for stdin)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Top level field value as key=value (repeatable)")
	return cmd
}

func newPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt <id-base> <number>",
		Short: "Edit a widget instance interactively",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.component(args[0])
			if err != nil {
				return err
			}
			current, err := a.load(cmd.Context(), comp.IDBase(), args[1])
			if err != nil {
				return err
			}
			prompter := tui.New(
				tui.WithSubWidgetForms(a.env.Registry()),
				tui.WithLogger(a.logger.Named("tui")),
				tui.WithTheme(tui.Theme{SectionPrefix: "» ", RowPrefix: "  "}),
			)
			submitted, err := prompter.Fill(cmd.Context(), comp.FormSchema(), current)
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "aborted, nothing saved")
				return nil
			}
			if err != nil {
				return err
			}
			return a.update(cmd, comp, args[1], submitted)
		},
	}
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the compiled stylesheet cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached stylesheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			removed, err := a.env.Cache().Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d stylesheet(s) from %s\n", removed, a.env.Cache().Dir())
			return nil
		},
	})
	return cmd
}

// load returns the stored instance, empty when none was saved yet.
func (a *app) load(ctx context.Context, idBase, number string) (schema.Instance, error) {
	inst, err := a.store.Load(ctx, idBase, number)
	if errors.Is(err, store.ErrNotFound) {
		return schema.Instance{}, nil
	}
	return inst, err
}

func (a *app) update(cmd *cobra.Command, comp widget.Component, number string, submitted schema.Instance) error {
	ctx := cmd.Context()
	old, err := a.load(ctx, comp.IDBase(), number)
	if err != nil {
		return err
	}
	updated, err := comp.Update(ctx, submitted, old)
	if err != nil {
		return err
	}
	if err := a.store.Save(ctx, comp.IDBase(), number, updated); err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(updated)
}

func writePage(ctx context.Context, out io.Writer, body func(context.Context, *request.Scope, io.Writer) error) error {
	scope := request.NewScope()
	ctx = request.WithScope(ctx, scope)
	var buf bytes.Buffer
	if err := body(ctx, scope, &buf); err != nil {
		return err
	}
	if err := scope.Assets().WriteHead(out); err != nil {
		return err
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		return err
	}
	if _, err := io.WriteString(out, "\n"); err != nil {
		return err
	}
	return scope.Assets().WriteFooter(out)
}

func readInstance(path string) (schema.Instance, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("widgetsctl: read %s: %w", path, err)
	}
	inst := schema.Instance{}
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("widgetsctl: decode %s: %w", path, err)
	}
	return inst, nil
}
