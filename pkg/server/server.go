// Package server is a small HTTP host for placed widgets: it renders widget
// output and admin forms, accepts form submissions and serves the compiled
// stylesheet cache.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-widgets/pkg/render"
	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/schema"
	"github.com/goliatone/go-widgets/pkg/store"
	"github.com/goliatone/go-widgets/pkg/widget"
)

// DefaultArgs wraps rendered widgets the way a plain sidebar does.
var DefaultArgs = widget.Args{
	BeforeWidget: `<aside class="widget">`,
	AfterWidget:  `</aside>`,
	BeforeTitle:  `<h3 class="widget-title">`,
	AfterTitle:   `</h3>`,
}

// Server routes widget requests to the environment registry and persists
// instances in the store.
type Server struct {
	env        *widget.Environment
	store      *store.Store
	engine     *gin.Engine
	uploadsDir string
	uploadsURL string
	args       widget.Args
	logger     *zap.SugaredLogger
}

// Option configures a Server.
type Option func(*Server)

// WithUploads serves dir under urlPath, which exposes cached stylesheets.
func WithUploads(dir, urlPath string) Option {
	return func(s *Server) {
		s.uploadsDir = dir
		s.uploadsURL = urlPath
	}
}

// WithArgs overrides the sidebar markup wrapped around rendered widgets.
func WithArgs(args widget.Args) Option {
	return func(s *Server) {
		s.args = args
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds the router.
func New(env *widget.Environment, st *store.Store, opts ...Option) (*Server, error) {
	if env == nil {
		return nil, errors.New("server: environment is required")
	}
	if st == nil {
		return nil, errors.New("server: store is required")
	}
	s := &Server{
		env:    env,
		store:  st,
		args:   DefaultArgs,
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.GET("/widgets", s.listWidgets)
	engine.GET("/widgets/:id/:number", s.renderWidget)
	engine.GET("/widgets/:id/:number/form", s.renderForm)
	engine.POST("/widgets/:id/:number", s.updateWidget)
	engine.DELETE("/widgets/:id/:number", s.deleteWidget)
	engine.DELETE("/css", s.clearCSS)
	if s.uploadsDir != "" && s.uploadsURL != "" {
		engine.Static(s.uploadsURL, s.uploadsDir)
	}
	s.engine = engine
	return s, nil
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("widgets host listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

type widgetInfo struct {
	Class  string `json:"class"`
	IDBase string `json:"id_base"`
}

func (s *Server) listWidgets(c *gin.Context) {
	registry := s.env.Registry()
	out := make([]widgetInfo, 0)
	for _, class := range registry.Classes() {
		comp, err := registry.Resolve(class)
		if err != nil {
			s.logger.Warnw("widget class failed to resolve", "class", class, "error", err)
			continue
		}
		out = append(out, widgetInfo{Class: class, IDBase: comp.IDBase()})
	}
	RespondSuccess(c, out)
}

// component resolves the :id parameter, answering 404 itself when unknown.
func (s *Server) component(c *gin.Context) (widget.Component, bool) {
	comp, err := s.env.Registry().Lookup(c.Param("id"))
	if errors.Is(err, widget.ErrUnknownClass) {
		RespondError(c, http.StatusNotFound, "Unknown widget: "+c.Param("id"))
		return nil, false
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to load widget: "+err.Error())
		return nil, false
	}
	return comp, true
}

// instance loads the stored instance; an unsaved instance is empty.
func (s *Server) instance(c *gin.Context, idBase string) (schema.Instance, bool) {
	inst, err := s.store.Load(c.Request.Context(), idBase, c.Param("number"))
	if errors.Is(err, store.ErrNotFound) {
		return schema.Instance{}, true
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to load instance: "+err.Error())
		return nil, false
	}
	return inst, true
}

func (s *Server) renderWidget(c *gin.Context) {
	comp, ok := s.component(c)
	if !ok {
		return
	}
	inst, ok := s.instance(c, comp.IDBase())
	if !ok {
		return
	}
	if c.Query("preview") != "" {
		inst[widget.PreviewKey] = true
	}
	scope := request.NewScope()
	ctx := request.WithScope(c.Request.Context(), scope)

	var body bytes.Buffer
	if err := comp.Widget(ctx, scope, &body, s.args, inst); err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to render widget: "+err.Error())
		return
	}
	s.writePage(c, scope, comp.IDBase(), body.Bytes())
}

func (s *Server) renderForm(c *gin.Context) {
	comp, ok := s.component(c)
	if !ok {
		return
	}
	inst, ok := s.instance(c, comp.IDBase())
	if !ok {
		return
	}
	scope := request.NewScope()
	ctx := request.WithScope(c.Request.Context(), scope)

	var body bytes.Buffer
	fmt.Fprintf(&body, `<form method="post" action="%s">`, html.EscapeString(strings.TrimSuffix(c.Request.URL.Path, "/form")))
	if err := comp.Form(ctx, scope, &body, c.Param("number"), inst); err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to render form: "+err.Error())
		return
	}
	body.WriteString(`<button type="submit">Save</button></form>`)
	s.writePage(c, scope, comp.IDBase(), body.Bytes())
}

func (s *Server) writePage(c *gin.Context, scope *request.Scope, title string, body []byte) {
	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title>\n", html.EscapeString(title))
	if err := scope.Assets().WriteHead(&page); err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to write assets: "+err.Error())
		return
	}
	page.WriteString("</head><body>\n")
	page.Write(body)
	if err := scope.Assets().WriteFooter(&page); err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to write assets: "+err.Error())
		return
	}
	page.WriteString("</body></html>\n")
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

func (s *Server) updateWidget(c *gin.Context) {
	comp, ok := s.component(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}
	namer := render.Namer{IDBase: comp.IDBase(), Number: c.Param("number")}
	submitted, err := schema.DecodeForm(c.Request.PostForm, namer.Prefix())
	if err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}
	old, ok := s.instance(c, comp.IDBase())
	if !ok {
		return
	}
	ctx := c.Request.Context()
	updated, err := comp.Update(ctx, submitted, old)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to update widget: "+err.Error())
		return
	}
	if err := s.store.Save(ctx, comp.IDBase(), namer.Number, updated); err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to save instance: "+err.Error())
		return
	}
	RespondSuccess(c, updated)
}

func (s *Server) deleteWidget(c *gin.Context) {
	comp, ok := s.component(c)
	if !ok {
		return
	}
	err := s.store.Delete(c.Request.Context(), comp.IDBase(), c.Param("number"))
	if errors.Is(err, store.ErrNotFound) {
		RespondError(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to delete instance: "+err.Error())
		return
	}
	RespondSuccess(c, nil)
}

func (s *Server) clearCSS(c *gin.Context) {
	cache := s.env.Cache()
	if cache == nil {
		RespondError(c, http.StatusServiceUnavailable, "Stylesheet cache is disabled")
		return
	}
	removed, err := cache.Clear()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to clear cache: "+err.Error())
		return
	}
	RespondSuccess(c, gin.H{"removed": removed})
}
