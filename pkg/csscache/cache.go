// Package csscache stores compiled widget stylesheets on disk, keyed by
// their content-addressed name, and expires them in bulk.
package csscache

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-widgets/pkg/filesystem"
	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/transient"
)

const (
	// DirName is the cache directory created under the uploads root.
	DirName = "siteorigin-widgets"
	// ClearedKey marks a recent sweep in the transient store.
	ClearedKey = "sow:cleared"
	// DefaultExpiry is the age after which cached files are swept.
	DefaultExpiry = 7 * 24 * time.Hour

	sweepGuard = "csscache:sweep"
)

// Cache manages the stylesheet directory.
type Cache struct {
	fs         filesystem.FS
	dir        string
	baseURL    string
	transients transient.Store
	expiry     time.Duration
	now        func() time.Time
	logger     *zap.SugaredLogger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTransients sets the store holding the sweep marker. The default is a
// process-local go-cache store.
func WithTransients(store transient.Store) Option {
	return func(c *Cache) {
		if store != nil {
			c.transients = store
		}
	}
}

// WithExpiry overrides the sweep age and marker lifetime.
func WithExpiry(expiry time.Duration) Option {
	return func(c *Cache) {
		if expiry > 0 {
			c.expiry = expiry
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger for sweep diagnostics.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a cache writing into dir and serving files under baseURL.
func New(fsys filesystem.FS, dir, baseURL string, opts ...Option) *Cache {
	c := &Cache{
		fs:      fsys,
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		expiry:  DefaultExpiry,
		now:     time.Now,
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.transients == nil {
		c.transients = transient.New(c.expiry, time.Hour)
	}
	return c
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the file path of the stylesheet named name.
func (c *Cache) Path(name string) string {
	return filepath.Join(c.dir, name+".css")
}

// URL returns the public URL of the stylesheet named name.
func (c *Cache) URL(name string) string {
	return c.baseURL + "/" + name + ".css"
}

// Exists reports whether the stylesheet is cached.
func (c *Cache) Exists(name string) bool {
	return filesystem.Exists(c.fs, c.Path(name))
}

// Read returns a cached stylesheet.
func (c *Cache) Read(name string) (string, error) {
	data, err := c.fs.ReadFile(c.Path(name))
	if err != nil {
		return "", fmt.Errorf("csscache: read %s: %w", name, err)
	}
	return string(data), nil
}

// Save writes css under name, creating the directory when needed. Empty
// stylesheets are not written.
func (c *Cache) Save(name, css string) error {
	if _, err := c.fs.Stat(c.dir); err != nil {
		if !filesystem.IsNotExist(err) {
			return fmt.Errorf("csscache: stat %s: %w", c.dir, err)
		}
		if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
			return fmt.Errorf("csscache: create %s: %w", c.dir, err)
		}
	}
	if css == "" {
		return nil
	}
	path := c.Path(name)
	if err := c.fs.Remove(path); err != nil && !filesystem.IsNotExist(err) {
		return fmt.Errorf("csscache: replace %s: %w", name, err)
	}
	if err := c.fs.WriteFile(path, []byte(css), 0o644); err != nil {
		return fmt.Errorf("csscache: write %s: %w", name, err)
	}
	return nil
}

// Sweep deletes stylesheets older than the expiry, or every stylesheet when
// force is set. Unforced sweeps run at most once per request scope and are
// skipped while the transient marker from an earlier sweep is alive. It
// returns the number of files removed.
func (c *Cache) Sweep(scope *request.Scope, force bool) (int, error) {
	if !force {
		if scope != nil && !scope.Once(sweepGuard) {
			return 0, nil
		}
		if _, recent := c.transients.Get(ClearedKey); recent {
			return 0, nil
		}
	}

	now := c.now()
	removed, err := c.sweep(now, force)
	c.transients.Set(ClearedKey, now.Unix(), c.expiry)
	if removed > 0 {
		c.logger.Debugw("swept css cache", "dir", c.dir, "removed", removed, "forced", force)
	}
	return removed, err
}

// Clear removes every cached stylesheet regardless of age or marker.
func (c *Cache) Clear() (int, error) {
	return c.Sweep(nil, true)
}

func (c *Cache) sweep(now time.Time, force bool) (int, error) {
	entries, err := c.fs.ReadDir(c.dir)
	if err != nil {
		if filesystem.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("csscache: list %s: %w", c.dir, err)
	}
	cutoff := now.Add(-c.expiry)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		if !force && !entry.ModTime.Before(cutoff) {
			continue
		}
		if err := c.fs.Remove(entry.Path); err != nil && !filesystem.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("csscache: remove %s: %w", entry.Name, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
