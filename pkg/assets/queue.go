// Package assets collects the stylesheets, scripts and inline CSS a request
// needs and prints them once, in enqueue order.
package assets

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"slices"
	"strings"
	"sync"
)

// Style is a linked stylesheet.
type Style struct {
	Handle  string
	Src     string
	Version string
	Deps    []string
}

// Script is an external or inline script. Localizations are printed as
// `var Object = {...};` before the script tag.
type Script struct {
	Handle        string
	Src           string
	Version       string
	Deps          []string
	InFooter      bool
	Localizations []Localization
}

// Localization exposes server data to a script under a global name.
type Localization struct {
	Object string
	Data   any
}

// Queue deduplicates assets by handle. It is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	styles  []Style
	scripts []Script
	inline  []string
	seen    map[string]struct{}
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{seen: make(map[string]struct{})}
}

// EnqueueStyle adds s unless a style with the same handle (or source, when
// the handle is empty) is already queued. It reports whether s was added.
func (q *Queue) EnqueueStyle(s Style) bool {
	key := "style:" + assetKey(s.Handle, s.Src)
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.seen[key]; exists {
		return false
	}
	q.seen[key] = struct{}{}
	s.Deps = slices.Clone(s.Deps)
	q.styles = append(q.styles, s)
	return true
}

// EnqueueScript adds s unless a script with the same handle is queued.
func (q *Queue) EnqueueScript(s Script) bool {
	key := "script:" + assetKey(s.Handle, s.Src)
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.seen[key]; exists {
		return false
	}
	q.seen[key] = struct{}{}
	s.Deps = slices.Clone(s.Deps)
	s.Localizations = slices.Clone(s.Localizations)
	q.scripts = append(q.scripts, s)
	return true
}

// ScriptQueued reports whether a script handle is already enqueued.
func (q *Queue) ScriptQueued(handle string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.seen["script:"+assetKey(handle, "")]
	return ok
}

// Localize attaches data to an enqueued script.
func (q *Queue) Localize(handle, object string, data any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for idx := range q.scripts {
		if q.scripts[idx].Handle == handle {
			q.scripts[idx].Localizations = append(q.scripts[idx].Localizations, Localization{Object: object, Data: data})
			return nil
		}
	}
	return fmt.Errorf("assets: script %q is not enqueued", handle)
}

// AddInlineCSS queues a CSS block printed inside a <style> element. Identical
// blocks are printed once.
func (q *Queue) AddInlineCSS(css string) {
	css = strings.TrimSpace(css)
	if css == "" {
		return
	}
	key := "inline:" + css
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.seen[key]; exists {
		return
	}
	q.seen[key] = struct{}{}
	q.inline = append(q.inline, css)
}

// Styles returns the queued stylesheets.
func (q *Queue) Styles() []Style {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.styles)
}

// Scripts returns the queued scripts.
func (q *Queue) Scripts() []Script {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.scripts)
}

// InlineCSS returns the queued inline CSS blocks.
func (q *Queue) InlineCSS() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.inline)
}

// WriteHead prints stylesheet links, inline CSS and header scripts. Handles
// without a source belong to the host and are only tracked.
func (q *Queue) WriteHead(w io.Writer) error {
	for _, style := range q.Styles() {
		if style.Src == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "<link rel=\"stylesheet\" id=\"%s-css\" href=\"%s\" media=\"all\" />\n",
			html.EscapeString(style.Handle), html.EscapeString(versioned(style.Src, style.Version))); err != nil {
			return err
		}
	}
	if inline := q.InlineCSS(); len(inline) > 0 {
		if _, err := fmt.Fprintf(w, "<style type=\"text/css\">\n%s\n</style>\n", strings.Join(inline, "\n")); err != nil {
			return err
		}
	}
	return q.writeScripts(w, false)
}

// WriteFooter prints scripts queued for the page footer.
func (q *Queue) WriteFooter(w io.Writer) error {
	return q.writeScripts(w, true)
}

func (q *Queue) writeScripts(w io.Writer, footer bool) error {
	for _, script := range q.Scripts() {
		if script.InFooter != footer {
			continue
		}
		for _, loc := range script.Localizations {
			payload, err := json.Marshal(loc.Data)
			if err != nil {
				return fmt.Errorf("assets: localize %s: %w", loc.Object, err)
			}
			if _, err := fmt.Fprintf(w, "<script type=\"text/javascript\">var %s = %s;</script>\n", loc.Object, payload); err != nil {
				return err
			}
		}
		if script.Src == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "<script type=\"text/javascript\" id=\"%s-js\" src=\"%s\"></script>\n",
			html.EscapeString(script.Handle), html.EscapeString(versioned(script.Src, script.Version))); err != nil {
			return err
		}
	}
	return nil
}

func versioned(src, version string) string {
	if version == "" || src == "" {
		return src
	}
	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}
	return src + sep + "ver=" + version
}

func assetKey(handle, src string) string {
	if handle = strings.TrimSpace(handle); handle != "" {
		return handle
	}
	return "src:" + src
}
