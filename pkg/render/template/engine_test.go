package template_test

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-widgets/pkg/render/template"
	"github.com/goliatone/go-widgets/pkg/render/template/gotemplate"
	"github.com/goliatone/go-widgets/pkg/testsupport"
)

//go:embed testdata/templates/*.tmpl
var templateFiles embed.FS

func TestEngine_RendersGoldenTemplates(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		return strings.ToUpper(fmt.Sprint(input)) + "!", nil
	}); err != nil {
		t.Fatalf("register filter: %v", err)
	}

	cases := []struct {
		template string
		data     map[string]any
		golden   string
	}{
		{template: "hello", data: map[string]any{"name": "Ada"}, golden: "hello.golden"},
		{template: "use-global", golden: "use-global.golden"},
		{template: "use-filter", data: map[string]any{"name": "Ada"}, golden: "use-filter.golden"},
	}
	for _, tc := range cases {
		t.Run(tc.template, func(t *testing.T) {
			result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
				return engine.RenderTemplate(tc.template, tc.data, w)
			})
			want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", tc.golden))
			if result != want {
				t.Fatalf("result mismatch\nwant: %q\n got: %q", want, result)
			}
			if written != want {
				t.Fatalf("writer mismatch\nwant: %q\n got: %q", want, written)
			}
		})
	}
}

func TestEngine_RegisterFilterTwice(t *testing.T) {
	engine := newEngine(t)
	noop := func(input any, _ any) (any, error) { return input, nil }
	if err := engine.RegisterFilter("widgets_noop", noop); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := engine.RegisterFilter("widgets_noop", noop); err == nil {
		t.Fatalf("expected duplicate filter error")
	}
}

func TestEngine_WidgetFilters(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("widget", map[string]any{
		"id":    "hero banner!",
		"link":  "javascript:alert(1)",
		"title": "<b>Hi</b>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `<div class="so-widget-herobanner"><a href="">&lt;b&gt;Hi&lt;/b&gt;</a></div>`
	if result != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, result)
	}
}

func TestNew_ConcurrentEnginesShareFilters(t *testing.T) {
	const workers = 8
	results := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub, err := fs.Sub(templateFiles, "testdata/templates")
			if err != nil {
				errs[i] = err
				return
			}
			engine, err := gotemplate.New(gotemplate.WithFS(sub), gotemplate.WithSetName(fmt.Sprintf("worker-%d", i)))
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = engine.RenderTemplate("widget", map[string]any{"id": "a b", "link": "/x", "title": "t"})
		}(i)
	}
	wg.Wait()

	want := `<div class="so-widget-ab"><a href="/x">t</a></div>`
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if results[i] != want {
			t.Fatalf("worker %d mismatch\nwant: %q\n got: %q", i, want, results[i])
		}
	}
}

func TestEngine_MissingTemplate(t *testing.T) {
	_, err := newEngine(t).RenderTemplate("nope", nil)
	if !errors.Is(err, gotemplate.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestNew_RequiresFS(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without template fs")
	}
}

func TestHTMLClass(t *testing.T) {
	cases := map[string]string{
		"frames":        "frames",
		"controls][nav": "controlsnav",
		"a%20b":         "ab",
		"Ünïcode-ok_1":  "ncode-ok_1",
	}
	for in, want := range cases {
		if got := gotemplate.HTMLClass(in); got != want {
			t.Fatalf("HTMLClass(%q): expected %q, got %q", in, want, got)
		}
	}
}

func newEngine(t *testing.T) template.TemplateRenderer {
	t.Helper()

	sub, err := fs.Sub(templateFiles, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	engine, err := gotemplate.New(gotemplate.WithFS(sub), gotemplate.WithSetName("test"))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
