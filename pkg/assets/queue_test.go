package assets

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestQueue_DeduplicatesByHandle(t *testing.T) {
	q := New()
	if !q.EnqueueStyle(Style{Handle: "slider-default-abc", Src: "/uploads/a.css"}) {
		t.Fatalf("expected first enqueue to succeed")
	}
	if q.EnqueueStyle(Style{Handle: "slider-default-abc", Src: "/uploads/other.css"}) {
		t.Fatalf("expected duplicate handle to be ignored")
	}
	q.EnqueueScript(Script{Handle: "admin", Src: "/admin.js", InFooter: true})
	q.EnqueueScript(Script{Handle: "admin", Src: "/admin.js"})
	q.AddInlineCSS(".a{color:red}")
	q.AddInlineCSS(" .a{color:red} ")
	q.AddInlineCSS("")

	if got := len(q.Styles()); got != 1 {
		t.Fatalf("expected 1 style, got %d", got)
	}
	if got := len(q.Scripts()); got != 1 {
		t.Fatalf("expected 1 script, got %d", got)
	}
	if diff := cmp.Diff([]string{".a{color:red}"}, q.InlineCSS()); diff != "" {
		t.Fatalf("inline css mismatch (-want +got):\n%s", diff)
	}
	if !q.ScriptQueued("admin") {
		t.Fatalf("expected admin script to be queued")
	}
}

func TestQueue_WriteHeadAndFooter(t *testing.T) {
	q := New()
	q.EnqueueStyle(Style{Handle: "admin", Src: "/base/css/admin.css", Version: "1.1"})
	q.AddInlineCSS(".so-widget-x{color:#fff}")
	q.EnqueueScript(Script{Handle: "admin", Src: "/base/js/admin.min.js?x=1", Version: "1.1", InFooter: true})
	if err := q.Localize("admin", "soWidgets", map[string]string{"sure": "Are you sure?"}); err != nil {
		t.Fatalf("localize: %v", err)
	}
	if err := q.Localize("missing", "x", nil); err == nil {
		t.Fatalf("expected error for unknown handle")
	}

	var head bytes.Buffer
	if err := q.WriteHead(&head); err != nil {
		t.Fatalf("write head: %v", err)
	}
	wantHead := "<link rel=\"stylesheet\" id=\"admin-css\" href=\"/base/css/admin.css?ver=1.1\" media=\"all\" />\n" +
		"<style type=\"text/css\">\n.so-widget-x{color:#fff}\n</style>\n"
	if diff := cmp.Diff(wantHead, head.String()); diff != "" {
		t.Fatalf("head mismatch (-want +got):\n%s", diff)
	}

	var footer bytes.Buffer
	if err := q.WriteFooter(&footer); err != nil {
		t.Fatalf("write footer: %v", err)
	}
	wantFooter := "<script type=\"text/javascript\">var soWidgets = {\"sure\":\"Are you sure?\"};</script>\n" +
		"<script type=\"text/javascript\" id=\"admin-js\" src=\"/base/js/admin.min.js?x=1&amp;ver=1.1\"></script>\n"
	if diff := cmp.Diff(wantFooter, footer.String()); diff != "" {
		t.Fatalf("footer mismatch (-want +got):\n%s", diff)
	}
}
