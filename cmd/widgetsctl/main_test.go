package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	base := []string{
		"--config", filepath.Join(dir, "widgets.yaml"),
		"--database", filepath.Join(dir, "widgets.db"),
		"--log-level", "error",
	}
	cmd.SetArgs(append(args, base...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("widgetsctl %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestCLI_UpdateRenderClear(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WIDGETS_UPLOADS_DIR", filepath.Join(dir, "uploads"))

	listed := runCLI(t, dir, "list")
	if !strings.Contains(listed, "sow-slider\tSiteOrigin_Widget_Slider_Widget") {
		t.Fatalf("unexpected list output:\n%s", listed)
	}

	updated := runCLI(t, dir, "update", "sow-slider", "4", "--set", "speed=650ms")
	if !strings.Contains(updated, `"speed": 650`) {
		t.Fatalf("unexpected update output:\n%s", updated)
	}

	rendered := runCLI(t, dir, "render", "sow-slider", "4")
	for _, fragment := range []string{
		`<link rel="stylesheet" id="sow-slider-default-`,
		`<div class="so-widget-sow-slider so-widget-sow-slider-default-`,
	} {
		if !strings.Contains(rendered, fragment) {
			t.Fatalf("expected %s in:\n%s", fragment, rendered)
		}
	}

	cleared := runCLI(t, dir, "cache", "clear")
	if !strings.HasPrefix(cleared, "removed 1 stylesheet(s)") {
		t.Fatalf("unexpected clear output:\n%s", cleared)
	}
}

func TestCLI_FormPreview(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WIDGETS_UPLOADS_DIR", filepath.Join(dir, "uploads"))

	form := runCLI(t, dir, "form", "sow-slider", "7")
	if !strings.Contains(form, `name="widget-sow-slider[7][speed]"`) {
		t.Fatalf("form output missing speed input:\n%s", form)
	}
	preview := runCLI(t, dir, "render", "sow-slider", "7", "--preview")
	if !strings.Contains(preview, `<style type="text/css">`) {
		t.Fatalf("preview output should inline css:\n%s", preview)
	}
}
