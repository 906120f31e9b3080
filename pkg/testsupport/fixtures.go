// Package testsupport holds fixture helpers shared by package tests.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/goliatone/go-widgets/pkg/schema"
)

// LoadSchema decodes the widget form schema at path, failing the test on
// any error.
func LoadSchema(t testing.TB, path string) schema.Schema {
	t.Helper()

	s, err := schema.Decode(readFile(t, path))
	if err != nil {
		t.Fatalf("decode schema %s: %v", path, err)
	}
	return s
}

// MustReadGoldenString returns the contents of a golden file.
func MustReadGoldenString(t testing.TB, path string) string {
	t.Helper()
	return string(readFile(t, path))
}

// Context returns the context used by fixture driven tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput runs render against a buffer and returns both the
// returned string and what was written, so callers can check they agree.
func CaptureTemplateOutput(t testing.TB, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}

func readFile(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}
