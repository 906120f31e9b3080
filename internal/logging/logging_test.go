package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "", want: zapcore.InfoLevel},
		{in: "debug", want: zapcore.DebugLevel},
		{in: " WARN ", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "chatty", want: zapcore.InfoLevel, wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseLevel(%q): unexpected error state %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	logger, err := New("debug")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !logger.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level should be enabled")
	}
}

func TestObservedCapturesEntries(t *testing.T) {
	logger, logs := TestObserved(t, zapcore.WarnLevel)
	logger.Debugw("ignored")
	logger.Warnw("css cache sweep failed", "removed", 2)
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 observed entry, got %d", len(entries))
	}
	if entries[0].Message != "css cache sweep failed" {
		t.Fatalf("message: got %q", entries[0].Message)
	}
	if got := entries[0].ContextMap()["removed"]; got != int64(2) {
		t.Fatalf("removed field: got %#v", got)
	}
}

func TestNopDiscards(t *testing.T) {
	if Nop().Desugar().Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("nop logger should not enable any level")
	}
}
