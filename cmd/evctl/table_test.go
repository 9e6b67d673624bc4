package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Stage", "Count"}, [][]string{{"Estimate", "3"}, {"Completed"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"Stage", "Count", "Estimate", "Completed", "╭"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatalf("expected empty output without headers")
	}
}

func TestFormatWhen(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := formatWhen(ts, false); got != "2026-03-01T12:00:00Z" {
		t.Fatalf("absolute = %q", got)
	}
	if got := formatWhen(time.Now().Add(-2*time.Hour), true); got != "2 hours ago" {
		t.Fatalf("relative = %q", got)
	}
	if got := formatWhenPtr(nil, true); got != "-" {
		t.Fatalf("nil = %q", got)
	}
}

func TestInteractive_NonFile(t *testing.T) {
	if interactive(&bytes.Buffer{}) {
		t.Fatalf("buffer must not be a terminal")
	}
}

func TestSchemaPrint(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"schema", "print"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "CREATE TABLE") {
		t.Fatalf("schema output missing DDL")
	}
}
