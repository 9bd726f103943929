package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"mojifix/internal/repair"
)

func TestScanWithUIReplaysOutput(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "a.md")
	writeFile(t, broken, "用户�?")
	writeFile(t, filepath.Join(dir, "b.md"), "ok")
	writeFile(t, filepath.Join(dir, "sub", "c.md"), "访�?")

	var out bytes.Buffer
	summary, err := runScanWithUI(context.Background(), &out, dir, repair.Options{}, tea.WithInput(nil))
	if err != nil {
		t.Fatalf("runScanWithUI: %v", err)
	}
	if summary.Scanned != 3 || summary.Fixed != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if !strings.Contains(out.String(), "Fixed encoding issues in: "+broken) {
		t.Errorf("held output not replayed:\n%s", out.String())
	}
	if got := readFile(t, broken); got != "用户名" {
		t.Errorf("content = %q", got)
	}
}

func TestScanWithUICancelledDrainsEvents(t *testing.T) {
	dir := t.TempDir()
	// more files than the event buffer holds
	for i := 0; i < 300; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("f%03d.md", i)), "ok")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	summary, err := runScanWithUI(ctx, &out, dir, repair.Options{}, tea.WithInput(nil))
	if err == nil {
		t.Fatal("expected an error from a cancelled scan")
	}
	if summary.Scanned != 0 {
		t.Errorf("scanned %d files after cancellation", summary.Scanned)
	}
}
