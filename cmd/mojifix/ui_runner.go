package main

import (
	"bytes"
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"mojifix/internal/repair"
	"mojifix/internal/ui"
)

type scanOutcome struct {
	summary repair.Summary
	err     error
}

// runScanWithUI runs the scan on a worker goroutine while a Bubble Tea view
// renders its events. Per-file messages are held back and replayed to out
// once the view has exited so they do not tear the frame.
func runScanWithUI(ctx context.Context, out io.Writer, dir string, opts repair.Options, extra ...tea.ProgramOption) (repair.Summary, error) {
	var held bytes.Buffer
	events := make(chan repair.Event, 256)
	outcomeCh := make(chan scanOutcome, 1)

	opts.Out = &held
	opts.Progress = repair.ChannelSink{Ch: events}
	r := repair.New(opts)
	files := r.ListFiles(dir)

	go func() {
		summary, err := r.ScanFiles(ctx, dir, files)
		outcomeCh <- scanOutcome{summary: summary, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("Scanning "+dir, files, events)
	programOpts := append([]tea.ProgramOption{tea.WithOutput(out), tea.WithContext(ctx)}, extra...)
	program := tea.NewProgram(model, programOpts...)
	_, uiErr := program.Run()
	// the view may quit early; keep draining so the scan never blocks
	for range events {
	}
	outcome := <-outcomeCh

	_, _ = io.Copy(out, &held)
	if uiErr != nil {
		return outcome.summary, uiErr
	}
	return outcome.summary, outcome.err
}
