package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mojifix/internal/observ"
	"mojifix/internal/repair"
	"mojifix/internal/trace"
)

func runRepair(cmd *cobra.Command, args []string) error {
	target := args[0]

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	timer := observ.NewTimer()

	info, statErr := os.Stat(target)
	if statErr != nil || (!info.IsDir() && !info.Mode().IsRegular()) {
		return invalidTarget(target)
	}

	phase := timer.Begin("config")
	settings, err := readSettings(cmd, target)
	if err != nil {
		if !info.IsDir() && !strings.HasSuffix(target, requestedExt(cmd)) {
			return invalidTarget(target)
		}
		return err
	}
	timer.End(phase, settings.configPath)

	if !info.IsDir() && !strings.HasSuffix(target, settings.ext) {
		return invalidTarget(target)
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "mojifix", 0)
	span.WithExtra("target", target)
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})

	// JSON keeps stdout for the payload alone
	out := cmd.OutOrStdout()
	logOut := out
	if settings.format == "json" {
		logOut = cmd.ErrOrStderr()
	}

	opts := repair.Options{
		Extension:  settings.ext,
		Candidates: settings.candidates,
		Rules:      &settings.rules,
		DryRun:     settings.dryRun,
		Quiet:      settings.quiet,
		Out:        logOut,
	}

	var summary repair.Summary
	phase = timer.Begin("repair")
	if info.IsDir() {
		summary, err = runScan(ctx, logOut, target, opts, settings)
	} else {
		summary = runSingle(ctx, logOut, target, opts, settings)
	}
	timer.End(phase, fmt.Sprintf("%d/%d fixed", summary.Fixed, summary.Scanned))
	span.End(fmt.Sprintf("%d/%d fixed", summary.Fixed, summary.Scanned))
	if err != nil {
		return err
	}

	if settings.format == "json" {
		var report *observ.Report
		if showTimings {
			r := timer.Report()
			report = &r
		}
		return writeSummaryJSON(out, summary, settings.dryRun, report)
	}
	if info.IsDir() {
		printSummary(out, summary, settings.dryRun)
	}
	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

// requestedExt is the extension in force before any config file is read.
func requestedExt(cmd *cobra.Command) string {
	if ext, err := cmd.Flags().GetString("ext"); err == nil && cmd.Flags().Changed("ext") {
		return ext
	}
	return repair.DefaultExtension
}

func invalidTarget(target string) error {
	return fmt.Errorf("%s is not a valid directory or markdown file.", target)
}

func runScan(ctx context.Context, out io.Writer, dir string, opts repair.Options, settings *runSettings) (repair.Summary, error) {
	if !settings.quiet {
		fmt.Fprintf(out, "Scanning directory: %s\n", dir)
	}
	if shouldUseTUI(settings.ui) {
		return runScanWithUI(ctx, out, dir, opts)
	}
	return repair.New(opts).Scan(ctx, dir)
}

func runSingle(ctx context.Context, out io.Writer, path string, opts repair.Options, settings *runSettings) repair.Summary {
	if !settings.quiet {
		fmt.Fprintf(out, "Processing file: %s\n", path)
	}
	r := repair.New(opts)
	res := r.Repair(ctx, path)
	summary := repair.Summary{Root: path, Scanned: 1, Results: []repair.Result{res}}
	if res.Changed {
		summary.Fixed = 1
		fmt.Fprintln(out, r.FixedLine(path))
	} else {
		fmt.Fprintf(out, "No encoding issues found or could not fix: %s\n", path)
	}
	return summary
}

func printSummary(out io.Writer, summary repair.Summary, dryRun bool) {
	fixedLabel := "Files with fixed encoding"
	if dryRun {
		fixedLabel = "Files that would be fixed"
	}
	fmt.Fprintf(out, "\n%s\n", color.New(color.Bold).Sprint("Summary:"))
	fmt.Fprintf(out, "Total files scanned: %d\n", summary.Scanned)
	fmt.Fprintf(out, "%s: %d\n", fixedLabel, summary.Fixed)
}
