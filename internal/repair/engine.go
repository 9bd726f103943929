// Package repair rewrites markdown files whose text was mangled by a lossy
// decode. Files are handled one at a time: decode with the first candidate
// encoding that accepts the bytes, run the substitution tables, and write the
// result back as UTF-8 when anything changed.
package repair

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mojifix/internal/charset"
	"mojifix/internal/trace"
)

// DefaultExtension is the suffix a file name must carry to be repaired.
const DefaultExtension = ".md"

// Options configures a Repairer. Zero values fall back to the defaults.
type Options struct {
	Extension  string
	Candidates charset.Candidates
	Rules      *RuleSet
	// DryRun reports what would change without writing.
	DryRun bool
	// Quiet suppresses the per-file "fixed" lines during Scan.
	Quiet bool
	// Out receives per-file messages. Defaults to os.Stdout.
	Out      io.Writer
	Progress Sink
}

// Result describes what happened to a single file.
type Result struct {
	Path     string
	Encoding string
	Changed  bool
	Err      error
}

// Summary aggregates a directory scan.
type Summary struct {
	Root    string
	Scanned int
	Fixed   int
	Results []Result
}

// Repairer applies a rule set to files.
type Repairer struct {
	ext    string
	cands  charset.Candidates
	rules  RuleSet
	dryRun bool
	quiet  bool
	out    io.Writer
	sink   Sink
}

// New builds a Repairer from opts.
func New(opts Options) *Repairer {
	r := &Repairer{
		ext:    opts.Extension,
		cands:  opts.Candidates,
		dryRun: opts.DryRun,
		quiet:  opts.Quiet,
		out:    opts.Out,
		sink:   opts.Progress,
	}
	if r.ext == "" {
		r.ext = DefaultExtension
	}
	if len(r.cands) == 0 {
		r.cands = charset.DefaultCandidates()
	}
	if opts.Rules != nil {
		r.rules = *opts.Rules
	} else {
		r.rules = DefaultRules()
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	return r
}

// Matches reports whether name carries the handled extension.
func (r *Repairer) Matches(name string) bool {
	return strings.HasSuffix(name, r.ext)
}

// Repair decodes, transforms and conditionally rewrites one file. Failures are
// logged to the output writer and recorded in the result; they are never
// returned as errors so a scan can move on to the next file.
func (r *Repairer) Repair(ctx context.Context, path string) Result {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFile, "repair", trace.CurrentSpan(ctx).SpanID)
	span.WithExtra("path", path)

	res, err := r.repair(ctx, path, span.ID())
	if err != nil {
		res.Err = err
		trace.Errorf(tracer, trace.ScopeFile, "repair", span.ID(), "%s: %v", path, err)
		if errors.Is(err, charset.ErrUndecodable) {
			r.logf("Could not decode %s with any of the attempted encodings.\n", path)
		} else {
			r.logf("Error processing %s: %v\n", path, err)
		}
	}
	span.WithExtra("encoding", res.Encoding)
	span.End(outcome(res))
	return res
}

func (r *Repairer) repair(ctx context.Context, path string, parent uint64) (Result, error) {
	res := Result{Path: path}
	tracer := trace.FromContext(ctx)

	step := trace.Begin(tracer, trace.ScopeStep, "decode", parent)
	data, err := os.ReadFile(path)
	if err != nil {
		step.End("read failed")
		return res, err
	}
	content, used, err := r.cands.Decode(data)
	if err != nil {
		step.End("undecodable")
		return res, err
	}
	res.Encoding = used
	step.End(used)

	if !HasMarker(content) {
		trace.Point(tracer, trace.ScopeStep, "skip", "no marker", parent)
		return res, nil
	}

	step = trace.Begin(tracer, trace.ScopeStep, "substitute", parent)
	fixed := r.rules.Transform(content)
	step.End("")
	if fixed == content {
		return res, nil
	}
	res.Changed = true
	if r.dryRun {
		return res, nil
	}

	step = trace.Begin(tracer, trace.ScopeStep, "write", parent)
	defer step.End("")
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(fixed), mode); err != nil {
		res.Changed = false
		return res, fmt.Errorf("write %s: %w", path, err)
	}
	return res, nil
}

// Scan repairs every file under dir whose name ends with the extension.
// Only context cancellation stops it early; per-file failures are logged
// and counted as not fixed.
func (r *Repairer) Scan(ctx context.Context, dir string) (Summary, error) {
	return r.ScanFiles(ctx, dir, r.ListFiles(dir))
}

// ScanFiles repairs an already listed set of files under root, in order.
func (r *Repairer) ScanFiles(ctx context.Context, root string, files []string) (Summary, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "scan", trace.CurrentSpan(ctx).SpanID)
	span.WithExtra("dir", root)
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})

	summary := Summary{Root: root}
	for _, path := range files {
		r.emit(Event{File: path, Status: StatusQueued})
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			span.End("cancelled")
			return summary, err
		}
		summary.Scanned++
		r.emit(Event{File: path, Status: StatusWorking})
		start := time.Now()
		res := r.Repair(ctx, path)
		summary.Results = append(summary.Results, res)
		if res.Changed {
			summary.Fixed++
			if !r.quiet {
				r.logf("%s\n", r.FixedLine(path))
			}
		}
		r.emit(Event{File: path, Status: statusOf(res), Err: res.Err, Elapsed: time.Since(start)})
	}

	span.WithExtra("scanned", fmt.Sprint(summary.Scanned))
	span.End(fmt.Sprintf("%d fixed", summary.Fixed))
	return summary, nil
}

// ListFiles walks dir and returns the matching files sorted for a
// deterministic processing order. Unreadable entries are logged and skipped.
func (r *Repairer) ListFiles(dir string) []string {
	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logf("Error processing %s: %v\n", path, err)
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && r.Matches(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}

func (r *Repairer) fixedLabel() string {
	if r.dryRun {
		return "Would fix encoding issues in:"
	}
	return "Fixed encoding issues in:"
}

// FixedLine renders the line reported for a changed file.
func (r *Repairer) FixedLine(path string) string {
	return r.fixedLabel() + " " + path
}

func (r *Repairer) emit(ev Event) {
	if r.sink != nil {
		r.sink.OnEvent(ev)
	}
}

func (r *Repairer) logf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func statusOf(res Result) Status {
	switch {
	case res.Err != nil:
		return StatusError
	case res.Changed:
		return StatusFixed
	default:
		return StatusUnchanged
	}
}

func outcome(res Result) string {
	return string(statusOf(res))
}
