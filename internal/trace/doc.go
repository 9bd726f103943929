// Package trace provides structured diagnostic logging for mojifix.
//
// Progress lines and per-file errors are part of the tool's output contract
// and are printed directly. Everything else, such as which encoding won, how
// long each step took, or why a file was skipped, is emitted as trace events
// and written only when tracing is enabled:
//
//	mojifix --trace=- --trace-level=detail docs/
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only failed files
//   - LevelPhase: scan boundaries
//   - LevelDetail: one span per file
//   - LevelDebug: every step (decode, substitute, write)
//
// # Context Propagation
//
// Tracers travel with the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, "repair", parentID)
//	defer span.End("")
package trace
