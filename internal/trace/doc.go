// Package trace is the logging layer of phpc: structured events grouped into spans.
//
// Enable it from the command line:
//
//	phpc check --trace=- --trace-level=detail dump.yaml
//
// Tracer implementations:
//
//   - nop tracer: zero overhead when disabled
//   - StreamTracer: immediate write (text or NDJSON)
//   - RingTracer: last N events kept in memory, dumped on panic
//   - both at once, with --trace-mode=both
//
// Events are grouped by scope: driver (CLI run), pass (validation, loading), unit
// (one dump / compilation unit), node (single inference-graph findings). The level
// decides which scopes are emitted.
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "validate", 0)
//	defer span.End("")
package trace
