// Package driver checks solver dumps. Each dump is an independent unit; units run in
// parallel and their results are merged in input order.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"phpc/internal/ast"
	"phpc/internal/cache"
	"phpc/internal/diag"
	"phpc/internal/dump"
	"phpc/internal/observ"
	"phpc/internal/source"
	"phpc/internal/tinf"
	"phpc/internal/trace"
	"phpc/internal/types"
	"phpc/internal/validate"
)

// Options controls a Check run.
type Options struct {
	// MaxDiagnostics caps the merged bag; 0 means no limit.
	MaxDiagnostics   int
	Jobs             int
	Checks           tinf.IssetFlags
	WarningsAsErrors bool
	NoWarnings       bool
	// Cache is consulted before loading a dump; nil disables caching.
	Cache *cache.Disk
	// Timer receives phase timings; nil disables them.
	Timer *observ.Timer
	// Timings appends an OBS6001 info diagnostic with the timer report.
	Timings bool
	BaseDir string
	// Progress receives per-unit events; nil disables them.
	Progress ProgressSink
}

// UnitResult is the outcome of one dump.
type UnitResult struct {
	Path   string
	File   source.FileID
	Bag    *diag.Bag
	Cached bool
	Stats  validate.Stats
}

// Result is the merged outcome of a run.
type Result struct {
	Files *source.FileSet
	Bag   *diag.Bag
	Units []UnitResult
}

// Check loads and checks every dump in paths. It fails only when ctx is cancelled;
// unreadable or malformed dumps become diagnostics.
func Check(ctx context.Context, paths []string, opts Options) (*Result, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "check", trace.CurrentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	fs := source.NewFileSet()
	if opts.BaseDir != "" {
		fs.SetBaseDir(opts.BaseDir)
	}
	if opts.Checks == 0 {
		opts.Checks = tinf.IfiAll
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// индексы уникальны для каждой горутины, мьютекс не нужен
	units := make([]UnitResult, len(paths))
	for _, path := range paths {
		emit(opts.Progress, Event{File: path, Stage: StageRead, Status: StatusQueued})
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i, path := range paths {
		g.Go(func() error {
			res, err := checkUnit(gctx, fs, path, opts)
			units[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}

	merged := diag.NewBag(0)
	for _, u := range units {
		merged.Merge(u.Bag)
	}
	merged.Sort()
	if opts.MaxDiagnostics > 0 {
		merged.Truncate(opts.MaxDiagnostics)
	}
	if opts.Timings && opts.Timer != nil {
		appendTimingDiagnostic(merged, timingPayload{Kind: "check", Report: opts.Timer.Report()})
	}
	span.WithExtra("units", fmt.Sprint(len(paths))).WithExtra("diagnostics", fmt.Sprint(merged.Len()))
	return &Result{Files: fs, Bag: merged, Units: units}, nil
}

func checkUnit(ctx context.Context, fs *source.FileSet, path string, opts Options) (res UnitResult, err error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeUnit, "unit", trace.CurrentSpan(ctx))
	defer span.End(path)
	ctx = trace.WithSpan(ctx, span)

	res = UnitResult{Path: path, Bag: diag.NewBag(0)}
	began := time.Now()
	defer func() {
		status := StatusDone
		if err != nil || res.Bag.HasErrors() {
			status = StatusError
		}
		emit(opts.Progress, Event{File: path, Status: status, Cached: res.Cached, Elapsed: time.Since(began)})
	}()
	out := diag.PromoteReporter{
		Next:    diag.NewDedupReporter(&diag.BagReporter{Bag: res.Bag}),
		Promote: opts.WarningsAsErrors,
		Drop:    opts.NoWarnings,
	}
	defer func() {
		if r := recover(); r != nil {
			diag.ReportError(out, diag.IntInvariant, source.NoSpan, fmt.Sprintf("%s: internal error: %v", path, r)).Emit()
			err = nil
		}
	}()

	if err := ctx.Err(); err != nil {
		return res, err
	}

	emit(opts.Progress, Event{File: path, Stage: StageRead, Status: StatusWorking})
	start := time.Now()
	// #nosec G304 -- path is provided by the caller
	content, readErr := os.ReadFile(path)
	opts.Timer.Observe("read", time.Since(start))
	if readErr != nil {
		diag.ReportError(out, diag.IOLoadFileError, source.NoSpan, fmt.Sprintf("%s: %v", path, readErr)).Emit()
		return res, nil
	}

	var key cache.Digest
	if opts.Cache != nil {
		key = cache.Key(cacheKeyPath(path), content, opts.Checks)
		emit(opts.Progress, Event{File: path, Stage: StageCache, Status: StatusWorking})
		start = time.Now()
		entry, ok, cacheErr := opts.Cache.Get(key)
		opts.Timer.Observe("cache", time.Since(start))
		switch {
		case cacheErr != nil:
			diag.ReportWarning(out, diag.IOCacheError, source.NoSpan, fmt.Sprintf("%s: cache: %v", path, cacheErr)).Emit()
		case ok:
			file, diags := entry.Restore(fs)
			replay(out, diags)
			res.File, res.Cached = file, true
			res.Stats = validate.Stats{Sites: entry.Sites, Reported: entry.Reported}
			span.WithExtra("cached", "true")
			return res, nil
		}
	}

	emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
	start = time.Now()
	u, loadErr := dump.Parse(fs, path, content)
	opts.Timer.Observe("load", time.Since(start))
	if loadErr != nil {
		res.File = fs.Add(path, content, 0)
		diag.ReportError(out, loadErrorCode(loadErr), source.Span{File: res.File}, loadErr.Error()).Emit()
		return res, nil
	}
	res.File = u.File

	raw := diag.NewBag(0)
	emit(opts.Progress, Event{File: path, Stage: StageValidate, Status: StatusWorking})
	start = time.Now()
	st, runErr := validate.Run(ctx, u, &diag.BagReporter{Bag: raw}, validate.Options{Checks: opts.Checks})
	opts.Timer.Observe("validate", time.Since(start))
	if runErr != nil {
		return res, runErr
	}
	res.Stats = st
	replay(out, raw.Items())

	if opts.Cache != nil {
		entry := cache.NewEntry(fs, u.File, raw.Items())
		entry.Sites, entry.Reported = st.Sites, st.Reported
		if putErr := opts.Cache.Put(key, entry); putErr != nil {
			diag.ReportWarning(out, diag.IOCacheError, source.NoSpan, fmt.Sprintf("%s: cache: %v", path, putErr)).Emit()
		}
	}
	return res, nil
}

func cacheKeyPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// replay feeds stored diagnostics through r so promotion and filtering apply to them.
func replay(r diag.Reporter, diags []diag.Diagnostic) {
	for _, d := range diags {
		r.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	}
}

var loadErrorCodes = []struct {
	err  error
	code diag.Code
}{
	{dump.ErrSyntax, diag.DmpBadYAML},
	{dump.ErrBadField, diag.DmpBadYAML},
	{dump.ErrUnknownOp, diag.DmpUnknownOp},
	{dump.ErrUnknownVar, diag.DmpUnknownVar},
	{dump.ErrUnknownFunction, diag.DmpUnknownFunction},
	{types.ErrBadType, diag.DmpBadType},
	{dump.ErrBadArity, diag.DmpBadArity},
	{dump.ErrBadSpan, diag.DmpBadSpan},
	{dump.ErrDuplicate, diag.DmpDuplicate},
}

func loadErrorCode(err error) diag.Code {
	for _, c := range loadErrorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	var ie *ast.InternalError
	if errors.As(err, &ie) {
		return diag.IntInvariant
	}
	return diag.DmpBadYAML
}
