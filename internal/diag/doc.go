// Package diag defines the diagnostic model shared by the loader, the checks and
// the driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form
//     such as SEM3101.
//   - Message – human oriented text. Check messages may span several lines.
//   - Primary span – the source.Span pointing to the issue.
//   - Notes – secondary spans/messages. The isset check adds one note per
//     element of the assignment chain.
//
// # Emitting diagnostics
//
// Passes use a diag.Reporter to decouple emission from storage: build a report
// with ReportWarning/ReportError, chain WithNote and call Emit. BagReporter
// collects into a Bag, which supports sorting, deduplication and truncation.
// PromoteReporter implements warnings_as_errors and --no-warnings.
//
// Rendering lives in internal/diagfmt. Diagnostics are plain data and are
// stored as-is in the result cache, so new fields must stay serialisable.
package diag
