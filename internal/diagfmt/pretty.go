package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"phpc/internal/diag"
	"phpc/internal/source"
)

type palette struct {
	err, warn, info, note, code, path, caret, gutter *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		code:   color.New(color.Faint),
		path:   color.New(color.Bold),
		caret:  color.New(color.FgGreen, color.Bold),
		gutter: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.path, p.caret, p.gutter} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем строку исходника с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	for i := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &items[i], fs, opts, p)
	}
	if dropped := bag.Dropped() + len(bag.Items()) - len(items); dropped > 0 {
		fmt.Fprintf(w, "\n... %d more diagnostic(s) not shown\n", dropped)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	lines := strings.Split(strings.TrimRight(d.Message, "\n"), "\n")
	fmt.Fprintf(w, "%s: %s %s: %s\n",
		p.path.Sprint(location(fs, d.Primary, opts.PathMode)),
		p.severity(d.Severity).Sprint(d.Severity.String()),
		p.code.Sprint(d.Code.ID()),
		lines[0])
	for _, l := range lines[1:] {
		fmt.Fprintf(w, "  %s\n", strings.TrimLeft(l, " "))
	}
	writeSnippet(w, fs, d.Primary, p)

	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		msg := strings.ReplaceAll(n.Msg, "\t", " ")
		fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), p.path.Sprint(location(fs, n.Span, opts.PathMode)), msg)
	}
}

func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	start, _, ok := fs.Resolve(sp)
	if !ok {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, sp.File, mode), start.Line, start.Col)
}

// writeSnippet prints the first line of sp with a caret underline. Widths are measured
// in terminal cells so wide runes keep the caret aligned.
func writeSnippet(w io.Writer, fs *source.FileSet, sp source.Span, p palette) {
	f := fs.Get(sp.File)
	start, end, ok := fs.Resolve(sp)
	if f == nil || !ok {
		return
	}
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	from := min(int(start.Col)-1, len(line))
	to := len(line)
	if end.Line == start.Line {
		to = min(int(end.Col)-1, len(line))
	}
	if to < from {
		to = from
	}

	prefix := expandTabs(line[:from])
	width := max(runewidth.StringWidth(expandTabs(line[from:to])), 1)
	gutter := fmt.Sprintf("%4d | ", start.Line)
	blank := strings.Repeat(" ", len(gutter)-2) + "| "

	fmt.Fprintf(w, "%s%s\n", p.gutter.Sprint(gutter), expandTabs(line))
	fmt.Fprintf(w, "%s%s%s\n", p.gutter.Sprint(blank),
		strings.Repeat(" ", runewidth.StringWidth(prefix)),
		p.caret.Sprint("^"+strings.Repeat("~", width-1)))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
