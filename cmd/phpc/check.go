package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"phpc/internal/cache"
	"phpc/internal/config"
	"phpc/internal/diag"
	"phpc/internal/diagfmt"
	"phpc/internal/driver"
	"phpc/internal/observ"
	"phpc/internal/tinf"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <dump.yaml>...",
	Short: "Check solver dumps for isset-like checks that may differ from PHP",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "", "output format (pretty|short|json); overrides [output].format")
	checkCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	checkCmd.Flags().Int("jobs", 0, "max parallel units (0=auto)")
	checkCmd.Flags().StringSlice("checks", nil, "enabled checks, e.g. isset,is_array or all")
	checkCmd.Flags().Int("max-diagnostics", -1, "maximum number of diagnostics (0=unlimited); overrides [check].max_diagnostics")
	checkCmd.Flags().Bool("no-cache", false, "do not read or write the result cache")
	checkCmd.Flags().Bool("timings", false, "show timing information")
	checkCmd.Flags().Bool("with-notes", true, "include chain notes in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
}

// checkSettings is phpc.toml with command-line overrides applied.
type checkSettings struct {
	cfg       config.Config
	mask      tinf.IssetFlags
	format    string
	color     string
	noWarn    bool
	noCache   bool
	timings   bool
	withNotes bool
	fullPath  bool
	ui        uiMode
}

func loadSettings(cmd *cobra.Command) (checkSettings, error) {
	var s checkSettings
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return s, fmt.Errorf("failed to get config flag: %w", err)
	}
	if configPath != "" {
		s.cfg, err = config.Load(configPath)
	} else {
		s.cfg, err = config.Discover(".")
	}
	if err != nil {
		return s, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		s.cfg.Output.Format, _ = flags.GetString("format")
	}
	if color, _ := cmd.Root().PersistentFlags().GetString("color"); color != "" {
		s.cfg.Output.Color = color
	}
	if flags.Changed("jobs") {
		s.cfg.Check.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("max-diagnostics") {
		s.cfg.Check.MaxDiagnostics, _ = flags.GetInt("max-diagnostics")
	}
	if flags.Changed("checks") {
		s.cfg.Check.Checks, _ = flags.GetStringSlice("checks")
	}
	if flags.Changed("warnings-as-errors") {
		s.cfg.Check.WarningsAsErrors, _ = flags.GetBool("warnings-as-errors")
	}
	s.noWarn, _ = flags.GetBool("no-warnings")
	s.noCache, _ = flags.GetBool("no-cache")
	s.timings, _ = flags.GetBool("timings")
	s.withNotes, _ = flags.GetBool("with-notes")
	s.fullPath, _ = flags.GetBool("fullpath")
	uiValue, _ := flags.GetString("ui")
	if s.ui, err = readUIMode(uiValue); err != nil {
		return s, err
	}

	if s.noWarn && s.cfg.Check.WarningsAsErrors {
		return s, fmt.Errorf("no-warnings and warnings-as-errors cannot be used together")
	}
	if err := s.cfg.Validate(); err != nil {
		return s, err
	}
	s.mask, _ = s.cfg.CheckMask()
	s.format = s.cfg.Output.Format
	s.color = s.cfg.Output.Color
	return s, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	opts := driver.Options{
		MaxDiagnostics:   s.cfg.Check.MaxDiagnostics,
		Jobs:             s.cfg.Check.Jobs,
		Checks:           s.mask,
		WarningsAsErrors: s.cfg.Check.WarningsAsErrors,
		NoWarnings:       s.noWarn,
		Timer:            timer,
		Timings:          s.timings && s.format == "json",
	}
	if s.cfg.Cache.Enabled && !s.noCache {
		dir, err := s.cfg.CacheDir()
		if err == nil {
			opts.Cache, err = cache.Open(dir)
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "phpc: cache disabled: %v\n", err)
		}
	}

	var result *driver.Result
	if s.format == "pretty" && shouldUseTUI(s.ui) {
		result, err = runCheckWithUI(cmd.Context(), "phpc check", args, opts)
	} else {
		result, err = driver.Check(cmd.Context(), args, opts)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	idx := timer.Begin("output")
	err = render(out, result, s)
	timer.End(idx, s.format)
	if err != nil {
		return err
	}
	if s.timings && s.format != "json" {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if result.Bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

func render(out io.Writer, result *driver.Result, s checkSettings) error {
	pathMode := diagfmt.PathModeAuto
	if s.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	switch s.format {
	case "json":
		return diagfmt.JSON(out, result.Bag, result.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     s.withNotes,
		})
	case "short":
		text := diag.FormatShortDiagnostics(result.Bag.Refs(), result.Files, s.withNotes)
		if text != "" {
			fmt.Fprintln(out, text)
		}
		return nil
	default:
		diagfmt.Pretty(out, result.Bag, result.Files, diagfmt.PrettyOpts{
			Color:     useColor(out, s.color),
			PathMode:  pathMode,
			ShowNotes: s.withNotes,
		})
		if n := result.Bag.Len(); n > 0 {
			fmt.Fprintf(out, "\n%s\n", summaryLine(result.Bag))
		}
		return nil
	}
}

func useColor(out io.Writer, mode string) bool {
	switch strings.ToLower(mode) {
	case "on":
		return true
	case "off":
		return false
	}
	f, ok := out.(*os.File)
	return ok && isTerminal(f)
}

func summaryLine(bag *diag.Bag) string {
	var errs, warns int
	for _, d := range bag.Items() {
		switch {
		case d.Severity >= diag.SevError:
			errs++
		case d.Severity == diag.SevWarning:
			warns++
		}
	}
	return fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)
}
