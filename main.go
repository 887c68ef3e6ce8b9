package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"famtree/internal/analysis"
	"famtree/internal/builder"
	"famtree/internal/config"
	"famtree/internal/logging"
	"famtree/internal/model"
	"famtree/internal/report"
	"famtree/internal/tui"
	"famtree/internal/web"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
	"golang.org/x/sync/errgroup"
)

const (
	releaseOwner = "famtree"
	releaseRepo  = "famtree"
)

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      releaseOwner,
		Repository: releaseRepo,
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Printf("👉 Download it from https://github.com/%s/%s/releases\n", releaseOwner, releaseRepo)
	} else if pflag.Lookup("update").Changed {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: famtree [options]\n\n")
		fmt.Fprintf(os.Stderr, "famtree reads family report CSV files and shows how families nest\n")
		fmt.Fprintf(os.Stderr, "inside each other: nesting trees, circular nesting, and nested\n")
		fmt.Fprintf(os.Stderr, "families missing from the library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  famtree -d reports/            # Start TUI mode\n")
		fmt.Fprintf(os.Stderr, "  famtree -d reports/ --report   # Print the report to stdout\n")
		fmt.Fprintf(os.Stderr, "  famtree -r -v -o r.txt         # Save a verbose report to file\n")
		fmt.Fprintf(os.Stderr, "  famtree --json                 # Output analysis as JSON\n")
		fmt.Fprintf(os.Stderr, "  famtree --csv -o merged/       # Write merged report CSVs\n")
		fmt.Fprintf(os.Stderr, "  famtree --web --watch          # Serve the JSON API, reloading on change\n")
	}

	dirFlag := pflag.StringP("dir", "d", "", "Report CSV file or directory (default \".\")")
	reportFlag := pflag.BoolP("report", "r", false, "Generate the nesting report (CLI mode)")
	jsonFlag := pflag.BoolP("json", "j", false, "Output the build and analysis as JSON")
	csvFlag := pflag.Bool("csv", false, "Write the merged containers back out as report CSV files")
	outputFlag := pflag.StringP("output", "o", "", "Save output to this file (directory for --csv)")
	verboseFlag := pflag.BoolP("verbose", "v", false, "Include every family tree in the report")
	webFlag := pflag.BoolP("web", "w", false, "Start Web Mode serving the JSON API")
	addrFlag := pflag.String("addr", "", "Web listen address (default \"localhost:8080\")")
	watchFlag := pflag.Bool("watch", false, "In Web Mode, reload when report files change")
	workersFlag := pflag.Int("workers", 0, "Analysis workers (0 means one per CPU)")
	configFlag := pflag.StringP("config", "c", "", "Config file (default $HOME/"+config.DefaultFileName+")")
	logLevelFlag := pflag.String("log-level", "", "Log level: debug, info, warn or error")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for the latest release")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("famtree version %s\n", model.Version)
		return
	}

	if *updateFlag {
		checkUpdate(model.Version)
		return
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err)
	}

	// Explicit flags win over the config file.
	if pflag.Lookup("dir").Changed {
		cfg.ReportPath = *dirFlag
	}
	if pflag.Lookup("workers").Changed {
		cfg.Workers = *workersFlag
	}
	if pflag.Lookup("log-level").Changed {
		cfg.LogLevel = *logLevelFlag
	}
	if pflag.Lookup("addr").Changed {
		cfg.Web.Addr = *addrFlag
	}
	if pflag.Lookup("watch").Changed {
		cfg.Web.Watch = *watchFlag
	}
	if pflag.Lookup("output").Changed {
		cfg.Output.Path = *outputFlag
	}
	switch {
	case *jsonFlag:
		cfg.Output.Format = config.FormatJSON
	case *csvFlag:
		cfg.Output.Format = config.FormatCSV
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	interactive := !*webFlag && !*reportFlag && !*jsonFlag && !*csvFlag
	logData, err := newLogger(cfg, interactive)
	if err != nil {
		fatal(err)
	}
	defer logData.Close()
	logger := logData.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *webFlag:
		err = runWebMode(ctx, cfg, logger)
	case !interactive:
		err = runReportMode(ctx, cfg, *verboseFlag, logger)
	default:
		err = runTuiMode(cfg, logger)
	}
	if err != nil {
		logger.Error().Err(err).Msg("famtree failed")
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// newLogger writes to the configured log file, or to stderr outside the
// TUI. The TUI owns the terminal, so without a log file it logs nowhere.
func newLogger(cfg config.Config, interactive bool) (*logging.LogData, error) {
	build := logging.New().WithLevel(logging.ParseLevel(cfg.LogLevel))
	switch {
	case cfg.LogFile != "":
		build.FromPath(cfg.LogFile)
	case !interactive:
		build.FromBuffer(os.Stderr).Console(isatty.IsTerminal(os.Stderr.Fd()))
	}
	return build.Make()
}

func analyze(ctx context.Context, cfg config.Config, logger zerolog.Logger) (builder.Result, analysis.AnalysisResult, error) {
	build, err := builder.BuildPath(ctx, cfg.ReportPath, builder.WithLogger(logger))
	if err != nil {
		return builder.Result{}, analysis.AnalysisResult{}, err
	}
	res, err := analysis.NewAnalyzer(
		analysis.WithWorkers(cfg.Workers),
		analysis.WithLogger(logger),
	).Analyze(ctx, build.Containers)
	return build, res, err
}

type jsonOutput struct {
	Version     string                  `json:"version"`
	Files       []string                `json:"files"`
	Diagnostics []builder.Diagnostic    `json:"diagnostics"`
	Analysis    analysis.AnalysisResult `json:"analysis"`
}

func runReportMode(ctx context.Context, cfg config.Config, verbose bool, logger zerolog.Logger) error {
	build, res, err := analyze(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Output.Format == config.FormatCSV {
		dir := cfg.Output.Path
		if dir == "" {
			dir = "."
		}
		files, err := report.WriteContainersCSV(dir, build.Containers)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Printf("Wrote %s\n", f)
		}
		return nil
	}

	var out io.Writer = os.Stdout
	if cfg.Output.Path != "" {
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch cfg.Output.Format {
	case config.FormatJSON:
		diags := build.Diagnostics
		if diags == nil {
			diags = []builder.Diagnostic{}
		}
		err = report.WriteJSON(out, jsonOutput{
			Version:     model.Version,
			Files:       build.Files,
			Diagnostics: diags,
			Analysis:    res,
		})
	default:
		text := analysis.GenerateReport(res, verbose)
		for _, d := range build.Diagnostics {
			logger.Warn().Str("file", d.File).Int("row", d.Row).Err(d.Err).Msg("row skipped")
		}
		_, err = fmt.Fprintln(out, text)
	}
	if err != nil {
		return err
	}
	if cfg.Output.Path != "" {
		fmt.Printf("Report saved to %s\n", cfg.Output.Path)
	}
	return nil
}

func runWebMode(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	srv := web.New(cfg.ReportPath,
		web.WithAddr(cfg.Web.Addr),
		web.WithWorkers(cfg.Workers),
		web.WithLogger(logger),
	)
	// A failed first load is served as an error until the reports are fixed.
	_ = srv.Reload(ctx)

	fmt.Printf("Starting famtree web server at http://%s\n", srv.Addr())
	fmt.Printf("Go to http://%s/api/help in your browser.\n", srv.Addr())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx) })
	if cfg.Web.Watch {
		g.Go(func() error { return srv.Watch(ctx) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runTuiMode(cfg config.Config, logger zerolog.Logger) error {
	m := tui.InitialModel(tui.Options{
		ReportPath: cfg.ReportPath,
		Workers:    cfg.Workers,
		Logger:     logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}
