// qmldoc extracts the documented API of QML files and prints it in TOON or
// YAML format.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/qmldoc/internal/config"
	"github.com/phobologic/qmldoc/internal/discover"
	"github.com/phobologic/qmldoc/internal/doc"
	"github.com/phobologic/qmldoc/internal/docdb"
	"github.com/phobologic/qmldoc/internal/qml"
	"github.com/phobologic/qmldoc/internal/qmldoc"
	"github.com/phobologic/qmldoc/internal/report"
	"github.com/phobologic/qmldoc/internal/toon"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := runContext(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	return runContext(context.Background(), args, stdout, stderr)
}

type options struct {
	configPath   string
	format       string
	maxDepth     int
	workers      int
	maxFileSize  int
	logLevel     string
	logFormat    string
	exclude      []string
	includeTests bool
}

func runContext(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	cmd := &cobra.Command{
		Use:           "qmldoc [flags] [path...]",
		Short:         "Extract documented QML APIs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, paths []string) error {
			cfg, err := loadConfig(cmd, &opts, paths)
			if err != nil {
				return err
			}
			log, err := newLogger(stderr, opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			return generate(cmd.Context(), paths, cfg, log, stdout)
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("qmldoc {{.Version}}\n")

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default: <root>/"+config.FileName+")")
	f.StringVarP(&opts.format, "format", "f", config.DefaultFormat, "output format: toon or yaml")
	f.IntVar(&opts.maxDepth, "max-depth", config.DefaultMaxDepth, "maximum nesting depth of a QML file")
	f.IntVarP(&opts.workers, "workers", "j", 0, "files processed concurrently (default: number of CPUs)")
	f.IntVar(&opts.maxFileSize, "max-file-size", config.DefaultMaxFileSize, "skip files larger than this many bytes")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "gitignore-style patterns of files to skip")
	f.BoolVar(&opts.includeTests, "include-tests", false, "also document Qt Quick Test files")
	f.BoolP("version", "V", false, "show version and exit")

	return cmd.ExecuteContext(ctx)
}

// loadConfig reads the config file and applies the flags set on the command
// line on top of it.
func loadConfig(cmd *cobra.Command, opts *options, paths []string) (config.Config, error) {
	path, required := opts.configPath, true
	if path == "" {
		root := "."
		if len(paths) > 0 {
			root = paths[0]
		}
		if info, err := os.Stat(root); err == nil && !info.IsDir() {
			root = filepath.Dir(root)
		}
		path, required = filepath.Join(root, config.FileName), false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	if f.Changed("format") {
		cfg.Format = opts.format
	}
	if f.Changed("max-depth") {
		cfg.MaxDepth = opts.maxDepth
	}
	if f.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if f.Changed("max-file-size") {
		cfg.MaxFileSize = opts.maxFileSize
	}
	if f.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, opts.exclude...)
	}
	if f.Changed("include-tests") {
		cfg.IncludeTests = opts.includeTests
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	ho := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, ho)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, ho)), nil
	}
	return nil, fmt.Errorf("unsupported log format %q", format)
}

type target struct {
	root string
	path string // relative to root
}

func (t target) abs() string { return filepath.Join(t.root, t.path) }

// collectTargets expands the command line paths into QML files.
func collectTargets(paths []string, cfg config.Config) ([]target, string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	var (
		targets []target
		project string
	)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, "", fmt.Errorf("resolving %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, "", fmt.Errorf("root path: %w", err)
		}
		if !info.IsDir() {
			if project == "" {
				project = filepath.Base(filepath.Dir(abs))
			}
			if filepath.Ext(abs) != discover.Extension {
				return nil, "", fmt.Errorf("%s: not a QML file", p)
			}
			targets = append(targets, target{root: filepath.Dir(abs), path: filepath.Base(abs)})
			continue
		}
		if project == "" {
			project = filepath.Base(abs)
		}
		files, err := discover.Files(abs, discover.Options{Exclude: cfg.Exclude, IncludeTests: cfg.IncludeTests})
		if err != nil {
			return nil, "", fmt.Errorf("discovering files: %w", err)
		}
		for _, f := range files {
			targets = append(targets, target{root: abs, path: f.Path})
		}
	}
	return targets, project, nil
}

func filterBySize(targets []target, maxSize int, log *slog.Logger) []target {
	var kept []target
	for _, t := range targets {
		fi, err := os.Stat(t.abs())
		if err != nil {
			kept = append(kept, t) // keep if can't stat
			continue
		}
		if fi.Size() > int64(maxSize) {
			log.Warn("skipped large file", slog.String("file", t.path), slog.Int("limit", maxSize))
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// generate documents every target into one repository and writes the
// report.
func generate(ctx context.Context, paths []string, cfg config.Config, log *slog.Logger, stdout io.Writer) error {
	targets, project, err := collectTargets(paths, cfg)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New("no QML files found")
	}
	targets = filterBySize(targets, cfg.MaxFileSize, log)
	if len(targets) == 0 {
		return errors.New("no QML files found (all exceeded size limit)")
	}

	repo := docdb.New()
	for _, e := range cfg.Enums {
		repo.RegisterEnum(e)
	}

	stats, err := processConcurrent(ctx, repo, targets, cfg, log)
	if err != nil {
		return err
	}
	log.Info("processed files",
		slog.Int("documented", stats.documented),
		slog.Int("failed", stats.failed),
		slog.Int("warnings", stats.warnings))

	rep := report.Build(repo, project)
	switch cfg.Format {
	case "yaml":
		out, err := yaml.Marshal(rep)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, _ = stdout.Write(out)
	default:
		_, _ = fmt.Fprintln(stdout, toon.Encode(rep))
	}

	if len(stats.tooDeep) > 0 {
		return fmt.Errorf("nesting limit of %d exceeded in %s", cfg.MaxDepth, strings.Join(stats.tooDeep, ", "))
	}
	return nil
}

type runStats struct {
	documented int
	failed     int
	warnings   int
	tooDeep    []string
}

// processConcurrent parses and documents the targets with cfg.Workers
// goroutines sharing repo.
func processConcurrent(ctx context.Context, repo *docdb.Repository, targets []target, cfg config.Config, log *slog.Logger) (runStats, error) {
	numWorkers := min(cfg.Workers, len(targets))

	// Each goroutine borrows its own parser; tree-sitter parsers are not
	// safe for concurrent use.
	parsers := make(chan *qml.Parser, numWorkers)
	for range numWorkers {
		parsers <- qml.NewParser(log)
	}
	docParser := doc.DefaultParser(cfg.ExtraMetacommands...)

	type result struct {
		ok       bool
		tooDeep  bool
		warnings int
	}
	results := make([]result, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, t := range targets {
		g.Go(func() error {
			source, err := os.ReadFile(t.abs())
			if err != nil {
				log.Warn("cannot read file", slog.String("file", t.path), slog.Any("error", err))
				return nil
			}

			p := <-parsers
			d, err := p.Parse(ctx, t.path, source)
			parsers <- p
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn("cannot parse file", slog.String("file", t.path), slog.Any("error", err))
				return nil
			}

			res := qmldoc.Process(repo, d, qmldoc.Options{Logger: log, Parser: docParser, MaxDepth: cfg.MaxDepth})
			results[i] = result{ok: !res.RecursionExceeded, tooDeep: res.RecursionExceeded, warnings: len(res.Warnings)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return runStats{}, err
	}

	var stats runStats
	for i, r := range results {
		switch {
		case r.ok:
			stats.documented++
		case r.tooDeep:
			stats.tooDeep = append(stats.tooDeep, targets[i].path)
		default:
			stats.failed++
		}
		stats.warnings += r.warnings
	}
	return stats, nil
}
