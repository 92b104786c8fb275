// Command icdmatch looks up ICD codes matching a short symptom description.
// It queries the WHO ICD-API when a token is configured and otherwise ranks
// a built-in sample dataset.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ahrav/go-icdmatch/infrastructure/local"
	"github.com/ahrav/go-icdmatch/infrastructure/middleware"
	"github.com/ahrav/go-icdmatch/internal/application"
	"github.com/ahrav/go-icdmatch/internal/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "icdmatch",
		Usage:     "Rank ICD codes against a symptom description (reference only)",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query text; skips the interactive prompt",
			},
			&cli.StringFlag{
				Name:  "lang",
				Usage: "Response language tag sent to the ICD-API",
			},
			&cli.IntFlag{
				Name:  "top-k",
				Usage: "Number of results to show",
			},
			&cli.StringFlag{
				Name:  "dataset",
				Usage: "YAML or JSON file replacing the built-in local dataset",
			},
			&cli.IntFlag{
				Name:  "typo-distance",
				Usage: "Correct unknown query words within this edit distance (0 disables)",
			},
			&cli.Float64Flag{
				Name:  "min-score",
				Usage: "Drop results scoring below this value (0 keeps all)",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics in text format to this file on exit",
			},
		},
		Before: setupLogger,
		Action: queryCommand,
		Commands: []*cli.Command{
			{
				Name:   "batch",
				Usage:  "Answer one query per line from a file",
				Action: batchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "File with one query per line; blank lines and # comments are skipped",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "parallel",
						Aliases: []string{"p"},
						Usage:   "Maximum number of queries answered at once",
					},
				},
			},
			{
				Name:  "dataset",
				Usage: "Work with local dataset files",
				Subcommands: []*cli.Command{
					{
						Name:   "export",
						Usage:  "Write the built-in dataset as a starting point for --dataset",
						Action: exportDatasetCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output path; .json selects JSON, anything else YAML",
								Value:   "icd_dataset.yaml",
							},
						},
					},
				},
			},
		},
	}
}

// session bundles what the query commands need once flags are parsed.
type session struct {
	cfg     application.AppConfig
	orch    *application.Orchestrator
	metrics *middleware.PrometheusMetrics
}

func queryCommand(c *cli.Context) (err error) {
	rt, err := prepare(c)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, flushMetrics(c, rt.metrics)) }()

	out := c.App.Writer
	fmt.Fprintln(out, application.Banner)

	raw := c.String("query")
	if !c.IsSet("query") {
		fmt.Fprint(out, application.Prompt)
		raw = readLine(c.App.Reader)
	}
	if strings.TrimSpace(raw) == "" {
		fmt.Fprintln(out, application.NoInputMessage)
		return nil
	}

	if err := application.WriteSourceNotice(out, rt.orch.HasRemote()); err != nil {
		return err
	}

	answer, err := rt.orch.Run(c.Context, raw)
	return present(out, answer, err)
}

func batchCommand(c *cli.Context) (err error) {
	rt, err := prepare(c)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, flushMetrics(c, rt.metrics)) }()

	queries, err := readQueries(c.String("file"))
	if err != nil {
		return err
	}

	parallelism := rt.cfg.Batch.Parallelism
	if c.IsSet("parallel") {
		parallelism = c.Int("parallel")
	}

	out := c.App.Writer
	if err := application.WriteSourceNotice(out, rt.orch.HasRemote()); err != nil {
		return err
	}

	items := application.RunBatch(c.Context, rt.orch, queries, parallelism)
	failed := 0
	for _, item := range items {
		fmt.Fprintf(out, "\n== [%d] %s\n", item.Index+1, queries[item.Index])
		if perr := present(out, item.Answer, item.Err); perr != nil {
			failed++
			fmt.Fprintln(c.App.ErrWriter, "query failed:", perr)
		}
	}

	slog.Info("batch complete", "queries", len(items), "failed", failed)
	return nil
}

func exportDatasetCommand(c *cli.Context) error {
	path := c.String("output")
	candidates := local.Baseline()

	if err := local.SaveDataset(path, candidates); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}

	stats := local.ComputeDatasetStats(candidates)
	out := c.App.Writer
	fmt.Fprintf(out, "Exported local dataset:\n")
	fmt.Fprintf(out, "- Path: %s\n", path)
	fmt.Fprintf(out, "- Entries: %d\n", stats.Entries)
	fmt.Fprintf(out, "- With definition: %d\n", stats.WithDefinition)
	fmt.Fprintf(out, "- Average title length: %.1f\n", stats.AvgTitleLength)
	return nil
}

// present prints an answer, or the no-results message when ranking found
// nothing. Other errors are returned untouched.
func present(out io.Writer, answer application.Answer, err error) error {
	switch {
	case errors.Is(err, domain.ErrNoRelevantResults):
		return application.WriteNoResults(out)
	case err != nil:
		return err
	}

	if err := application.WriteFallbackNotice(out, answer); err != nil {
		return err
	}
	return application.WriteAnswer(out, answer)
}

// prepare loads configuration, applies flag overrides and assembles the
// orchestrator.
func prepare(c *cli.Context) (*session, error) {
	loader, err := application.NewFileConfigLoader(c.String("config"))
	if err != nil {
		return nil, err
	}

	var cfg application.AppConfig
	if err := loader.Load(c.Context, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if c.IsSet("lang") {
		cfg.Remote.Language = c.String("lang")
	}
	if c.IsSet("top-k") {
		cfg.Ranking.TopK = c.Int("top-k")
	}
	if c.IsSet("dataset") {
		cfg.Local.DatasetPath = c.String("dataset")
	}
	if c.IsSet("typo-distance") {
		cfg.Ranking.TypoDistance = c.Int("typo-distance")
	}
	if c.IsSet("min-score") {
		cfg.Ranking.MinScore = c.Float64("min-score")
	}
	if err := loader.Validate(&cfg); err != nil {
		return nil, err
	}

	metrics := middleware.NewPrometheusMetrics()
	orch, err := application.Assemble(cfg, application.Dependencies{
		Logger:  slog.Default(),
		Metrics: metrics,
	})
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, orch: orch, metrics: metrics}, nil
}

func flushMetrics(c *cli.Context, metrics *middleware.PrometheusMetrics) error {
	path := c.String("metrics-file")
	if path == "" {
		return nil
	}
	return metrics.WriteTextfile(path)
}

func readLine(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open query file: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	return queries, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
