package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ndxcli/internal/classifier"
	"ndxcli/internal/config"
	"ndxcli/internal/dataset"
	"ndxcli/internal/enrichment"
	"ndxcli/internal/exporter"
	"ndxcli/internal/infrastructure"
	"ndxcli/internal/openai"
	"ndxcli/internal/operations"
	"ndxcli/internal/recommendation"
	"ndxcli/internal/report"
	"ndxcli/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

type options struct {
	configFile     string
	constituents   string
	changes        string
	indexName      string
	concurrency    int
	validateLabels bool
	markdown       bool
	style          string
	tableOut       string
	countsOut      string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to $NDX_CONFIG, config.yaml or configs/config.yaml)")
	fs.StringVar(&opts.constituents, "constituents", "", "constituent list with symbol and name columns (csv or xlsx)")
	fs.StringVar(&opts.changes, "changes", "", "price change list with symbol and ytd columns (csv or xlsx)")
	fs.StringVar(&opts.indexName, "index", "", "index name used in the recommendation prompt")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "in-flight classification requests (1 keeps strict table order)")
	fs.BoolVar(&opts.validateLabels, "validate-labels", false, "map classifier answers onto the fixed sector list")
	fs.BoolVar(&opts.markdown, "markdown", false, "render the recommendation as markdown")
	fs.StringVar(&opts.style, "style", "", "glamour style for markdown output (dark, light, notty, ascii)")
	fs.StringVar(&opts.tableOut, "out", "", "write the enriched table to this csv file")
	fs.StringVar(&opts.countsOut, "counts-out", "", "write the sector counts to this csv file")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// loadConfig reads the config and applies flag overrides. Nothing is read
// from the data files before the config, credential included, is valid.
func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.constituents != "" {
		cfg.Input.ConstituentsFile = opts.constituents
	}
	if opts.changes != "" {
		cfg.Input.PriceChangeFile = opts.changes
	}
	if opts.indexName != "" {
		cfg.Input.IndexName = opts.indexName
	}
	if opts.concurrency > 0 {
		cfg.Enrichment.Concurrency = opts.concurrency
	}
	if opts.validateLabels {
		cfg.Enrichment.ValidateLabels = true
	}
	if opts.markdown {
		cfg.Output.Markdown = true
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("telemetry disabled", slog.String("error", err.Error()))
		providers = infrastructure.NoopProviders()
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	ctx = infrastructure.EnsureTraceID(ctx)
	logger.InfoContext(ctx, "run_start",
		slog.String("version", config.AppVersion),
		slog.String("constituents_file", cfg.Input.ConstituentsFile),
		slog.String("price_change_file", cfg.Input.PriceChangeFile),
		slog.String("model", cfg.OpenAI.Model),
		slog.Int("concurrency", cfg.Enrichment.Concurrency))

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateRun(
		[]string{cfg.Input.ConstituentsFile, cfg.Input.PriceChangeFile},
		[]string{opts.tableOut, opts.countsOut},
	); err != nil {
		return err
	}

	client := openai.NewClientFromConfig(cfg.OpenAI, logger)

	loader := dataset.NewLoader(logger, dataset.OptionsFromConfig(cfg.Input))
	sectorClassifier := classifier.New(client, classifier.Options{
		ValidateLabels: cfg.Enrichment.ValidateLabels,
		Logger:         logger,
		Metrics:        providers.Metrics,
	})
	enricher := enrichment.New(sectorClassifier, enrichment.Options{
		Concurrency: cfg.Enrichment.Concurrency,
		Logger:      logger,
		OnProgress: func(done, total int) {
			logger.DebugContext(ctx, "enrichment_progress",
				slog.Int("done", done),
				slog.Int("total", total))
		},
	})
	recommender := recommendation.New(client, recommendation.Options{
		IndexName: cfg.Input.IndexName,
		Logger:    logger,
		Metrics:   providers.Metrics,
	})

	registry, err := operations.NewPipelineRegistry(loader, enricher, recommender, logger)
	if err != nil {
		return err
	}
	manager := operations.NewManager(registry, operations.NewConfig(), operations.NewOperationTracer(providers), logger)

	resp, err := manager.Execute(ctx, operations.OperationRequest{
		ConstituentsFile: cfg.Input.ConstituentsFile,
		PriceChangeFile:  cfg.Input.PriceChangeFile,
	})
	if err != nil {
		return err
	}

	enriched, err := resp.State.GetTable(operations.ContextKeyEnrichedTable)
	if err != nil {
		return err
	}
	text, _ := resp.State.Recommendation()

	printOpts := report.OptionsFromConfig(cfg.Output)
	printOpts.Style = opts.style
	if err := report.NewPrinter(stdout, printOpts).Print(enriched, text); err != nil {
		return fmt.Errorf("print report: %w", err)
	}

	writer := exporter.NewCSVWriter("", logger)
	if opts.tableOut != "" {
		if err := writer.WriteTable(opts.tableOut, enriched); err != nil {
			return fmt.Errorf("export table: %w", err)
		}
	}
	if opts.countsOut != "" {
		if err := writer.WriteSectorCounts(opts.countsOut, report.CountSectors(enriched)); err != nil {
			return fmt.Errorf("export sector counts: %w", err)
		}
	}

	logger.InfoContext(ctx, "run_complete",
		slog.String("operation_id", resp.ID),
		slog.Duration("duration", resp.Duration),
		slog.Int("records", enriched.Len()))
	return nil
}
