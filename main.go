package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flip-analyzer/api"
	"flip-analyzer/config"
	"flip-analyzer/report"
	"flip-analyzer/services"
	"flip-analyzer/storage"
	"flip-analyzer/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := utils.NewLeveledLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		if err := serve(ctx, cfg, logger); err != nil {
			logger.Error("Server stopped: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := analyze(ctx, cfg, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	srv := api.NewServer(services.NewAnalyzer(logger), cfg.Criteria(), logger)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down API server")
		_ = srv.Shutdown()
	}()
	return srv.Listen(cfg.API.Address)
}

func analyze(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	grouping, err := cfg.Grouping()
	if err != nil {
		return err
	}

	logger.Info("=== Flip Analyzer starting ===")
	logger.Info("Config: source %s | group by %s | ± SF %.0f%% | focus %v | selected %v",
		cfg.Source.Kind, grouping, cfg.Match.SFRangePct, cfg.Match.Focus, cfg.Match.Selected)

	source, err := openSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	listings, comps, err := source.Tables(ctx)
	if err != nil {
		return fmt.Errorf("load inputs: %w", err)
	}
	logger.Info("Loaded %d listing rows and %d comp rows", len(listings.Rows), len(comps.Rows))

	analysis, err := services.NewAnalyzer(logger).Run(services.AnalysisRequest{
		Listings: listings,
		Comps:    comps,
		Criteria: cfg.Criteria(),
		Grouping: grouping,
		Focus:    cfg.Match.Focus,
		Selected: cfg.Match.Selected,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	services.Print(os.Stdout, analysis)

	var writers []storage.AnalysisWriter
	if cfg.Output.ResultsCSV != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.Output.ResultsCSV)
		if err != nil {
			return err
		}
		writers = append(writers, csvWriter)
	}
	if cfg.Output.ReportXLSX != "" {
		writers = append(writers, storage.NewXLSXWriter(cfg.Output.ReportXLSX))
	}
	for _, w := range writers {
		if err := w.Write(analysis); err != nil {
			logger.Error("Export failed: %v", err)
		}
		if err := w.Close(); err != nil {
			logger.Error("Export close failed: %v", err)
		}
	}
	logger.Info("Exports written: csv=%q xlsx=%q", cfg.Output.ResultsCSV, cfg.Output.ReportXLSX)

	if cfg.Output.ReportPDFDir != "" {
		renderer := report.NewPDFRenderer(report.PDFOptions{
			ChromeBin:      cfg.Render.ChromeBin,
			MaxConcurrency: cfg.Render.MaxConcurrency,
			MaxRetries:     cfg.Render.MaxRetries,
			RateLimitMs:    cfg.Render.RateLimitMs,
		}, logger)
		if _, err := renderer.RenderAll(ctx, analysis, cfg.Output.ReportPDFDir); err != nil {
			logger.Error("PDF report incomplete: %v", err)
		}
	}

	return nil
}

func openSource(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.TableSource, error) {
	if cfg.Source.Kind != config.SourcePostgres {
		return &storage.CSVSource{ListingsPath: cfg.Source.ListingsCSV, CompsPath: cfg.Source.CompsCSV}, nil
	}

	retry := utils.RetryConfig{MaxAttempts: cfg.Postgres.PingRetries, BaseDelay: 2 * time.Second, Logger: logger}
	src, err := storage.NewPostgresSource(ctx, cfg.DSN(), cfg.Source.ListingTable, cfg.Source.CompTable, retry)
	if err != nil {
		logger.Error("Make sure PostgreSQL is running: docker compose up -d")
		return nil, err
	}
	return src, nil
}
