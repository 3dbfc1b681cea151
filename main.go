package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"home-rush/bots"
	"home-rush/browser"
	"home-rush/config"
	"home-rush/services"
	"home-rush/storage"
	"home-rush/utils"
)

func main() {
	configPath := flag.String("config", config.Path(), "path to the YAML config")
	parseFile := flag.String("parse", "", "parse a saved listing page and print the offers instead of running the bots")
	site := flag.String("site", config.BotPlaza, "site layout used by -parse")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	logger := utils.NewLogger()
	logger.SetVerbose(*verbose)

	cfg, err := config.Load(*configPath)

	if *parseFile != "" {
		if err != nil {
			logger.Warn("Config not usable, parsing without filters: %v", err)
			cfg = &config.Config{}
		}
		if err := parseSnapshot(cfg, *site, *parseFile, logger); err != nil {
			logger.Error("Parse failed: %v", err)
			os.Exit(1)
		}
		return
	}
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Info("=== Home Rush starting ===")

	journal, pg, err := openJournal(cfg.Journal, logger)
	if err != nil {
		logger.Error("Failed to open reply journal: %v", err)
		os.Exit(1)
	}
	defer journal.Close()

	all, err := bots.FromConfig(cfg, bots.Deps{
		NewDriver: browser.NewChromeFactory(cfg.Browser),
		Logger:    logger,
		Journal:   journal,
	})
	if err != nil {
		logger.Error("Failed to set up bots: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := utils.NewWorkerPool(len(all), 0)
	stats := make([]*services.RunStats, 0, len(all))
	for _, bot := range all {
		bot := bot // per-iteration copy; go.mod targets go 1.21 loop semantics
		stats = append(stats, bot.Stats())
		logger.Info("Starting %s bot", bot.Name())
		pool.Submit(func() {
			// Errors are logged by the bot; one failing bot leaves the others running.
			_ = bot.Run(ctx)
		})
	}
	pool.Wait()

	logger.Info("All bots stopped")

	reportSvc := services.NewReportService(logger)
	reportSvc.Print(reportSvc.Generate(stats))

	if pg != nil {
		for _, bot := range all {
			records, err := pg.FetchByBot(bot.Name())
			if err != nil {
				logger.Warn("Could not read journal for %s: %v", bot.Name(), err)
				continue
			}
			logger.Info("Journal holds %d reply attempts for %s", len(records), bot.Name())
		}
	}
}

// openJournal builds the configured reply journal sinks. The Postgres
// journal is also returned on its own for the end-of-run summary.
func openJournal(cfg config.JournalConfig, logger *utils.Logger) (storage.ReplyJournal, *storage.PostgresJournal, error) {
	var (
		sinks storage.MultiJournal
		pg    *storage.PostgresJournal
	)

	if cfg.CSVPath != "" {
		csv, err := storage.NewCSVJournal(cfg.CSVPath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, csv)
		logger.Info("Journaling replies to %s", cfg.CSVPath)
	}

	if cfg.PostgresDSN != "" {
		var err error
		pg, err = storage.NewPostgresJournal(cfg.PostgresDSN, logger.Named("postgres"))
		if err != nil {
			_ = sinks.Close()
			return nil, nil, err
		}
		sinks = append(sinks, pg)
		logger.Info("Journaling replies to PostgreSQL (table: reply_attempts)")
	}

	if len(sinks) == 0 {
		return storage.NopJournal{}, nil, nil
	}
	return sinks, pg, nil
}

// parseSnapshot runs the parser and the site's filters over a saved
// listing page and prints what the bot would reply to.
func parseSnapshot(cfg *config.Config, site, path string, logger *utils.Logger) error {
	var bc *config.BotConfig
	for _, b := range []*config.BotConfig{cfg.Plaza, cfg.Holland2Stay} {
		if b != nil && b.Name == site {
			bc = b
		}
	}
	if bc == nil {
		bc = &config.BotConfig{Name: site}
	}

	layout, err := bots.LayoutFor(bc)
	if err != nil {
		return err
	}
	filters, err := services.BuildFilters(bc.Target.Filters)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	texts, err := services.ExtractListingTexts(f, layout.Container, layout.Item)
	if err != nil {
		return err
	}

	parser := services.NewListingParser(logger.Named(site))
	matched := 0
	for i, raw := range texts {
		offer := parser.Parse(raw)
		mark := " "
		if filters.Match(offer) {
			mark = "*"
			matched++
		}
		fmt.Printf("%s %2d  %s\n", mark, i+1, offer)
	}
	fmt.Printf("\n%d listings, %d match the %s filters\n", len(texts), matched, site)
	return nil
}
