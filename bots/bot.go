// Package bots runs one monitor-and-reply loop per housing site.
package bots

import (
	"context"
	"errors"
	"fmt"

	"home-rush/browser"
	"home-rush/config"
	"home-rush/services"
	"home-rush/storage"
	"home-rush/utils"
)

// Bot is one site's login, reply and monitor procedure.
type Bot interface {
	Name() string
	Login(ctx context.Context) error
	Reply(ctx context.Context, el browser.Element) error
	MonitorAndReply(ctx context.Context) error
	// Run logs in and monitors until ctx is cancelled or a fatal error
	// occurs. It owns the browser session for its whole duration.
	Run(ctx context.Context) error
	Stats() *services.RunStats
}

// Deps are the collaborators shared by every bot.
type Deps struct {
	NewDriver browser.Factory
	Logger    *utils.Logger
	Journal   storage.ReplyJournal
}

// Layout holds the selectors of a site's listing page.
type Layout struct {
	EmptyState  string
	Container   string
	Item        string
	ReplyButton string
}

func (l Layout) withOverrides(s config.Selectors) Layout {
	if s.EmptyState != "" {
		l.EmptyState = s.EmptyState
	}
	if s.Container != "" {
		l.Container = s.Container
	}
	if s.Item != "" {
		l.Item = s.Item
	}
	if s.ReplyButton != "" {
		l.ReplyButton = s.ReplyButton
	}
	return l
}

// LayoutFor returns the listing page layout of the named site, with the
// config overrides applied.
func LayoutFor(cfg *config.BotConfig) (Layout, error) {
	switch cfg.Name {
	case config.BotPlaza:
		return plazaLayout.withOverrides(cfg.Selectors), nil
	case config.BotHolland2Stay:
		return holland2StayLayout.withOverrides(cfg.Selectors), nil
	}
	return Layout{}, fmt.Errorf("bots: unknown site %q", cfg.Name)
}

// FromConfig builds the enabled bots in start order.
func FromConfig(cfg *config.Config, deps Deps) ([]Bot, error) {
	var bots []Bot
	for _, bc := range cfg.EnabledBots() {
		var (
			bot Bot
			err error
		)
		switch bc.Name {
		case config.BotPlaza:
			bot, err = NewPlazaBot(bc, deps)
		case config.BotHolland2Stay:
			bot, err = NewHolland2StayBot(bc, deps)
		default:
			err = fmt.Errorf("bots: unknown site %q", bc.Name)
		}
		if err != nil {
			return nil, err
		}
		bots = append(bots, bot)
	}
	if len(bots) == 0 {
		return nil, config.ErrNoBotEnabled
	}
	return bots, nil
}

// baseBot carries what every site shares: config, parser, filters, the
// driver session and the monitor state that must outlive a single poll.
type baseBot struct {
	name      string
	cfg       *config.BotConfig
	layout    Layout
	url       string
	newDriver browser.Factory
	driver    browser.Driver
	logger    *utils.Logger
	parser    *services.ListingParser
	filters   services.FilterSet
	journal   storage.ReplyJournal
	stats     *services.RunStats
	seen      *utils.TextSet
}

func newBaseBot(cfg *config.BotConfig, deps Deps, url string) (*baseBot, error) {
	filters, err := services.BuildFilters(cfg.Target.Filters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Name, err)
	}
	layout, err := LayoutFor(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Target.URL != "" {
		url = cfg.Target.URL
	}

	journal := deps.Journal
	if journal == nil {
		journal = storage.NopJournal{}
	}
	logger := deps.Logger.Named(cfg.Name)

	return &baseBot{
		name:      cfg.Name,
		cfg:       cfg,
		layout:    layout,
		url:       url,
		newDriver: deps.NewDriver,
		logger:    logger,
		parser:    services.NewListingParser(logger),
		filters:   filters,
		journal:   journal,
		stats:     services.NewRunStats(cfg.Name),
		seen:      utils.NewTextSet(),
	}, nil
}

func (b *baseBot) Name() string               { return b.name }
func (b *baseBot) Stats() *services.RunStats { return b.stats }

// run acquires the browser, logs in through bot and hands over to its
// monitor loop. The browser is released on every exit path, panics
// included. Errors are logged here so the caller can ignore them.
func (b *baseBot) run(ctx context.Context, bot Bot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", b.name, r)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Error("Bot stopped: %v", err)
		}
	}()

	driver, err := b.newDriver()
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	b.driver = driver
	defer func() {
		if cerr := driver.Close(); cerr != nil {
			b.logger.Warn("Closing browser: %v", cerr)
		}
		b.driver = nil
		b.logger.Info("Browser session released")
	}()

	if err := bot.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return bot.MonitorAndReply(ctx)
}

// monitor runs the shared monitor loop with the site's reply procedure.
func (b *baseBot) monitor(ctx context.Context, reply ReplyFunc) error {
	m := &Monitor{
		bot:      b.name,
		driver:   b.driver,
		logger:   b.logger,
		parser:   b.parser,
		filters:  b.filters,
		layout:   b.layout,
		url:      b.url,
		interval: b.cfg.Interval(),
		reply:    reply,
		journal:  b.journal,
		stats:    b.stats,
		seen:     b.seen,
	}
	return m.Run(ctx)
}
