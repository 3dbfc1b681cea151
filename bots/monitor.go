package bots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"home-rush/browser"
	"home-rush/models"
	"home-rush/services"
	"home-rush/storage"
	"home-rush/utils"
)

// State is the monitor loop's current step.
type State int

const (
	StateInitializing State = iota
	StatePolling
	StateExtracting
	StateFiltering
	StateReplying
	StateSleeping
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StatePolling:
		return "polling"
	case StateExtracting:
		return "extracting"
	case StateFiltering:
		return "filtering"
	case StateReplying:
		return "replying"
	case StateSleeping:
		return "sleeping"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ReplyFunc attempts a reply to the listing el. It must leave the browser
// on the listing page when it returns.
type ReplyFunc func(ctx context.Context, el browser.Element) error

// Monitor is the poll, extract, filter, reply, sleep loop of one site.
type Monitor struct {
	bot      string
	driver   browser.Driver
	logger   *utils.Logger
	parser   *services.ListingParser
	filters  services.FilterSet
	layout   Layout
	url      string
	interval time.Duration
	reply    ReplyFunc
	journal  storage.ReplyJournal
	stats    *services.RunStats
	// seen holds the normalised text of every listing replied to in this
	// run; such listings parse as responded.
	seen *utils.TextSet

	state State
}

// candidate pairs a listing element with the offer parsed from its text.
type candidate struct {
	el    browser.Element
	key   string
	offer models.HousingOffer
}

// State returns the step the loop is in.
func (m *Monitor) State() State {
	return m.state
}

func (m *Monitor) setState(s State) {
	m.logger.Debug("state %s -> %s", m.state, s)
	m.state = s
}

// Run opens the listing page and polls until ctx is cancelled, which is
// the only way it returns.
func (m *Monitor) Run(ctx context.Context) error {
	m.setState(StateInitializing)
	m.logger.Info("Filters: %s", strings.Join(m.filters.Names(), ", "))

	if err := m.driver.Navigate(ctx, m.url); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.logger.Warn("Could not open %s: %v", m.url, err)
	} else {
		m.logger.Info("Navigated to %s", m.url)
	}

	for {
		m.Poll(ctx)

		m.setState(StateSleeping)
		if err := sleep(ctx, m.interval); err != nil {
			return err
		}
		m.reload(ctx)
	}
}

// Poll runs one cycle on the page as it is now and returns the number of
// successful replies.
func (m *Monitor) Poll(ctx context.Context) int {
	m.setState(StatePolling)
	if m.emptyState(ctx) {
		m.logger.Info("No new offers found")
		m.stats.RecordEmpty()
		return 0
	}

	m.setState(StateExtracting)
	candidates := m.extract(ctx)

	m.setState(StateFiltering)
	matches := services.ApplyFilters(candidates,
		func(c *candidate) *models.HousingOffer { return &c.offer }, m.filters)
	m.stats.RecordPoll(len(candidates), len(matches))

	if len(matches) == 0 {
		m.logger.Info("No new offers found")
		return 0
	}

	m.setState(StateReplying)
	m.logger.Info("Found %d new offers", len(matches))

	replied := 0
	for _, c := range matches {
		if ctx.Err() != nil {
			break
		}
		if m.attempt(ctx, c) {
			replied++
		}
	}
	return replied
}

func (m *Monitor) emptyState(ctx context.Context) bool {
	if m.layout.EmptyState == "" {
		return false
	}
	_, err := m.driver.WaitVisible(ctx, m.layout.EmptyState, browser.ShortWait)
	return err == nil
}

// extract reads and parses every listing in the container. A missing
// container means nothing to do this cycle.
func (m *Monitor) extract(ctx context.Context) []*candidate {
	container, err := m.driver.WaitVisible(ctx, m.layout.Container, browser.DefaultWait)
	if err != nil {
		m.logger.Warn("List container or items not found on the page: %v", err)
		return nil
	}

	items, err := m.driver.FindWithin(ctx, container, m.layout.Item)
	if err != nil {
		m.logger.Warn("List container or items not found on the page: %v", err)
		return nil
	}
	m.logger.Debug("Found %d items in the list", len(items))

	candidates := make([]*candidate, 0, len(items))
	for _, el := range items {
		raw, err := m.driver.Text(ctx, el)
		if err != nil {
			m.logger.Warn("Could not read listing %s: %v", el, err)
			continue
		}

		c := &candidate{
			el:    el,
			key:   strings.Join(services.Segments(raw), "\n"),
			offer: m.parser.Parse(raw),
		}
		if m.seen.Contains(c.key) {
			c.offer.Responded = true
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// attempt replies to one candidate. Failures, panics included, stay
// local to this candidate.
func (m *Monitor) attempt(ctx context.Context, c *candidate) bool {
	err := m.safeReply(ctx, c.el)
	if err == nil {
		c.offer.Responded = true
		m.seen.Add(c.key)
		m.logger.Info("Replied to offer: %s", c.offer)
	} else {
		m.logger.Error("Failed to reply to offer [%s]: %v", c.offer, err)
	}

	m.stats.RecordReply(c.offer, err)
	if jerr := m.journal.Record(models.NewReplyRecord(m.bot, c.key, c.offer, err)); jerr != nil {
		m.logger.Warn("Could not journal reply: %v", jerr)
	}
	return err == nil
}

func (m *Monitor) safeReply(ctx context.Context, el browser.Element) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.reply(ctx, el)
}

// reload re-fetches the listing page. It navigates to the listing URL
// when a reply left the browser elsewhere or the refresh fails.
func (m *Monitor) reload(ctx context.Context) {
	cur, err := m.driver.CurrentURL(ctx)
	if err == nil && cur == m.url {
		if err = m.driver.Refresh(ctx); err == nil {
			m.logger.Info("Page refreshed")
			return
		}
		m.logger.Warn("Page refresh failed: %v", err)
	}

	if err := m.driver.Navigate(ctx, m.url); err != nil {
		m.logger.Warn("Could not reopen %s: %v", m.url, err)
		return
	}
	m.logger.Info("Page reloaded")
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
