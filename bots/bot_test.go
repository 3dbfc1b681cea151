package bots

import (
	"context"
	"errors"
	"strings"
	"testing"

	"home-rush/browser"
	"home-rush/config"
)

func testBotConfig(name string) *config.BotConfig {
	return &config.BotConfig{
		Name:         name,
		Enabled:      true,
		PollInterval: 1,
		Login:        config.LoginConfig{URL: "https://example.test/login", Username: "user", Password: "secret"},
		Target:       config.TargetConfig{City: "Delft", Region: "Zuid-Holland"},
		Selectors: config.Selectors{
			EmptyState:  testLayout.EmptyState,
			Container:   testLayout.Container,
			Item:        testLayout.Item,
			ReplyButton: testLayout.ReplyButton,
		},
	}
}

func newTestPlaza(t *testing.T, d *fakeDriver) *PlazaBot {
	t.Helper()
	bot, err := NewPlazaBot(testBotConfig(config.BotPlaza), Deps{
		NewDriver: func() (browser.Driver, error) { return d, nil },
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("new plaza bot: %v", err)
	}
	bot.driver = d
	return bot
}

func TestLoginCookieBannerIsOptional(t *testing.T) {
	d := newFakeDriver()
	d.missing[plazaLogin.CookieAccept] = true
	bot := newTestPlaza(t, d)

	if err := bot.Login(context.Background()); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !d.called("type #username user") || !d.called("type #password secret") {
		t.Errorf("credentials not typed: %v", d.calls)
	}
	if !d.called("click " + plazaLogin.Submit) {
		t.Error("form not submitted")
	}
}

func TestLoginMissingFieldIsFatal(t *testing.T) {
	d := newFakeDriver()
	d.missing["#password"] = true
	bot := newTestPlaza(t, d)

	err := bot.Login(context.Background())
	if !errors.Is(err, browser.ErrNotFound) {
		t.Fatalf("login: got %v, want ErrNotFound", err)
	}
	if d.called("click " + plazaLogin.Submit) {
		t.Error("form submitted without password")
	}
}

func TestLoginRequiresRedirect(t *testing.T) {
	d := newFakeDriver()
	d.urlChangeErr = browser.ErrNotFound
	bot := newTestPlaza(t, d)

	if err := bot.Login(context.Background()); err == nil {
		t.Fatal("login succeeded without leaving the login page")
	}
}

func TestReplyGoesBackAfterFailure(t *testing.T) {
	d := newFakeDriver("offer")
	d.missing[testLayout.ReplyButton] = true
	bot := newTestPlaza(t, d)

	err := bot.Reply(context.Background(), d.items[0])
	if !errors.Is(err, browser.ErrNotFound) {
		t.Fatalf("reply: got %v, want ErrNotFound", err)
	}
	if !d.called("back") {
		t.Error("did not return to the listing page")
	}
}

func TestReplyNoBackWhenListingNotOpened(t *testing.T) {
	d := newFakeDriver("offer")
	d.failClick["item-1"] = errors.New("not clickable")
	bot := newTestPlaza(t, d)

	if err := bot.Reply(context.Background(), d.items[0]); err == nil {
		t.Fatal("reply succeeded on unclickable listing")
	}
	if d.called("back") {
		t.Error("navigated back without opening the listing")
	}
}

func TestReplyClicksButton(t *testing.T) {
	saved := settleDelay
	settleDelay = 0
	t.Cleanup(func() { settleDelay = saved })

	d := newFakeDriver("offer")
	bot := newTestPlaza(t, d)

	if err := bot.Reply(context.Background(), d.items[0]); err != nil {
		t.Fatalf("reply: %v", err)
	}
	want := []string{"click item-1", "wait " + testLayout.ReplyButton, "click " + testLayout.ReplyButton, "back", "wait " + testLayout.Container}
	if strings.Join(d.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls: got %v, want %v", d.calls, want)
	}
}

func TestRunReleasesDriverOnLoginFailure(t *testing.T) {
	d := newFakeDriver()
	d.missing["#username"] = true
	bot := newTestPlaza(t, d)

	if err := bot.Run(context.Background()); err == nil {
		t.Fatal("run: want login error")
	}
	if !d.closed {
		t.Error("driver not closed")
	}
	if bot.driver != nil {
		t.Error("driver still attached after run")
	}
}

func TestRunReleasesDriverOnPanic(t *testing.T) {
	d := newFakeDriver()
	d.panicOn = "navigate"
	bot := newTestPlaza(t, d)

	err := bot.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "panic") {
		t.Fatalf("run: got %v, want panic error", err)
	}
	if !d.closed {
		t.Error("driver not closed")
	}
}

func TestRunBrowserStartFailure(t *testing.T) {
	bot, err := NewHolland2StayBot(testBotConfig(config.BotHolland2Stay), Deps{
		NewDriver: func() (browser.Driver, error) { return nil, errors.New("no chrome") },
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	if err := bot.Run(context.Background()); err == nil {
		t.Fatal("run: want browser start error")
	}
}

const botsYAML = `
plaza:
  enabled: true
  login:
    url: https://plaza.newnewnew.space/
  target:
    city: Delft
    region: Zuid-Holland
holland2stay:
  enabled: true
  login:
    url: https://www.holland2stay.com/customer/account/login
  target:
    city: Delft
`

func TestFromConfigOrder(t *testing.T) {
	cfg, err := config.Parse([]byte(botsYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	bots, err := FromConfig(cfg, Deps{Logger: testLogger()})
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	if len(bots) != 2 || bots[0].Name() != config.BotPlaza || bots[1].Name() != config.BotHolland2Stay {
		t.Fatalf("bots: got %d, want plaza then holland2stay", len(bots))
	}

	plaza := bots[0].(*PlazaBot)
	if want := PlazaURL("Delft", "Zuid-Holland"); plaza.url != want {
		t.Errorf("plaza url: got %q, want %q", plaza.url, want)
	}
	if plaza.layout != plazaLayout {
		t.Errorf("plaza layout: got %+v", plaza.layout)
	}
}

func TestFromConfigUnknownFilter(t *testing.T) {
	cfg, err := config.Parse([]byte(botsYAML + "    filters:\n      balcony:\n        eq: 1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := FromConfig(cfg, Deps{Logger: testLogger()}); err == nil {
		t.Fatal("from config: want unknown filter error")
	}
}

func TestURLs(t *testing.T) {
	got := PlazaURL("Den Haag", "Zuid-Holland")
	want := "https://plaza.newnewnew.space/aanbod/wonen#?gesorteerd-op=zoekprofiel&locatie=Den%20Haag-Nederland%2B-%2BZuid-Holland"
	if got != want {
		t.Errorf("plaza: got %q, want %q", got, want)
	}
	if got := Holland2StayURL("Den Haag"); got != "https://www.holland2stay.com/residences?page=1&city[]=Den+Haag" {
		t.Errorf("holland2stay: got %q", got)
	}
}

func TestLayoutOverrides(t *testing.T) {
	cfg := &config.BotConfig{Name: config.BotHolland2Stay, Selectors: config.Selectors{Item: "li.card"}}
	l, err := LayoutFor(cfg)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if l.Item != "li.card" || l.Container != holland2StayLayout.Container {
		t.Errorf("layout: got %+v", l)
	}
	if _, err := LayoutFor(&config.BotConfig{Name: "pararius"}); err == nil {
		t.Error("unknown site accepted")
	}
}

func TestReplyWaitsForListingsAfterBack(t *testing.T) {
	saved := settleDelay
	settleDelay = 0
	t.Cleanup(func() { settleDelay = saved })

	d := threeListings()
	d.rerender = true
	bot := newTestPlaza(t, d)
	m, _ := newTestMonitor(d, bot.Reply)

	if got := m.Poll(context.Background()); got != 3 {
		t.Errorf("replies: got %d, want 3", got)
	}
	for _, id := range []string{"item-1", "item-2", "item-3"} {
		if !d.called("click " + id) {
			t.Errorf("%s never opened", id)
		}
	}
}
