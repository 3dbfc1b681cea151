package bots

import (
	"context"
	"fmt"
	"net/url"

	"home-rush/browser"
	"home-rush/config"
)

var plazaLayout = Layout{
	EmptyState:  "div.icon-br_sad.empty-state-icon + div.empty-state-text h2.ng-binding",
	Container:   "div.object-list-items-container",
	Item:        "section.list-item",
	ReplyButton: "input.reageer-button[value='Reageer']",
}

var plazaLogin = loginForm{
	CookieAccept: "button#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll",
	Open: "//zds-navigation-link[contains(@class, 'hydrated')]//span[contains(text(), 'Inloggen')]" +
		" | //zds-navigation-link[contains(@class, 'hydrated')]//zds-icon[@name='person_outline']",
	Username: "#username",
	Password: "#password",
	Submit:   "input[type='submit']",
}

// PlazaURL is the Plaza offer page for city within region, sorted by the
// account's search profile.
func PlazaURL(city, region string) string {
	return fmt.Sprintf(
		"https://plaza.newnewnew.space/aanbod/wonen#?gesorteerd-op=zoekprofiel&locatie=%s-Nederland%%2B-%%2B%s",
		url.PathEscape(city), url.PathEscape(region))
}

// PlazaBot replies to offers on plaza.newnewnew.space.
type PlazaBot struct {
	*baseBot
}

func NewPlazaBot(cfg *config.BotConfig, deps Deps) (*PlazaBot, error) {
	base, err := newBaseBot(cfg, deps, PlazaURL(cfg.Target.City, cfg.Target.Region))
	if err != nil {
		return nil, err
	}
	return &PlazaBot{baseBot: base}, nil
}

func (b *PlazaBot) Login(ctx context.Context) error {
	return b.loginWithForm(ctx, plazaLogin)
}

// Reply opens the offer and presses "Reageer".
func (b *PlazaBot) Reply(ctx context.Context, el browser.Element) error {
	return b.replyVia(ctx, el, b.layout.ReplyButton)
}

func (b *PlazaBot) MonitorAndReply(ctx context.Context) error {
	return b.monitor(ctx, b.Reply)
}

func (b *PlazaBot) Run(ctx context.Context) error {
	return b.run(ctx, b)
}
