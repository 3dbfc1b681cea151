package bots

import (
	"context"
	"net/url"

	"home-rush/browser"
	"home-rush/config"
)

var holland2StayLayout = Layout{
	EmptyState:  "div.no-result-found",
	Container:   "div.residences-list",
	Item:        "div.residence-card",
	ReplyButton: "button.btn-book",
}

var holland2StayLogin = loginForm{
	CookieAccept: "button#onetrust-accept-btn-handler",
	Username:     "input#email",
	Password:     "input#pass",
	Submit:       "button#send2",
}

// Holland2StayURL is the Holland2Stay residence list filtered on city.
func Holland2StayURL(city string) string {
	return "https://www.holland2stay.com/residences?page=1&city[]=" + url.QueryEscape(city)
}

// Holland2StayBot books residences on holland2stay.com.
type Holland2StayBot struct {
	*baseBot
}

func NewHolland2StayBot(cfg *config.BotConfig, deps Deps) (*Holland2StayBot, error) {
	base, err := newBaseBot(cfg, deps, Holland2StayURL(cfg.Target.City))
	if err != nil {
		return nil, err
	}
	return &Holland2StayBot{baseBot: base}, nil
}

func (b *Holland2StayBot) Login(ctx context.Context) error {
	return b.loginWithForm(ctx, holland2StayLogin)
}

func (b *Holland2StayBot) Reply(ctx context.Context, el browser.Element) error {
	return b.replyVia(ctx, el, b.layout.ReplyButton)
}

func (b *Holland2StayBot) MonitorAndReply(ctx context.Context) error {
	return b.monitor(ctx, b.Reply)
}

func (b *Holland2StayBot) Run(ctx context.Context) error {
	return b.run(ctx, b)
}
