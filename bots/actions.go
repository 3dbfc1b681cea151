package bots

import (
	"context"
	"fmt"
	"time"

	"home-rush/browser"
)

// settleDelay lets the reply confirmation animate before navigating back.
// No page condition signals that it is done.
var settleDelay = 2 * time.Second

// loginForm lists the selectors of a site's login sequence. An empty
// CookieAccept or Open skips that step.
type loginForm struct {
	CookieAccept string
	Open         string
	Username     string
	Password     string
	Submit       string
}

// loginWithForm runs the fixed login sequence. The cookie dialog is
// optional; every other step is required and its failure is returned.
func (b *baseBot) loginWithForm(ctx context.Context, form loginForm) error {
	d := b.driver

	if err := d.Navigate(ctx, b.cfg.Login.URL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}

	if form.CookieAccept != "" {
		if btn, err := d.WaitClickable(ctx, form.CookieAccept, browser.DefaultWait); err != nil {
			b.logger.Warn("Cookies banner not found or already accepted.")
		} else if err := d.Click(ctx, btn); err != nil {
			b.logger.Warn("Could not dismiss cookies banner: %v", err)
		}
	}

	if form.Open != "" {
		if err := b.clickRequired(ctx, "login button", form.Open); err != nil {
			return err
		}
	}
	if err := b.typeRequired(ctx, "username field", form.Username, b.cfg.Login.Username); err != nil {
		return err
	}
	if err := b.typeRequired(ctx, "password field", form.Password, b.cfg.Login.Password); err != nil {
		return err
	}

	before, err := d.CurrentURL(ctx)
	if err != nil {
		return fmt.Errorf("read login url: %w", err)
	}
	if err := b.clickRequired(ctx, "submit button", form.Submit); err != nil {
		return err
	}

	if err := d.WaitURLChange(ctx, before, browser.DefaultWait); err != nil {
		b.logger.Warn("Login might have failed. Check the page after submission.")
		return fmt.Errorf("wait for login redirect: %w", err)
	}

	b.logger.Info("Logged in successfully!")
	return nil
}

func (b *baseBot) clickRequired(ctx context.Context, what, selector string) error {
	el, err := b.driver.WaitClickable(ctx, selector, browser.DefaultWait)
	if err == nil {
		err = b.driver.Click(ctx, el)
	}
	if err != nil {
		b.logger.Error("%s not found or not interactable.", what)
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func (b *baseBot) typeRequired(ctx context.Context, what, selector, text string) error {
	el, err := b.driver.WaitVisible(ctx, selector, browser.DefaultWait)
	if err == nil {
		err = b.driver.SendText(ctx, el, text)
	}
	if err != nil {
		b.logger.Error("%s not found.", what)
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// replyVia opens the listing el, clicks the reply control and returns to
// the listing page. Once the listing is open, going back happens on
// success and failure alike, and returns only after the listing container
// is visible again so the next listing can be resolved.
func (b *baseBot) replyVia(ctx context.Context, el browser.Element, button string) error {
	d := b.driver

	if err := d.ScrollIntoView(ctx, el); err != nil {
		return fmt.Errorf("scroll to listing: %w", err)
	}

	if err := d.Click(ctx, el); err != nil {
		return fmt.Errorf("open listing: %w", err)
	}
	defer func() {
		if berr := d.Back(ctx); berr != nil {
			b.logger.Warn("Could not return to the listing page: %v", berr)
			return
		}
		if _, werr := d.WaitVisible(ctx, b.layout.Container, browser.DefaultWait); werr != nil {
			b.logger.Warn("Listing page did not render after going back: %v", werr)
		}
	}()

	btn, err := d.WaitClickable(ctx, button, browser.DefaultWait)
	if err != nil {
		return fmt.Errorf("reply button: %w", err)
	}
	if err := d.ScrollIntoView(ctx, btn); err != nil {
		return fmt.Errorf("scroll to reply button: %w", err)
	}
	if err := d.Click(ctx, btn); err != nil {
		return fmt.Errorf("click reply button: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(settleDelay):
	}
	return nil
}
