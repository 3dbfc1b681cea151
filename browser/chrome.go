package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"home-rush/config"
)

// actionTimeout bounds every non-wait browser action.
const actionTimeout = 30 * time.Second

const urlPollInterval = 250 * time.Millisecond

// ChromeDriver implements Driver on a headless Chrome tab via chromedp.
type ChromeDriver struct {
	ctx    context.Context
	cancel context.CancelFunc
}

var _ Driver = (*ChromeDriver)(nil)

// NewChromeDriver launches Chrome with the configured options and opens a
// tab. The caller owns the session and must Close it.
func NewChromeDriver(cfg config.BrowserConfig) (*ChromeDriver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(1366, 900),
	)
	if cfg.NoSandbox {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if bin := findChromeBinary(cfg.ChromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	// Suppress chromedp log noise
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	d := &ChromeDriver{
		ctx: ctx,
		cancel: func() {
			cancelCtx()
			cancelAlloc()
		},
	}

	// An empty Run starts the browser so launch errors surface here.
	if err := chromedp.Run(ctx); err != nil {
		d.cancel()
		return nil, fmt.Errorf("browser: start chrome: %w", err)
	}
	return d, nil
}

// NewChromeFactory returns a Factory producing ChromeDrivers for cfg.
func NewChromeFactory(cfg config.BrowserConfig) Factory {
	return func() (Driver, error) {
		return NewChromeDriver(cfg)
	}
}

// run executes actions on the tab, bounded by timeout and cancelled with
// ctx. A deadline hit while ctx is still live is reported as ErrNotFound.
func (d *ChromeDriver) run(ctx context.Context, timeout time.Duration, what string, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("browser: %s: %w", what, err)
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, actionTimeout, "navigate "+url, chromedp.Navigate(url))
}

func (d *ChromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	err := d.run(ctx, actionTimeout, "location", chromedp.Location(&loc))
	return loc, err
}

func (d *ChromeDriver) FindSingle(ctx context.Context, selector string) (Element, error) {
	els, err := d.findAll(ctx, nil, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return els[0], nil
}

func (d *ChromeDriver) FindAll(ctx context.Context, selector string) ([]Element, error) {
	return d.findAll(ctx, nil, selector)
}

func (d *ChromeDriver) FindWithin(ctx context.Context, parent Element, selector string) ([]Element, error) {
	p, err := asChrome(parent)
	if err != nil {
		return nil, err
	}
	return d.findAll(ctx, p, selector)
}

func (d *ChromeDriver) findAll(ctx context.Context, parent *chromeElement, selector string) ([]Element, error) {
	nodes, err := d.query(ctx, parent, selector)
	if err != nil {
		return nil, err
	}
	els := make([]Element, len(nodes))
	for i := range nodes {
		els[i] = &chromeElement{parent: parent, selector: selector, index: i}
	}
	return els, nil
}

func (d *ChromeDriver) query(ctx context.Context, parent *chromeElement, selector string) ([]*cdp.Node, error) {
	opts := []chromedp.QueryOption{chromedp.AtLeast(0)}
	if IsXPath(selector) {
		opts = append(opts, chromedp.BySearch)
	} else {
		opts = append(opts, chromedp.ByQueryAll)
	}
	if parent != nil {
		pn, err := d.resolve(ctx, parent)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chromedp.FromNode(pn))
	}

	var nodes []*cdp.Node
	if err := d.run(ctx, actionTimeout, "query "+selector, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, err
	}
	return nodes, nil
}

// resolve finds the live node behind el. When el's text was read before,
// the node at el's index must still carry that text; otherwise the
// siblings are searched for it, since the list may have re-rendered.
func (d *ChromeDriver) resolve(ctx context.Context, el *chromeElement) (*cdp.Node, error) {
	nodes, err := d.query(ctx, el.parent, el.selector)
	if err != nil {
		return nil, err
	}
	if el.text == "" {
		if el.index < len(nodes) {
			return nodes[el.index], nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, el)
	}

	if el.index < len(nodes) {
		if text, err := d.nodeText(ctx, nodes[el.index]); err == nil && text == el.text {
			return nodes[el.index], nil
		}
	}
	for i, n := range nodes {
		if text, err := d.nodeText(ctx, n); err == nil && text == el.text {
			el.index = i
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (listing gone)", ErrNotFound, el)
}

func (d *ChromeDriver) nodeText(ctx context.Context, n *cdp.Node) (string, error) {
	var text string
	err := d.run(ctx, actionTimeout, "text", chromedp.Text([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID))
	return strings.TrimSpace(text), err
}

// Text returns the rendered text of el and remembers it, so later actions
// on el target the same listing.
func (d *ChromeDriver) Text(ctx context.Context, el Element) (string, error) {
	e, err := asChrome(el)
	if err != nil {
		return "", err
	}
	n, err := d.resolve(ctx, e)
	if err != nil {
		return "", err
	}
	text, err := d.nodeText(ctx, n)
	if err != nil {
		return "", err
	}
	e.text = text
	return text, nil
}

func (d *ChromeDriver) WaitVisible(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	if err := d.run(ctx, timeout, "visible "+selector, chromedp.WaitVisible(selector, by(selector))); err != nil {
		return nil, err
	}
	return &chromeElement{selector: selector}, nil
}

func (d *ChromeDriver) WaitClickable(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	err := d.run(ctx, timeout, "clickable "+selector,
		chromedp.WaitVisible(selector, by(selector)),
		chromedp.WaitEnabled(selector, by(selector)),
	)
	if err != nil {
		return nil, err
	}
	return &chromeElement{selector: selector}, nil
}

func (d *ChromeDriver) WaitURLChange(ctx context.Context, from string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		loc, err := d.CurrentURL(ctx)
		if err != nil {
			return err
		}
		if loc != from {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: url change from %s", ErrNotFound, from)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(urlPollInterval):
		}
	}
}

func (d *ChromeDriver) ScrollIntoView(ctx context.Context, el Element) error {
	return d.onNode(ctx, el, "scroll", func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.ScrollIntoView(ids, chromedp.ByNodeID)
	})
}

func (d *ChromeDriver) Click(ctx context.Context, el Element) error {
	return d.onNode(ctx, el, "click", func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.Click(ids, chromedp.ByNodeID)
	})
}

func (d *ChromeDriver) SendText(ctx context.Context, el Element, text string) error {
	return d.onNode(ctx, el, "send keys", func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.SendKeys(ids, text, chromedp.ByNodeID)
	})
}

func (d *ChromeDriver) onNode(ctx context.Context, el Element, what string, action func([]cdp.NodeID) chromedp.Action) error {
	e, err := asChrome(el)
	if err != nil {
		return err
	}
	n, err := d.resolve(ctx, e)
	if err != nil {
		return err
	}
	return d.run(ctx, actionTimeout, what+" "+e.String(), action([]cdp.NodeID{n.NodeID}))
}

func (d *ChromeDriver) Back(ctx context.Context) error {
	return d.run(ctx, actionTimeout, "back", chromedp.NavigateBack())
}

func (d *ChromeDriver) Refresh(ctx context.Context) error {
	return d.run(ctx, actionTimeout, "reload", chromedp.Reload())
}

// Close shuts the browser down. It is safe to call more than once.
func (d *ChromeDriver) Close() error {
	err := chromedp.Cancel(d.ctx)
	d.cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func by(selector string) chromedp.QueryOption {
	if IsXPath(selector) {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// chromeElement addresses a node by query path rather than node ID, since
// node IDs do not survive navigation.
type chromeElement struct {
	parent   *chromeElement
	selector string
	index    int
	text     string
}

func (e *chromeElement) String() string {
	s := fmt.Sprintf("%s[%d]", e.selector, e.index)
	if e.parent != nil {
		return e.parent.String() + " > " + s
	}
	return s
}

func asChrome(el Element) (*chromeElement, error) {
	e, ok := el.(*chromeElement)
	if !ok || e == nil {
		return nil, fmt.Errorf("browser: foreign element %v", el)
	}
	return e, nil
}

// findChromeBinary locates Chrome/Chromium, preferring the configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
