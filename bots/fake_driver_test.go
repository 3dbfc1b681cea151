package bots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"home-rush/browser"
	"home-rush/models"
	"home-rush/services"
	"home-rush/utils"
)

type fakeElement struct {
	id   string
	text string
}

func (e *fakeElement) String() string { return e.id }

// fakeDriver is an in-memory page. Every selector is present unless listed
// in missing; the empty state shows only when empty is set.
type fakeDriver struct {
	mu sync.Mutex

	url     string
	items   []*fakeElement
	missing map[string]bool
	empty   bool

	failClick    map[string]error
	panicOn      string
	urlChangeErr error
	refreshErr   error

	// rerender makes Back leave the listings unresolvable until the
	// container has been waited for again.
	rerender  bool
	rendering bool

	calls  []string
	closed bool
}

func newFakeDriver(items ...string) *fakeDriver {
	d := &fakeDriver{missing: map[string]bool{}, failClick: map[string]error{}}
	for i, text := range items {
		d.items = append(d.items, &fakeElement{id: fmt.Sprintf("item-%d", i+1), text: text})
	}
	return d
}

func (d *fakeDriver) record(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDriver) called(call string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (d *fakeDriver) check(op string) {
	if d.panicOn == op {
		panic("fake driver: " + op)
	}
}

func (d *fakeDriver) lookup(selector string) (browser.Element, error) {
	if d.missing[selector] || (selector == testLayout.EmptyState && !d.empty) {
		return nil, fmt.Errorf("%s: %w", selector, browser.ErrNotFound)
	}
	return &fakeElement{id: selector}, nil
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.check("navigate")
	d.record("navigate %s", url)
	d.url = url
	return nil
}

func (d *fakeDriver) CurrentURL(context.Context) (string, error) { return d.url, nil }

func (d *fakeDriver) FindSingle(_ context.Context, selector string) (browser.Element, error) {
	return d.lookup(selector)
}

func (d *fakeDriver) FindAll(_ context.Context, selector string) ([]browser.Element, error) {
	el, err := d.lookup(selector)
	if err != nil {
		return nil, nil
	}
	return []browser.Element{el}, nil
}

func (d *fakeDriver) FindWithin(context.Context, browser.Element, string) ([]browser.Element, error) {
	out := make([]browser.Element, len(d.items))
	for i, it := range d.items {
		out[i] = it
	}
	return out, nil
}

func (d *fakeDriver) Text(_ context.Context, el browser.Element) (string, error) {
	return el.(*fakeElement).text, nil
}

func (d *fakeDriver) WaitVisible(_ context.Context, selector string, _ time.Duration) (browser.Element, error) {
	d.record("wait %s", selector)
	if selector == testLayout.Container {
		d.rendering = false
	}
	return d.lookup(selector)
}

func (d *fakeDriver) WaitClickable(_ context.Context, selector string, _ time.Duration) (browser.Element, error) {
	d.record("wait %s", selector)
	return d.lookup(selector)
}

func (d *fakeDriver) WaitURLChange(context.Context, string, time.Duration) error {
	return d.urlChangeErr
}

func (d *fakeDriver) ScrollIntoView(_ context.Context, el browser.Element) error {
	if d.rendering && strings.HasPrefix(el.String(), "item-") {
		return fmt.Errorf("%s: %w (listing gone)", el, browser.ErrNotFound)
	}
	return nil
}

func (d *fakeDriver) Click(_ context.Context, el browser.Element) error {
	d.record("click %s", el)
	if err := d.failClick[el.String()]; err != nil {
		return err
	}
	d.url = "clicked:" + el.String()
	return nil
}

func (d *fakeDriver) SendText(_ context.Context, el browser.Element, text string) error {
	d.record("type %s %s", el, text)
	return nil
}

func (d *fakeDriver) Back(context.Context) error {
	d.record("back")
	d.rendering = d.rerender
	return nil
}

func (d *fakeDriver) Refresh(context.Context) error {
	d.record("refresh")
	return d.refreshErr
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

var testLayout = Layout{
	EmptyState:  "div.empty",
	Container:   "div.list",
	Item:        "section.item",
	ReplyButton: "button.reply",
}

// memJournal keeps every record in memory.
type memJournal struct {
	mu      sync.Mutex
	records []*models.ReplyRecord
}

func (j *memJournal) Record(r *models.ReplyRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, r)
	return nil
}

func (j *memJournal) Close() error { return nil }

func testLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard) }

func newTestMonitor(d *fakeDriver, reply ReplyFunc) (*Monitor, *memJournal) {
	logger := testLogger()
	journal := &memJournal{}
	return &Monitor{
		bot:      "test",
		driver:   d,
		logger:   logger,
		parser:   services.NewListingParser(logger),
		layout:   testLayout,
		url:      "https://example.test/offers",
		interval: time.Millisecond,
		reply:    reply,
		journal:  journal,
		stats:    services.NewRunStats("test"),
		seen:     utils.NewTextSet(),
	}, journal
}

// replyRecorder is a ReplyFunc that records the listings it saw and fails
// for those listed in fail.
type replyRecorder struct {
	mu   sync.Mutex
	seen []string
	fail map[string]error
}

func (r *replyRecorder) reply(_ context.Context, el browser.Element) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, el.String())
	if err := r.fail[el.String()]; err != nil {
		return err
	}
	return nil
}

var errReply = errors.New("reply button missing")
