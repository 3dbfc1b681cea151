// Package browser is the page-automation capability the bots drive.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned (wrapped) when an element or condition does not
// show up within the allotted time. Callers treat it as transient.
var ErrNotFound = errors.New("browser: not found in time")

// Default bounds for waits.
const (
	ShortWait   = 2 * time.Second
	DefaultWait = 10 * time.Second
)

// Element is an opaque handle to a page element. It stays usable across
// Back and Refresh as long as the element is still on the page.
type Element interface {
	String() string
}

// Driver is one browser session. Selectors are CSS unless they start with
// "/" or "(", in which case they are XPath.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)

	FindSingle(ctx context.Context, selector string) (Element, error)
	FindAll(ctx context.Context, selector string) ([]Element, error)
	FindWithin(ctx context.Context, parent Element, selector string) ([]Element, error)
	Text(ctx context.Context, el Element) (string, error)

	WaitVisible(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	WaitClickable(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	WaitURLChange(ctx context.Context, from string, timeout time.Duration) error

	ScrollIntoView(ctx context.Context, el Element) error
	Click(ctx context.Context, el Element) error
	SendText(ctx context.Context, el Element, text string) error

	Back(ctx context.Context) error
	Refresh(ctx context.Context) error
	Close() error
}

// Factory starts a new Driver session.
type Factory func() (Driver, error)

// IsXPath reports whether selector should be evaluated as XPath.
func IsXPath(selector string) bool {
	return len(selector) > 0 && (selector[0] == '/' || selector[0] == '(')
}
