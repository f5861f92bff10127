// Package driver defines the capabilities the scraping core needs from a
// browser automation backend.
package driver

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by a synchronous single-element lookup with
	// zero matches.
	ErrNotFound = errors.New("driver: element not found")
	// ErrTimeout is returned when a bounded wait exceeds its ceiling.
	ErrTimeout = errors.New("driver: wait timed out")
	// ErrStale is returned when a handle outlived the DOM it pointed into.
	ErrStale = errors.New("driver: stale element")
)

// Expr is a location expression. The short form is an attribute predicate
// such as `id='login'`; anything starting with "/", "./" or "(" is used as
// XPath verbatim.
type Expr string

// XPath returns the XPath the expression resolves to.
func (e Expr) XPath() string {
	s := strings.TrimSpace(string(e))
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "(") {
		return s
	}
	return "//*[@" + s + "]"
}

func (e Expr) String() string { return string(e) }

// Element is a live, non-owning handle to a DOM node.
type Element interface {
	Click(ctx context.Context) error
	// ForceClick dispatches a script click, bypassing visibility and
	// interactability checks.
	ForceClick(ctx context.Context) error
	SendKey(ctx context.Context, r rune) error
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
	// TagName is lower case.
	TagName(ctx context.Context) (string, error)
	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	// Find and FindAll take XPath relative to the element.
	Find(ctx context.Context, xpath string) (Element, error)
	FindAll(ctx context.Context, xpath string) ([]Element, error)
}

// Driver is one browser session.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, expr Expr) (Element, error)
	FindAll(ctx context.Context, expr Expr) ([]Element, error)
	WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error
	SwitchToDefaultFrame(ctx context.Context) error
	Quit() error
}
