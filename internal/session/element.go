package session

import (
	"context"
	"fmt"

	"webscrape/internal/driver"
)

// Element is a driver handle bound to the page generation that produced it.
// Using it after the generation moved on fails with driver.ErrStale.
type Element struct {
	el  driver.Element
	gen uint64
	s   *Session
}

// Wrap binds a raw driver element to the current generation.
func (s *Session) Wrap(el driver.Element) *Element { return s.wrap(el) }

// Raw returns the driver handle after checking it is still current.
func (e *Element) Raw() (driver.Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.el, nil
}

// Stale reports whether the page moved on since the handle was obtained.
func (e *Element) Stale() bool { return e.gen != e.s.generation }

func (e *Element) check() error {
	if e.Stale() {
		return fmt.Errorf("handle from generation %d, page at %d: %w", e.gen, e.s.generation, driver.ErrStale)
	}
	return nil
}

func (e *Element) Click(ctx context.Context) error {
	if err := e.check(); err != nil {
		return err
	}
	return e.el.Click(ctx)
}

func (e *Element) ForceClick(ctx context.Context) error {
	if err := e.check(); err != nil {
		return err
	}
	return e.el.ForceClick(ctx)
}

func (e *Element) SendKey(ctx context.Context, r rune) error {
	if err := e.check(); err != nil {
		return err
	}
	return e.el.SendKey(ctx, r)
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return e.el.Text(ctx)
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := e.check(); err != nil {
		return "", false, err
	}
	return e.el.Attribute(ctx, name)
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return e.el.TagName(ctx)
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	if err := e.check(); err != nil {
		return false, err
	}
	return e.el.Visible(ctx)
}

// Find narrows to the first descendant matching a relative XPath.
func (e *Element) Find(ctx context.Context, xpath string) (*Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	child, err := e.el.Find(ctx, xpath)
	if err != nil {
		return nil, err
	}
	return &Element{el: child, gen: e.gen, s: e.s}, nil
}

// FindAll returns every descendant matching a relative XPath, in document
// order.
func (e *Element) FindAll(ctx context.Context, xpath string) ([]*Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	children, err := e.el.FindAll(ctx, xpath)
	if err != nil {
		return nil, err
	}
	out := make([]*Element, 0, len(children))
	for _, c := range children {
		out = append(out, &Element{el: c, gen: e.gen, s: e.s})
	}
	return out, nil
}
