package drivertest

import (
	"context"

	"webscrape/internal/driver"
)

type element struct {
	d *Driver
	n *Node
}

// NodeOf unwraps a fake element, or returns nil for foreign elements.
func NodeOf(el driver.Element) *Node {
	if e, ok := el.(*element); ok {
		return e.n
	}
	return nil
}

func (e *element) live() error {
	if e.n.stale() {
		return driver.ErrStale
	}
	return nil
}

func (e *element) click(op string) error {
	if err := e.live(); err != nil {
		return err
	}
	e.d.record(op, e.n, "")
	if e.n.HideOnClick {
		e.n.Hidden = true
	}
	if e.n.OnClick != nil {
		e.n.OnClick()
	}
	return nil
}

func (e *element) Click(ctx context.Context) error      { return e.click(OpClick) }
func (e *element) ForceClick(ctx context.Context) error { return e.click(OpForceClick) }

func (e *element) SendKey(ctx context.Context, r rune) error {
	if err := e.live(); err != nil {
		return err
	}
	e.d.record(OpSendKey, e.n, string(r))
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	return e.n.Text, nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := e.live(); err != nil {
		return "", false, err
	}
	v, ok := e.n.Attrs[name]
	return v, ok, nil
}

func (e *element) TagName(ctx context.Context) (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	return e.n.Tag, nil
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	if err := e.live(); err != nil {
		return false, err
	}
	return !e.n.Hidden, nil
}

func (e *element) Enabled(ctx context.Context) (bool, error) {
	if err := e.live(); err != nil {
		return false, err
	}
	return !e.n.Disabled, nil
}

func (e *element) Find(ctx context.Context, xpath string) (driver.Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	nodes := e.n.query(xpath)
	if len(nodes) == 0 {
		return nil, driver.ErrNotFound
	}
	return &element{d: e.d, n: nodes[0]}, nil
}

func (e *element) FindAll(ctx context.Context, xpath string) ([]driver.Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	return e.d.wrap(e.n.query(xpath)), nil
}
