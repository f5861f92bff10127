package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"webscrape/internal/driver"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Protocol messages the browser returns for nodes that left the document.
var staleMessages = []string{
	"Could not find node with given id",
	"No node with given id found",
	"Node is detached",
	"Cannot find context with specified id",
	"Object reference chain is too long",
}

// RodDriver implements driver.Driver on a rod page. Lookups never retry:
// waiting is left to WaitUntil.
type RodDriver struct {
	root         *rod.Page
	frame        *rod.Page
	log          *zap.Logger
	pollInterval time.Duration
}

var _ driver.Driver = (*RodDriver)(nil)

// NewRodDriver binds a driver to page.
func NewRodDriver(page *rod.Page, log *zap.Logger) *RodDriver {
	if log == nil {
		log = zap.NewNop()
	}
	return &RodDriver{
		root:         page,
		frame:        page,
		log:          log.Named("rod"),
		pollInterval: driver.DefaultPollInterval,
	}
}

func (d *RodDriver) page(ctx context.Context) *rod.Page {
	return d.frame.Context(ctx).Sleeper(rod.NotFoundSleeper)
}

func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	d.frame = d.root
	p := d.root.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return mapErr(err)
	}
	if err := p.WaitLoad(); err != nil {
		d.log.Warn("wait load failed", zap.String("url", url), zap.Error(err))
	}
	return nil
}

func (d *RodDriver) Find(ctx context.Context, expr driver.Expr) (driver.Element, error) {
	el, err := d.page(ctx).ElementX(expr.XPath())
	if err != nil {
		return nil, mapErr(err)
	}
	return &rodElement{el: el}, nil
}

func (d *RodDriver) FindAll(ctx context.Context, expr driver.Expr) ([]driver.Element, error) {
	els, err := d.page(ctx).ElementsX(expr.XPath())
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapAll(els), nil
}

func (d *RodDriver) WaitUntil(ctx context.Context, cond driver.Condition, timeout time.Duration) error {
	return driver.Poll(ctx, d, cond, timeout, d.pollInterval)
}

// SwitchToFrame makes the content document of the iframe at expr the
// lookup root.
func (d *RodDriver) SwitchToFrame(ctx context.Context, expr driver.Expr) error {
	el, err := d.page(ctx).ElementX(expr.XPath())
	if err != nil {
		return mapErr(err)
	}
	f, err := el.Frame()
	if err != nil {
		return mapErr(err)
	}
	d.frame = f
	return nil
}

func (d *RodDriver) SwitchToDefaultFrame(ctx context.Context) error {
	d.frame = d.root
	return nil
}

func (d *RodDriver) Quit() error {
	return d.root.Close()
}

type rodElement struct {
	el *rod.Element
}

func wrapAll(els rod.Elements) []driver.Element {
	out := make([]driver.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out
}

func (e *rodElement) with(ctx context.Context) *rod.Element {
	return e.el.Context(ctx).Sleeper(rod.NotFoundSleeper)
}

func (e *rodElement) Click(ctx context.Context) error {
	return mapErr(e.with(ctx).Click(proto.InputMouseButtonLeft, 1))
}

func (e *rodElement) ForceClick(ctx context.Context) error {
	_, err := e.with(ctx).Eval(`() => this.click()`)
	return mapErr(err)
}

func (e *rodElement) SendKey(ctx context.Context, r rune) error {
	return mapErr(e.with(ctx).Input(string(r)))
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	s, err := e.with(ctx).Text()
	if err != nil {
		return "", mapErr(err)
	}
	return s, nil
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.with(ctx).Attribute(name)
	if err != nil {
		return "", false, mapErr(err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) TagName(ctx context.Context) (string, error) {
	res, err := e.with(ctx).Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return "", mapErr(err)
	}
	return res.Value.Str(), nil
}

func (e *rodElement) Visible(ctx context.Context) (bool, error) {
	v, err := e.with(ctx).Visible()
	if err != nil {
		return false, mapErr(err)
	}
	return v, nil
}

func (e *rodElement) Enabled(ctx context.Context) (bool, error) {
	res, err := e.with(ctx).Eval(`() => !this.disabled`)
	if err != nil {
		return false, mapErr(err)
	}
	return res.Value.Bool(), nil
}

func (e *rodElement) Find(ctx context.Context, xpath string) (driver.Element, error) {
	el, err := e.with(ctx).ElementX(xpath)
	if err != nil {
		return nil, mapErr(err)
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) FindAll(ctx context.Context, xpath string) ([]driver.Element, error) {
	els, err := e.with(ctx).ElementsX(xpath)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapAll(els), nil
}

// mapErr folds rod and protocol errors onto the driver sentinels, keeping
// the rod error in the chain.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var notFound *rod.ElementNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %w", driver.ErrNotFound, err)
	}
	var objectGone *rod.ObjectNotFoundError
	if errors.As(err, &objectGone) {
		return fmt.Errorf("%w: %w", driver.ErrStale, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", driver.ErrTimeout, err)
	}
	msg := err.Error()
	for _, m := range staleMessages {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %w", driver.ErrStale, err)
		}
	}
	return err
}
