// Package paginate advances through result pages by clicking a control
// labelled "Next".
package paginate

import (
	"context"
	"fmt"

	"webscrape/internal/driver"
	"webscrape/internal/session"
	"webscrape/internal/timing"

	"go.uber.org/zap"
)

// NextLabel is the exact visible text of the control that advances a page.
const NextLabel = "Next"

// Paginator drives forward-only traversal. It keeps no page state: the only
// cursor is whether the current DOM has a Next control.
type Paginator struct {
	s   *session.Session
	log *zap.Logger
}

// New creates a Paginator.
func New(s *session.Session) *Paginator {
	return &Paginator{s: s, log: s.Logger().Named("paginate")}
}

// ClickNext clicks the first element matching expr whose text is exactly
// "Next". It returns false, without clicking, when there is none.
func (p *Paginator) ClickNext(ctx context.Context, expr driver.Expr) (bool, error) {
	l := p.s.Locate(ctx, expr, session.LocateOptions{Multi: true})
	if l.Status == session.Failed {
		return false, fmt.Errorf("pagination controls: %w", l.Err())
	}
	for _, btn := range l.Elements {
		text, err := btn.Text(ctx)
		if err != nil {
			return false, fmt.Errorf("pagination control text: %w", err)
		}
		if text != NextLabel {
			continue
		}
		if err := btn.Click(ctx); err != nil {
			return false, fmt.Errorf("click next: %w", err)
		}
		p.s.Invalidate()
		p.s.Pause(timing.PageLoad)
		return true, nil
	}
	p.log.Info("no next page", zap.Int("controls", len(l.Elements)))
	return false, nil
}

// Walk calls fn for the current page and every following one until
// ClickNext reports the end, fn fails, or maxPages pages were visited.
// A negative maxPages means no limit. It returns the number of pages seen.
func (p *Paginator) Walk(ctx context.Context, expr driver.Expr, maxPages int, fn func(ctx context.Context, page int) error) (int, error) {
	pages := 0
	for maxPages < 0 || pages < maxPages {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		pages++
		p.log.Info("visiting page", zap.Int("page", pages))
		if err := fn(ctx, pages); err != nil {
			return pages, err
		}
		if maxPages >= 0 && pages >= maxPages {
			break
		}
		more, err := p.ClickNext(ctx, expr)
		if err != nil {
			return pages, err
		}
		if !more {
			break
		}
	}
	return pages, nil
}
