// Package popup opens a detail overlay for a list row and hands back its
// content root.
package popup

import (
	"context"
	"errors"
	"fmt"

	"webscrape/internal/driver"
	"webscrape/internal/interact"
	"webscrape/internal/session"
	"webscrape/internal/timing"

	"go.uber.org/zap"
)

// Opener opens and closes modal overlays.
type Opener struct {
	s   *session.Session
	it  *interact.Interactor
	log *zap.Logger
}

// New creates an Opener.
func New(s *session.Session) *Opener {
	return &Opener{s: s, it: interact.New(s), log: s.Logger().Named("popup")}
}

// Open waits until target is clickable, force-clicks it and locates the
// modal content root. The click is dispatched by script and skips the
// driver's interactability checks. A target that never becomes clickable
// yields a TimedOut lookup.
func (o *Opener) Open(ctx context.Context, target *session.Element, content driver.Expr) session.Lookup {
	l, _ := o.Detail(ctx, target, content)
	return l
}

// Detail is Open that also reports whether the click went out. When opened
// is true the overlay may be showing even though the lookup failed, and the
// caller owns closing it.
func (o *Opener) Detail(ctx context.Context, target *session.Element, content driver.Expr) (l session.Lookup, opened bool) {
	raw, err := target.Raw()
	if err != nil {
		return session.Failure(err), false
	}
	if err := o.s.Wait(ctx, driver.Clickable(raw)); err != nil {
		if errors.Is(err, driver.ErrTimeout) {
			o.log.Warn("modal trigger never became clickable", zap.Duration("ceiling", o.s.WaitCeiling()))
			return session.Lookup{Status: session.TimedOut}, false
		}
		return session.Failure(fmt.Errorf("open modal: %w", err)), false
	}
	if err := target.ForceClick(ctx); err != nil {
		return session.Failure(fmt.Errorf("open modal click: %w", err)), false
	}
	l = o.s.Locate(ctx, content, session.LocateOptions{})
	if l.Status != session.Found {
		return l, true
	}
	o.s.Pause(timing.PageLoad)
	return l, true
}

// Close dismisses the modal through its close control.
func (o *Opener) Close(ctx context.Context, closeExpr driver.Expr) error {
	btn, err := o.s.LocateOne(ctx, closeExpr)
	if err != nil {
		return fmt.Errorf("close modal: %w", err)
	}
	return o.it.Dismiss(ctx, btn)
}
