package driver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultPollInterval is how often Poll re-evaluates a condition.
const DefaultPollInterval = 250 * time.Millisecond

// Condition reports whether a wait is satisfied.
type Condition func(ctx context.Context, d Driver) (bool, error)

// Presence is satisfied once expr resolves to at least one element.
func Presence(expr Expr) Condition {
	return func(ctx context.Context, d Driver) (bool, error) {
		els, err := d.FindAll(ctx, expr)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return len(els) > 0, nil
	}
}

// Invisibility is satisfied once el is hidden or gone from the DOM.
func Invisibility(el Element) Condition {
	return func(ctx context.Context, _ Driver) (bool, error) {
		visible, err := el.Visible(ctx)
		if err != nil {
			if errors.Is(err, ErrStale) || errors.Is(err, ErrNotFound) {
				return true, nil
			}
			return false, err
		}
		return !visible, nil
	}
}

// Clickable is satisfied once el is visible and enabled.
func Clickable(el Element) Condition {
	return func(ctx context.Context, _ Driver) (bool, error) {
		visible, err := el.Visible(ctx)
		if err != nil || !visible {
			return false, err
		}
		return el.Enabled(ctx)
	}
}

// Poll evaluates cond every interval until it holds, it fails, ctx ends or
// timeout elapses. Exceeding timeout returns ErrTimeout.
func Poll(ctx context.Context, d Driver, cond Condition, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(ctx, d)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("after %s: %w", timeout, ErrTimeout)
		case <-ticker.C:
		}
	}
}
