package session

import (
	"context"
	"errors"
	"fmt"

	"webscrape/internal/driver"
	"webscrape/internal/timing"

	"go.uber.org/zap"
)

// Status classifies a Lookup.
type Status int

const (
	// Found means the expression resolved. For multi lookups the set may
	// still be empty.
	Found Status = iota
	// TimedOut means a wait for appearance hit the ceiling. It is a degraded
	// result, not an error.
	TimedOut
	// Failed means a hard failure; Err tells which.
	Failed
)

func (st Status) String() string {
	switch st {
	case Found:
		return "found"
	case TimedOut:
		return "timed_out"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(st))
	}
}

// Lookup is the outcome of Locate.
type Lookup struct {
	Status   Status
	Elements []*Element
	err      error
}

// Err is the hard failure behind a Failed lookup, nil otherwise.
func (l Lookup) Err() error { return l.err }

// OK reports whether at least one element was found.
func (l Lookup) OK() bool { return l.Status == Found && len(l.Elements) > 0 }

// First returns the first element, or nil.
func (l Lookup) First() *Element {
	if len(l.Elements) == 0 {
		return nil
	}
	return l.Elements[0]
}

// NotFound reports a synchronous single lookup with no match.
func (l Lookup) NotFound() bool { return errors.Is(l.err, driver.ErrNotFound) }

// Failure wraps a hard error as a Lookup.
func Failure(err error) Lookup { return Lookup{Status: Failed, err: err} }

// LocateOptions select the lookup mode.
type LocateOptions struct {
	// Multi returns all matches instead of exactly one.
	Multi bool
	// Wait blocks, up to the wait ceiling, until the expression resolves.
	Wait bool
}

// Locate resolves expr against the current page.
func (s *Session) Locate(ctx context.Context, expr driver.Expr, opts LocateOptions) Lookup {
	log := s.log.With(zap.Stringer("expr", expr), zap.Bool("multi", opts.Multi))

	if opts.Wait {
		s.Pause(timing.Short)
		if err := s.Wait(ctx, driver.Presence(expr)); err != nil {
			if errors.Is(err, driver.ErrTimeout) {
				log.Warn("element never appeared", zap.Duration("ceiling", s.waitCeiling))
				return Lookup{Status: TimedOut}
			}
			return Lookup{Status: Failed, err: fmt.Errorf("wait for %s: %w", expr, err)}
		}
	}

	var lookup Lookup
	if opts.Multi {
		els, err := s.drv.FindAll(ctx, expr)
		if err != nil {
			return Lookup{Status: Failed, err: fmt.Errorf("find all %s: %w", expr, err)}
		}
		lookup.Elements = make([]*Element, 0, len(els))
		for _, el := range els {
			lookup.Elements = append(lookup.Elements, s.wrap(el))
		}
	} else {
		el, err := s.drv.Find(ctx, expr)
		if err != nil {
			log.Debug("lookup failed", zap.Error(err))
			return Lookup{Status: Failed, err: fmt.Errorf("find %s: %w", expr, err)}
		}
		lookup.Elements = []*Element{s.wrap(el)}
	}

	s.Pause(timing.Short)
	return lookup
}

// LocateOne is Locate for a single element that must be present.
func (s *Session) LocateOne(ctx context.Context, expr driver.Expr) (*Element, error) {
	l := s.Locate(ctx, expr, LocateOptions{})
	if l.Status == Failed {
		return nil, l.Err()
	}
	return l.First(), nil
}
