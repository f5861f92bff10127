// Package session threads one browser session through every scraping
// operation and owns element location.
package session

import (
	"context"
	"fmt"
	"time"

	"webscrape/internal/driver"
	"webscrape/internal/timing"

	"go.uber.org/zap"
)

// DefaultWaitCeiling bounds every appearance, visibility and clickability
// wait.
const DefaultWaitCeiling = 60 * time.Second

// Session is the explicit context of a single browser page. It is not safe
// for concurrent use: every call depends on the current page state.
type Session struct {
	drv         driver.Driver
	pacer       *timing.Pacer
	log         *zap.Logger
	waitCeiling time.Duration
	generation  uint64
}

// Option configures a Session.
type Option func(*Session)

// WithPacer sets the delay source.
func WithPacer(p *timing.Pacer) Option {
	return func(s *Session) { s.pacer = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithWaitCeiling overrides DefaultWaitCeiling.
func WithWaitCeiling(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.waitCeiling = d
		}
	}
}

// New wraps drv.
func New(drv driver.Driver, opts ...Option) *Session {
	s := &Session{
		drv:         drv,
		waitCeiling: DefaultWaitCeiling,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pacer == nil {
		s.pacer = timing.New()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Driver returns the underlying driver.
func (s *Session) Driver() driver.Driver { return s.drv }

// Pacer returns the delay source.
func (s *Session) Pacer() *timing.Pacer { return s.pacer }

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger { return s.log }

// WaitCeiling returns the bound applied to waits.
func (s *Session) WaitCeiling() time.Duration { return s.waitCeiling }

// Generation identifies the current DOM. It moves on after navigation.
func (s *Session) Generation() uint64 { return s.generation }

// Invalidate marks every handle obtained so far as stale. Call it after any
// action that replaces the page.
func (s *Session) Invalidate() {
	s.generation++
	s.log.Debug("page generation advanced", zap.Uint64("generation", s.generation))
}

// Navigate loads url and invalidates existing handles.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.log.Info("navigating", zap.String("url", url))
	if err := s.drv.Navigate(ctx, url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	s.Invalidate()
	return nil
}

// SwitchToDefaultFrame leaves any iframe the driver is focused on.
func (s *Session) SwitchToDefaultFrame(ctx context.Context) error {
	return s.drv.SwitchToDefaultFrame(ctx)
}

// Wait blocks until cond holds or the wait ceiling elapses.
func (s *Session) Wait(ctx context.Context, cond driver.Condition) error {
	return s.drv.WaitUntil(ctx, cond, s.waitCeiling)
}

// Pause sleeps for a human-paced delay drawn from r.
func (s *Session) Pause(r timing.Range) {
	s.pacer.Pause(r)
}

// Quit shuts the browser session down.
func (s *Session) Quit() error {
	s.Invalidate()
	return s.drv.Quit()
}

func (s *Session) wrap(el driver.Element) *Element {
	return &Element{el: el, gen: s.generation, s: s}
}
