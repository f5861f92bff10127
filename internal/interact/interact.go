// Package interact holds the human-paced interaction primitives: popup
// dismissal, slow typing, login and click-through navigation.
package interact

import (
	"context"
	"errors"
	"fmt"

	"webscrape/internal/driver"
	"webscrape/internal/session"
	"webscrape/internal/timing"

	"go.uber.org/zap"
)

// Credentials are consumed by Login and not retained.
type Credentials struct {
	Username string
	Password string
}

// LoginForm locates the three controls of a login page.
type LoginForm struct {
	Username driver.Expr
	Password driver.Expr
	Submit   driver.Expr
}

// Interactor runs interaction primitives against one session.
type Interactor struct {
	s   *session.Session
	log *zap.Logger
}

// New creates an Interactor.
func New(s *session.Session) *Interactor {
	return &Interactor{s: s, log: s.Logger().Named("interact")}
}

// Dismiss clicks target and waits for it to disappear. A wait timeout is
// logged and swallowed so the surrounding workflow continues.
func (i *Interactor) Dismiss(ctx context.Context, target *session.Element) error {
	if err := target.Click(ctx); err != nil {
		return fmt.Errorf("dismiss click: %w", err)
	}
	raw, err := target.Raw()
	if err != nil {
		return err
	}
	if err := i.s.Wait(ctx, driver.Invisibility(raw)); err != nil {
		if errors.Is(err, driver.ErrTimeout) {
			i.log.Warn("popup still visible after dismissal", zap.Duration("ceiling", i.s.WaitCeiling()))
			return nil
		}
		return fmt.Errorf("dismiss wait: %w", err)
	}
	i.s.Pause(timing.Short)
	return nil
}

// TypeSlowly sends text one character at a time with a keystroke pause
// between characters and a settle pause at the end.
func (i *Interactor) TypeSlowly(ctx context.Context, field *session.Element, text string) error {
	for _, r := range text {
		if err := field.SendKey(ctx, r); err != nil {
			return fmt.Errorf("type: %w", err)
		}
		i.s.Pause(timing.Keystroke)
	}
	i.s.Pause(timing.Settle)
	return nil
}

// Login fills the username and password fields and submits the form. The
// submit click is treated like a popup dismissal: the control is expected
// to disappear. Handles obtained before Login are stale afterwards.
func (i *Interactor) Login(ctx context.Context, form LoginForm, creds Credentials) error {
	user, err := i.s.LocateOne(ctx, form.Username)
	if err != nil {
		return fmt.Errorf("login: username field: %w", err)
	}
	if err := i.TypeSlowly(ctx, user, creds.Username); err != nil {
		return fmt.Errorf("login: username: %w", err)
	}

	pass, err := i.s.LocateOne(ctx, form.Password)
	if err != nil {
		return fmt.Errorf("login: password field: %w", err)
	}
	if err := i.TypeSlowly(ctx, pass, creds.Password); err != nil {
		return fmt.Errorf("login: password: %w", err)
	}

	submit, err := i.s.LocateOne(ctx, form.Submit)
	if err != nil {
		return fmt.Errorf("login: submit control: %w", err)
	}
	if err := i.Dismiss(ctx, submit); err != nil {
		return fmt.Errorf("login: submit: %w", err)
	}
	i.s.Invalidate()
	i.log.Info("login submitted", zap.Stringer("submit", form.Submit))
	return nil
}

// GoTo waits for a navigation control, clicks it and waits out the page
// load. It reports false when the control never appeared.
func (i *Interactor) GoTo(ctx context.Context, expr driver.Expr) (bool, error) {
	l := i.s.Locate(ctx, expr, session.LocateOptions{Wait: true})
	switch l.Status {
	case session.TimedOut:
		return false, nil
	case session.Failed:
		return false, fmt.Errorf("go to: %w", l.Err())
	}
	if err := l.First().Click(ctx); err != nil {
		return false, fmt.Errorf("go to %s: %w", expr, err)
	}
	i.s.Invalidate()
	i.s.Pause(timing.PageLoad)
	return true, nil
}

// Consent accepts a cookie/GDPR banner, then returns focus to the main
// document. A banner that never shows up is not an error.
func (i *Interactor) Consent(ctx context.Context, expr driver.Expr) (bool, error) {
	l := i.s.Locate(ctx, expr, session.LocateOptions{Wait: true})
	switch l.Status {
	case session.TimedOut:
		i.log.Info("no consent banner", zap.Stringer("expr", expr))
		return false, nil
	case session.Failed:
		return false, fmt.Errorf("consent: %w", l.Err())
	}
	if err := i.Dismiss(ctx, l.First()); err != nil {
		return false, fmt.Errorf("consent: %w", err)
	}
	if err := i.s.SwitchToDefaultFrame(ctx); err != nil {
		return false, fmt.Errorf("consent: switch frame: %w", err)
	}
	i.s.Pause(timing.Settle)
	return true, nil
}

// FindList waits for and returns every element matching expr, typically
// the rows of a result list. A timeout yields an empty list.
func (i *Interactor) FindList(ctx context.Context, expr driver.Expr) ([]*session.Element, error) {
	l := i.s.Locate(ctx, expr, session.LocateOptions{Multi: true, Wait: true})
	if l.Status == session.Failed {
		return nil, fmt.Errorf("find list %s: %w", expr, l.Err())
	}
	return l.Elements, nil
}
