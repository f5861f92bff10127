package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// Config selects how the browser is launched or attached.
type Config struct {
	Headless bool
	ProxyURL string // --proxy flag or WEBSCRAPE_BROWSER_PROXY env var
	// Stealth opens pages with the go-rod/stealth evasions preloaded.
	Stealth bool
	// ControlURL attaches to a running browser instead of launching one.
	ControlURL string
	// WindowSize is passed as --window-size, e.g. "1920,1080".
	WindowSize string
	NoSandbox  bool
	Logger     *zap.Logger
}

// DefaultWindowSize keeps headless layouts at desktop breakpoints.
const DefaultWindowSize = "1920,1080"

// Browser wraps a rod.Browser and the launcher that started it.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
	log      *zap.Logger
}

// New launches (or attaches to) a browser per cfg.
func New(cfg Config) (*Browser, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("browser")

	b := &Browser{cfg: cfg, log: log}

	controlURL := cfg.ControlURL
	if controlURL == "" {
		size := cfg.WindowSize
		if size == "" {
			size = DefaultWindowSize
		}
		l := launcher.New().
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox).
			Set("window-size", size).
			Set("disable-dev-shm-usage")
		if cfg.ProxyURL != "" {
			l = l.Proxy(cfg.ProxyURL)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		b.launcher = l
		controlURL = u
	}

	rb := rod.New().ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		if b.launcher != nil {
			b.launcher.Kill()
		}
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	b.browser = rb

	log.Debug("browser ready",
		zap.String("control_url", controlURL),
		zap.Bool("headless", cfg.Headless),
		zap.Bool("stealth", cfg.Stealth),
		zap.Bool("proxy", cfg.ProxyURL != ""))
	return b, nil
}

// ProxyURL returns the proxy in use, if any.
func (b *Browser) ProxyURL() string {
	return b.cfg.ProxyURL
}

// NewPage opens a blank page, with stealth evasions when configured.
func (b *Browser) NewPage() (*rod.Page, error) {
	if b.cfg.Stealth {
		page, err := stealth.Page(b.browser)
		if err != nil {
			return nil, fmt.Errorf("create stealth page: %w", err)
		}
		return page, nil
	}
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return page, nil
}

// Driver opens a page and returns a driver bound to it.
func (b *Browser) Driver(ctx context.Context) (*RodDriver, error) {
	page, err := b.NewPage()
	if err != nil {
		return nil, err
	}
	return NewRodDriver(page, b.log), nil
}

// Close closes the browser and kills the launched process.
func (b *Browser) Close() error {
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			return err
		}
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return nil
}
