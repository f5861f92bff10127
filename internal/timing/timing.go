package timing

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultLower is the lower bound used by HumanLag when none is given.
const DefaultLower = 0.1

// Range is a pair of bounds in seconds. Order does not matter.
type Range struct {
	Upper float64
	Lower float64
}

// Ranges used around browser interactions.
var (
	// Short brackets element lookups.
	Short = Range{Upper: 5, Lower: 1}
	// Keystroke separates typed characters.
	Keystroke = Range{Upper: 1, Lower: 0.3}
	// Settle follows a completed input or consent click.
	Settle = Range{Upper: 1, Lower: DefaultLower}
	// PageLoad covers a full page transition. Bounds are listed high-first;
	// Lag normalizes them.
	PageLoad = Range{Upper: 3, Lower: 10}
)

// Pacer produces human-plausible randomized delays.
type Pacer struct {
	mu    sync.Mutex
	rng   *rand.Rand
	sleep func(time.Duration)
}

// Option configures a Pacer.
type Option func(*Pacer)

// WithSeed makes the delay sequence deterministic.
func WithSeed(seed int64) Option {
	return func(p *Pacer) { p.rng = rand.New(rand.NewSource(seed)) }
}

// WithSleep replaces time.Sleep, used by tests to record pauses.
func WithSleep(fn func(time.Duration)) Option {
	return func(p *Pacer) { p.sleep = fn }
}

// New creates a Pacer seeded from the clock unless WithSeed is given.
func New(opts ...Option) *Pacer {
	p := &Pacer{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Lag returns a uniformly distributed duration between lower and upper
// seconds. Inverted bounds are normalized.
func (p *Pacer) Lag(upper, lower float64) time.Duration {
	lo, hi := lower, upper
	if lo > hi {
		lo, hi = hi, lo
	}
	p.mu.Lock()
	f := p.rng.Float64()
	p.mu.Unlock()
	return time.Duration((lo + (hi-lo)*f) * float64(time.Second))
}

// HumanLag is Lag with the default lower bound.
func (p *Pacer) HumanLag(upper float64) time.Duration {
	return p.Lag(upper, DefaultLower)
}

// Sample draws a duration from r.
func (p *Pacer) Sample(r Range) time.Duration {
	return p.Lag(r.Upper, r.Lower)
}

// Pause sleeps for a duration drawn from r and returns it.
func (p *Pacer) Pause(r Range) time.Duration {
	d := p.Sample(r)
	p.sleep(d)
	return d
}
