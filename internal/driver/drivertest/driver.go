package drivertest

import (
	"context"
	"sync"
	"time"

	"webscrape/internal/driver"
)

// Call is one journaled driver interaction.
type Call struct {
	Op   string
	Node *Node
	Arg  string
}

// Journaled operations.
const (
	OpNavigate    = "navigate"
	OpClick       = "click"
	OpForceClick  = "force_click"
	OpSendKey     = "send_key"
	OpSwitchFrame = "switch_default_frame"
	OpQuit        = "quit"
)

// Driver implements driver.Driver over registered expressions.
type Driver struct {
	// PollInterval is passed to driver.Poll by WaitUntil.
	PollInterval time.Duration

	mu      sync.Mutex
	exprs   map[driver.Expr][]*Node
	delays  map[driver.Expr]int
	calls   []Call
	url     string
	quitted bool
}

var _ driver.Driver = (*Driver)(nil)

// New returns an empty fake driver.
func New() *Driver {
	return &Driver{
		PollInterval: time.Millisecond,
		exprs:        map[driver.Expr][]*Node{},
		delays:       map[driver.Expr]int{},
	}
}

// Register makes expr resolve to nodes, appending to earlier registrations.
func (d *Driver) Register(expr driver.Expr, nodes ...*Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exprs[expr] = append(d.exprs[expr], nodes...)
}

// Unregister drops every node for expr.
func (d *Driver) Unregister(expr driver.Expr) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.exprs, expr)
}

// Delay hides expr from the next n lookups, simulating content that renders
// late.
func (d *Driver) Delay(expr driver.Expr, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delays[expr] = n
}

// Calls returns a copy of the journal.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// CallsOf filters the journal by operation.
func (d *Driver) CallsOf(op string) []Call {
	var out []Call
	for _, c := range d.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// URL is the last navigated address.
func (d *Driver) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

// Quitted reports whether Quit was called.
func (d *Driver) Quitted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quitted
}

func (d *Driver) record(op string, n *Node, arg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Op: op, Node: n, Arg: arg})
}

func (d *Driver) lookup(expr driver.Expr) []*Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := d.delays[expr]; n > 0 {
		d.delays[expr] = n - 1
		return nil
	}
	var out []*Node
	for _, n := range d.exprs[expr] {
		if !n.stale() {
			out = append(out, n)
		}
	}
	return out
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.record(OpNavigate, nil, url)
	d.mu.Lock()
	d.url = url
	d.mu.Unlock()
	return nil
}

func (d *Driver) Find(ctx context.Context, expr driver.Expr) (driver.Element, error) {
	nodes := d.lookup(expr)
	if len(nodes) == 0 {
		return nil, driver.ErrNotFound
	}
	return &element{d: d, n: nodes[0]}, nil
}

func (d *Driver) FindAll(ctx context.Context, expr driver.Expr) ([]driver.Element, error) {
	return d.wrap(d.lookup(expr)), nil
}

func (d *Driver) WaitUntil(ctx context.Context, cond driver.Condition, timeout time.Duration) error {
	return driver.Poll(ctx, d, cond, timeout, d.PollInterval)
}

func (d *Driver) SwitchToDefaultFrame(ctx context.Context) error {
	d.record(OpSwitchFrame, nil, "")
	return nil
}

func (d *Driver) Quit() error {
	d.record(OpQuit, nil, "")
	d.mu.Lock()
	d.quitted = true
	d.mu.Unlock()
	return nil
}

func (d *Driver) wrap(nodes []*Node) []driver.Element {
	out := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{d: d, n: n})
	}
	return out
}
