package generator

import (
	"context"
	"sync/atomic"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect"
)

// CounterGenerator yields start, start+1, ... for count values, or
// forever when count is negative.
type CounterGenerator struct {
	Listeners
	count   int64
	start   int64
	current int64
	value   Value
}

// NewCounterGenerator returns a counter of count values beginning at start.
func NewCounterGenerator(count, start int64) *CounterGenerator {
	return &CounterGenerator{count: count, start: start, current: start}
}

// NewCounterGeneratorArgs builds a counter from ["count", "start"]. The
// start defaults to 1.
func NewCounterGeneratorArgs(args []string) (*CounterGenerator, error) {
	count, err := parseHeader("counter count", args)
	if err != nil {
		return nil, err
	}
	start := int64(1)
	if len(args) > 1 {
		if start, err = parseHeader("counter start", args[1:]); err != nil {
			return nil, err
		}
	}
	if len(args) > 2 {
		return nil, xorgen.NewConfigError("counter arguments", args, "expected count and start")
	}
	return NewCounterGenerator(count, start), nil
}

// Init rewinds the counter to its start.
func (g *CounterGenerator) Init(context.Context, dialect.Driver, *Visitor) error {
	g.current = g.start
	g.value = Null()
	return nil
}

// HasNext reports whether values remain.
func (g *CounterGenerator) HasNext() bool {
	return g.count < 0 || g.current < g.start+g.count
}

// Next returns the next counter value and notifies listeners.
func (g *CounterGenerator) Next(vis *Visitor) Value {
	if !g.HasNext() {
		g.value = Null()
		return g.value
	}
	g.value = Int(g.current)
	g.current++
	vis.SetContext(g.value)
	g.NotifyListeners(g.value, vis)
	return g.value
}

// Current returns the last value returned by Next.
func (g *CounterGenerator) Current() Value { return g.value }

// SharedCounter is a monotonic id source that can be shared by several
// generators, including generators running on different goroutines.
type SharedCounter struct {
	n atomic.Int64
}

// NewSharedCounter returns a counter whose first value is start.
func NewSharedCounter(start int64) *SharedCounter {
	c := &SharedCounter{}
	c.n.Store(start)
	return c
}

// Next returns the current value and advances the counter.
func (c *SharedCounter) Next() int64 { return c.n.Add(1) - 1 }

// Peek returns the value the next call to Next will return.
func (c *SharedCounter) Peek() int64 { return c.n.Load() }

// Reset sets the next value to start.
func (c *SharedCounter) Reset(start int64) { c.n.Store(start) }

// SharedCounterGenerator is an unbounded generator backed by a
// SharedCounter. Init does not rewind the shared counter.
type SharedCounterGenerator struct {
	Listeners
	counter *SharedCounter
	value   Value
}

// NewSharedCounterGenerator returns a generator drawing from c.
func NewSharedCounterGenerator(c *SharedCounter) *SharedCounterGenerator {
	return &SharedCounterGenerator{counter: c}
}

// Init clears the current value.
func (g *SharedCounterGenerator) Init(context.Context, dialect.Driver, *Visitor) error {
	g.value = Null()
	return nil
}

// HasNext always reports true.
func (g *SharedCounterGenerator) HasNext() bool { return true }

// Next draws the next id from the shared counter.
func (g *SharedCounterGenerator) Next(vis *Visitor) Value {
	g.value = Int(g.counter.Next())
	vis.SetContext(g.value)
	g.NotifyListeners(g.value, vis)
	return g.value
}

// Current returns the last drawn id.
func (g *SharedCounterGenerator) Current() Value { return g.value }

// Counter returns the backing counter.
func (g *SharedCounterGenerator) Counter() *SharedCounter { return g.counter }
