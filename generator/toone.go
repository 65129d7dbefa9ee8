package generator

import (
	"context"
	"math/rand/v2"

	"github.com/syssam/xorgen/dialect"
)

// ToOneGenerator assigns a parent id to each entity emitted by the driver
// it listens to. Range nodes cover the driver's ids; within a node every
// parent receives size children before the next parent id is handed out.
// Parent ids count up from start across all nodes.
//
// Ids inside a zero-size or no-owner node, and ids outside every node,
// get a Null parent.
type ToOneGenerator struct {
	start  int64
	ranges *RangeList
	seed   uint64
	rng    *rand.Rand

	node    *RangeNode
	parent  int64
	count   int64
	size    int64
	started bool
	advance bool
	value   Value
}

// NewToOneGenerator builds a to-one generator from ["start", range entries...].
func NewToOneGenerator(args []string, opts ...Option) (*ToOneGenerator, error) {
	start, err := parseHeader("to-one start", args)
	if err != nil {
		return nil, err
	}
	ranges, err := ParseRangeList(args[1:])
	if err != nil {
		return nil, err
	}
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	g := &ToOneGenerator{start: start, ranges: ranges, seed: o.seed}
	g.reset()
	return g, nil
}

func (g *ToOneGenerator) reset() {
	g.rng = newRand(g.seed)
	g.node = g.ranges.Head()
	g.parent = g.start
	g.count, g.size = 0, -1
	g.started, g.advance = false, false
	g.value = Null()
}

// Init rewinds the generator.
func (g *ToOneGenerator) Init(context.Context, dialect.Driver, *Visitor) error {
	g.reset()
	return nil
}

// HandleEvent maps the emitted id to a parent id. Ids must arrive in
// ascending order; non-integer values are ignored.
func (g *ToOneGenerator) HandleEvent(v Value, _ *Visitor) {
	id, ok := v.Int64()
	if !ok {
		return
	}
	for g.node != nil && id > g.node.End {
		g.advance = g.advance || (g.started && g.count > 0)
		g.node = g.node.Next()
		g.count, g.size = 0, -1
	}
	if g.node == nil || id < g.node.Start || g.node.NoOwner() {
		g.value = Null()
		return
	}
	if g.size < 0 {
		g.size = g.drawSize()
	}
	if g.size == 0 {
		g.value = Null()
		return
	}
	if g.advance || (g.started && g.count >= g.size) {
		g.parent++
		g.count = 0
		g.advance = false
		if !g.node.Fixed() {
			g.size = g.drawSize()
		}
	}
	g.count++
	g.started = true
	g.value = Int(g.parent)
}

// drawSize returns the number of children of the next parent. A zero
// draw from a size range skips to another draw, so only fixed zero-size
// nodes leave children without a parent.
func (g *ToOneGenerator) drawSize() int64 {
	if g.node.Fixed() {
		return g.node.MinSize
	}
	for {
		if s := g.node.Size(g.rng); s > 0 {
			return s
		}
	}
}

// Current returns the parent id of the last handled entity.
func (g *ToOneGenerator) Current() Value { return g.value }
