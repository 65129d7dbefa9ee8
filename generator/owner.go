package generator

import (
	"context"
	"math/rand/v2"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect"
)

// CollectionOwnerGenerator walks owner ids through a RangeList and, for
// each owner, pulls the owner's collection from a nested element
// generator. Every call to Next yields one element; an owner whose
// collection is empty still consumes one call, which yields Null.
//
// Without a nested generator the owner generator is its own element
// generator: each element slot yields the owner id itself, which is the
// shape of a foreign key column on the owned table. In that mode no-owner
// blocks produce rows whose value is Null, and Emitted tells them apart
// from empty collections.
type CollectionOwnerGenerator struct {
	Listeners
	max       int64
	ranges    *RangeList
	element   ElementGenerator
	skipEmpty bool
	seed      uint64
	rng       *rand.Rand

	node        *RangeNode
	owner       int64
	counter     int64
	size        int64
	invocations int64
	started     bool
	emitted     bool
	value       Value
}

// NewCollectionOwnerGenerator builds an owner generator from
// ["max", range entries...]. A negative max means unbounded. A nil
// element makes the generator emit owner ids.
func NewCollectionOwnerGenerator(args []string, element ElementGenerator, opts ...Option) (*CollectionOwnerGenerator, error) {
	maxCalls, err := parseHeader("owner max", args)
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
	g := &CollectionOwnerGenerator{
		max:       maxCalls,
		ranges:    ranges,
		skipEmpty: o.skipEmpty,
		seed:      o.seed,
	}
	if element == nil {
		element = &ownerElement{owner: g}
	}
	g.element = element
	g.reset()
	return g, nil
}

func (g *CollectionOwnerGenerator) reset() {
	g.rng = newRand(g.seed)
	g.node = g.ranges.Head()
	if g.skipEmpty {
		g.node = g.ranges.FirstNonEmpty()
	}
	g.owner = 0
	if g.node != nil {
		g.owner = g.node.Start
	}
	g.counter, g.size, g.invocations = 0, 0, 0
	g.started, g.emitted = false, false
	g.value = Null()
}

// Init rewinds the walk and initializes the nested element generator.
func (g *CollectionOwnerGenerator) Init(ctx context.Context, drv dialect.Driver, vis *Visitor) error {
	g.reset()
	if g.element == nil {
		return xorgen.NewConfigError("owner element", nil, "no element generator")
	}
	return g.element.Init(ctx, drv, vis)
}

// HasNext reports whether another element can be produced.
func (g *CollectionOwnerGenerator) HasNext() bool {
	if g.max >= 0 && g.invocations >= g.max {
		return false
	}
	if g.node == nil {
		return false
	}
	if !g.started {
		return true
	}
	return g.element.HasNext() || g.hasNextOwner()
}

func (g *CollectionOwnerGenerator) hasNextOwner() bool {
	return g.owner < g.node.End || g.following(g.node) != nil
}

func (g *CollectionOwnerGenerator) following(n *RangeNode) *RangeNode {
	if g.skipEmpty {
		return n.NextNonEmpty()
	}
	return n.Next()
}

func (g *CollectionOwnerGenerator) advanceOwner() {
	if g.owner < g.node.End {
		g.owner++
		return
	}
	g.node = g.following(g.node)
	g.owner = g.node.Start
}

// Next yields the next element. Listeners are notified with every
// element that stands for a row.
func (g *CollectionOwnerGenerator) Next(vis *Visitor) Value {
	g.emitted = false
	if !g.HasNext() {
		g.value = Null()
		return g.value
	}
	g.invocations++
	if !g.started || !g.element.HasNext() {
		if g.started {
			g.advanceOwner()
		}
		g.started = true
		g.counter = 0
		g.size = g.node.Size(g.rng)
	} else {
		g.counter++
	}
	vis.SetOwner(g.Current())
	vis.SetPosition(g.counter, g.size)
	g.element.NextOwner(g.owner, g.counter, g.size)
	g.emitted = g.element.HasNext()
	g.value = g.element.Next(vis)
	if g.value.IsNull() && !g.selfElement() {
		g.emitted = false
	}
	vis.SetContext(g.value)
	if g.emitted && !g.value.IsNull() {
		g.NotifyListeners(g.value, vis)
	}
	return g.value
}

func (g *CollectionOwnerGenerator) selfElement() bool {
	_, ok := g.element.(*ownerElement)
	return ok
}

// Current returns the current owner id, or Null before the first call
// and while walking a no-owner block.
func (g *CollectionOwnerGenerator) Current() Value {
	if !g.started || g.node == nil || g.node.NoOwner() {
		return Null()
	}
	return Int(g.owner)
}

// Element returns the value of the last Next call.
func (g *CollectionOwnerGenerator) Element() Value { return g.value }

// Emitted reports whether the last Next call produced an element slot.
// It is false for empty collections and exhausted generators.
func (g *CollectionOwnerGenerator) Emitted() bool { return g.emitted }

// InvocationCount returns the number of Next calls that consumed a slot.
func (g *CollectionOwnerGenerator) InvocationCount() int64 { return g.invocations }

// CollectionSize returns the size drawn for the current owner.
func (g *CollectionOwnerGenerator) CollectionSize() int64 { return g.size }

// IsNoOwner reports whether the walk is inside a no-owner block.
func (g *CollectionOwnerGenerator) IsNoOwner() bool {
	return g.node != nil && g.node.NoOwner()
}

// ElementGenerator returns the nested element generator.
func (g *CollectionOwnerGenerator) ElementGenerator() ElementGenerator { return g.element }

// ownerElement lets an owner generator act as its own element generator.
type ownerElement struct {
	Listeners
	owner   *CollectionOwnerGenerator
	emitted int64
	size    int64
	value   Value
}

func (e *ownerElement) Init(context.Context, dialect.Driver, *Visitor) error {
	e.emitted, e.size = 0, 0
	e.value = Null()
	return nil
}

func (e *ownerElement) NextOwner(_, index, size int64) {
	if index == 0 {
		e.emitted = 0
	}
	e.size = size
}

func (e *ownerElement) HasNext() bool { return e.emitted < e.size }

func (e *ownerElement) Next(*Visitor) Value {
	if !e.HasNext() {
		e.value = Null()
		return e.value
	}
	e.emitted++
	e.value = e.owner.Current()
	return e.value
}

func (e *ownerElement) Current() Value { return e.value }
