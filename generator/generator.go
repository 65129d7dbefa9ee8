package generator

import (
	"context"

	"github.com/syssam/xorgen/dialect"
)

// Generator produces a lazy sequence of values for one column of a
// synthetic table.
//
// Init prepares (or re-prepares) the generator for a run. Calling Init a
// second time restarts the sequence: with the same seed, the same values
// are produced again. The driver may be nil for generators that do not
// talk to a database.
type Generator interface {
	Init(ctx context.Context, drv dialect.Driver, vis *Visitor) error
	HasNext() bool
	Next(vis *Visitor) Value
	Current() Value
}

// ElementGenerator is a generator nested under a CollectionOwnerGenerator.
// NextOwner is called before each Next with the current owner id, the
// index of the element within the owner's collection and the collection
// size.
type ElementGenerator interface {
	Generator
	NextOwner(owner, index, size int64)
}

// Driver is a generator whose emissions drive dependent generators
// registered through AddListener.
type Driver interface {
	Generator
	AddListener(l Listener)
}

// Dependent is a generator that is never polled. Its value changes only
// when a Driver it listens to emits.
type Dependent interface {
	Listener
	Init(ctx context.Context, drv dialect.Driver, vis *Visitor) error
	Current() Value
}

// Emitter is implemented by drivers that can produce a row whose driving
// value is null, such as an owner generator walking a no-owner block.
// Emitted reports whether the last Next produced a row.
type Emitter interface {
	Emitted() bool
}

// Emitted reports whether the last value produced by g stands for a row.
func Emitted(g Generator, v Value) bool {
	if e, ok := g.(Emitter); ok {
		return e.Emitted()
	}
	return !v.IsNull()
}

var (
	_ Driver           = (*CounterGenerator)(nil)
	_ Driver           = (*SharedCounterGenerator)(nil)
	_ ElementGenerator = (*CollectionElementGenerator)(nil)
	_ ElementGenerator = (*SlidingElementGenerator)(nil)
	_ Driver           = (*CollectionOwnerGenerator)(nil)
	_ Emitter          = (*CollectionOwnerGenerator)(nil)
	_ Driver           = (*HierarchyGenerator)(nil)
	_ Driver           = (*QueryGenerator)(nil)
	_ Dependent        = (*ToOneGenerator)(nil)
	_ Dependent        = (*UUIDGenerator)(nil)
)
