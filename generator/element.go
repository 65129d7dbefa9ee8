package generator

import (
	"context"
	"math/rand/v2"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect"
)

// CollectionElementGenerator picks the elements of one owner's collection
// from [start, end]. The interval is split into as many blocks as the
// collection has elements and one value is drawn from each block, so the
// elements of one owner are distinct and ascending.
//
// When the collection is larger than the interval the block size is
// clamped to one and values run past end.
type CollectionElementGenerator struct {
	Listeners
	start, end int64
	seed       uint64
	rng        *rand.Rand

	owner     int64
	size      int64
	blockSize int64
	counter   int64
	value     Value
}

// NewCollectionElementGenerator returns an element generator over [start, end].
func NewCollectionElementGenerator(start, end int64, opts ...Option) (*CollectionElementGenerator, error) {
	if end < start {
		return nil, xorgen.NewConfigError("element range", [2]int64{start, end}, "end is before start")
	}
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return &CollectionElementGenerator{start: start, end: end, seed: o.seed, rng: newRand(o.seed)}, nil
}

// NewCollectionElementGeneratorArgs builds an element generator from
// ["start", "end"].
func NewCollectionElementGeneratorArgs(args []string, opts ...Option) (*CollectionElementGenerator, error) {
	if len(args) != 2 {
		return nil, xorgen.NewConfigError("element arguments", args, "expected start and end")
	}
	start, err := parseHeader("element start", args)
	if err != nil {
		return nil, err
	}
	end, err := parseHeader("element end", args[1:])
	if err != nil {
		return nil, err
	}
	return NewCollectionElementGenerator(start, end, opts...)
}

// Init resets the generator and reseeds its random source.
func (g *CollectionElementGenerator) Init(context.Context, dialect.Driver, *Visitor) error {
	g.rng = newRand(g.seed)
	g.owner, g.size, g.blockSize, g.counter = 0, 0, 0, 0
	g.value = Null()
	return nil
}

// NextOwner positions the generator on element index of owner's
// collection of the given size. Index zero starts a new collection.
func (g *CollectionElementGenerator) NextOwner(owner, index, size int64) {
	g.owner = owner
	if index == 0 {
		g.counter = 0
	}
	if size != g.size || g.blockSize == 0 {
		g.size = size
		g.blockSize = 1
		if size > 0 {
			g.blockSize = max((g.end-g.start+1)/size, 1)
		}
	}
}

// HasNext reports whether the current collection has elements left.
func (g *CollectionElementGenerator) HasNext() bool { return g.counter < g.size }

// Next returns the next element of the current collection, or Null when
// the collection is empty or exhausted.
func (g *CollectionElementGenerator) Next(vis *Visitor) Value {
	if !g.HasNext() {
		g.value = Null()
		return g.value
	}
	v := g.start + g.counter*g.blockSize + g.rng.Int64N(g.blockSize)
	g.counter++
	return g.emit(Int(v), vis)
}

func (g *CollectionElementGenerator) emit(v Value, vis *Visitor) Value {
	g.value = v
	g.NotifyListeners(v, vis)
	return v
}

// Current returns the last element.
func (g *CollectionElementGenerator) Current() Value { return g.value }

// Owner returns the owner of the current collection.
func (g *CollectionElementGenerator) Owner() int64 { return g.owner }

// SlidingElementGenerator hands out start, start+1, ... across all
// owners, so no value is ever repeated within a run. The end bound is
// ignored; only Init rewinds the sequence.
type SlidingElementGenerator struct {
	CollectionElementGenerator
	position int64
}

// NewSlidingElementGenerator returns a sliding generator starting at start.
func NewSlidingElementGenerator(start int64) *SlidingElementGenerator {
	return &SlidingElementGenerator{
		CollectionElementGenerator: CollectionElementGenerator{start: start, end: start, seed: DefaultSeed, rng: newRand(DefaultSeed)},
		position:                   start,
	}
}

// NewSlidingElementGeneratorArgs builds a sliding generator from
// ["start"] or ["start", "end"].
func NewSlidingElementGeneratorArgs(args []string) (*SlidingElementGenerator, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, xorgen.NewConfigError("sliding element arguments", args, "expected start and optional end")
	}
	start, err := parseHeader("sliding element start", args)
	if err != nil {
		return nil, err
	}
	return NewSlidingElementGenerator(start), nil
}

// Init rewinds the sequence.
func (g *SlidingElementGenerator) Init(ctx context.Context, drv dialect.Driver, vis *Visitor) error {
	g.position = g.start
	return g.CollectionElementGenerator.Init(ctx, drv, vis)
}

// Next returns the next value of the global sequence while the current
// collection has room.
func (g *SlidingElementGenerator) Next(vis *Visitor) Value {
	if !g.HasNext() {
		g.value = Null()
		return g.value
	}
	v := g.position
	g.position++
	g.counter++
	return g.emit(Int(v), vis)
}
