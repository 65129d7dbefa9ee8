package generator

import (
	"context"
	"strconv"
	"strings"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect"
)

// hierarchyPrimes are the branching factors tried, smallest first.
var hierarchyPrimes = []int64{
	7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73,
	79, 83, 89, 97, 101, 211, 307, 401, 503, 601, 701, 809, 907, 1009,
	2003, 5003, 10007,
}

// BranchingFactor returns the number of children per node needed to hold
// total leaves in depth levels: the smallest listed prime p with
// p^depth > total. A single level holds every record.
func BranchingFactor(depth int, total int64) (int64, error) {
	if depth < 1 {
		return 0, xorgen.NewConfigError("hierarchy depth", depth, "must be at least 1")
	}
	if total < 1 {
		return 0, xorgen.NewConfigError("hierarchy total", total, "must be at least 1")
	}
	if depth == 1 {
		return total, nil
	}
	for _, p := range hierarchyPrimes {
		if powExceeds(p, depth, total) {
			return p, nil
		}
	}
	return 0, &xorgen.HierarchyError{Depth: depth, Total: total}
}

// powExceeds reports whether p^n > limit without overflowing.
func powExceeds(p int64, n int, limit int64) bool {
	acc := int64(1)
	for range n {
		if acc > limit/p {
			return true
		}
		acc *= p
	}
	return acc > limit
}

// HierarchyGenerator produces the leaves of a tree of fixed depth. Each
// call to Next opens as many nodes as needed down the chain of levels
// and returns the id of a new leaf; ids are drawn from one shared counter,
// so they are unique across all levels.
type HierarchyGenerator struct {
	Listeners
	depth       int
	total       int64
	branching   int64
	start       int64
	delimiter   string
	counter     *SharedCounter
	root        *hierarchyLevel
	invocations int64
	value       Value
}

type hierarchyLevel struct {
	ids     *SharedCounterGenerator
	child   *hierarchyLevel
	max     int64
	count   int64
	started bool
	id      int64
	part    string
}

// NewHierarchyGenerator builds a hierarchy holding total leaves in depth levels.
func NewHierarchyGenerator(depth int, total int64, opts ...Option) (*HierarchyGenerator, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	g := &HierarchyGenerator{
		depth:     depth,
		total:     total,
		start:     o.start,
		delimiter: o.delimiter,
		counter:   NewSharedCounter(o.start),
	}
	if err := g.build(); err != nil {
		return nil, err
	}
	return g, nil
}

// NewHierarchyGeneratorArgs builds a hierarchy from ["depth", "total"].
func NewHierarchyGeneratorArgs(args []string, opts ...Option) (*HierarchyGenerator, error) {
	if len(args) != 2 {
		return nil, xorgen.NewConfigError("hierarchy arguments", args, "expected depth and total")
	}
	depth, err := parseHeader("hierarchy depth", args)
	if err != nil {
		return nil, err
	}
	total, err := parseHeader("hierarchy total", args[1:])
	if err != nil {
		return nil, err
	}
	return NewHierarchyGenerator(int(depth), total, opts...)
}

func (g *HierarchyGenerator) build() error {
	p, err := BranchingFactor(g.depth, g.total)
	if err != nil {
		return err
	}
	g.branching = p
	var child *hierarchyLevel
	for range g.depth {
		child = &hierarchyLevel{
			ids:   NewSharedCounterGenerator(g.counter),
			child: child,
			max:   p,
		}
	}
	g.root = child
	return nil
}

// Init rewinds the shared counter and every level.
func (g *HierarchyGenerator) Init(context.Context, dialect.Driver, *Visitor) error {
	g.counter.Reset(g.start)
	for l := g.root; l != nil; l = l.child {
		l.reset()
	}
	g.invocations = 0
	g.value = Null()
	return nil
}

// HasNext reports whether more leaves remain.
func (g *HierarchyGenerator) HasNext() bool {
	return g.invocations < g.total && g.root.hasNext()
}

// Next returns the id of a new leaf.
func (g *HierarchyGenerator) Next(vis *Visitor) Value {
	if !g.HasNext() {
		g.value = Null()
		return g.value
	}
	g.invocations++
	g.value = Int(g.root.next(vis))
	vis.SetContext(g.value)
	g.NotifyListeners(g.value, vis)
	return g.value
}

// Current returns the id of the last leaf.
func (g *HierarchyGenerator) Current() Value { return g.value }

// Path returns the ids from the root to the current leaf joined by the
// delimiter. It is empty before the first call to Next.
func (g *HierarchyGenerator) Path() string {
	var parts []string
	for l := g.root; l != nil && l.part != ""; l = l.child {
		parts = append(parts, l.part)
	}
	return strings.Join(parts, g.delimiter)
}

// ParentID returns the id of the current leaf's parent, or Null for a
// single-level hierarchy.
func (g *HierarchyGenerator) ParentID() Value {
	var parent *hierarchyLevel
	for l := g.root; l != nil && l.child != nil && l.part != ""; l = l.child {
		parent = l
	}
	if parent == nil {
		return Null()
	}
	return Int(parent.id)
}

// BranchingFactor returns the number of children per node.
func (g *HierarchyGenerator) BranchingFactor() int64 { return g.branching }

// Depth returns the number of levels.
func (g *HierarchyGenerator) Depth() int { return g.depth }

func (l *hierarchyLevel) reset() {
	l.count, l.id = 0, 0
	l.started = false
	l.part = ""
	l.ids.value = Null()
}

func (l *hierarchyLevel) hasNext() bool {
	if l.count < l.max {
		return true
	}
	return l.child != nil && l.started && l.child.hasNext()
}

// next returns the id of a leaf below l, opening a new node at l when
// the open child subtree is full.
func (l *hierarchyLevel) next(vis *Visitor) int64 {
	if l.child != nil && l.started && l.child.hasNext() {
		return l.child.next(vis)
	}
	l.count++
	l.started = true
	l.id, _ = l.ids.Next(vis).Int64()
	l.part = strconv.FormatInt(l.id, 10)
	if l.child == nil {
		return l.id
	}
	for c := l.child; c != nil; c = c.child {
		c.reset()
	}
	return l.child.next(vis)
}
