package plan

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect"
	"github.com/syssam/xorgen/generator"
)

// Component is a built column generator: a polled generator.Generator
// or a listening generator.Dependent.
type Component interface {
	Init(ctx context.Context, drv dialect.Driver, vis *generator.Visitor) error
	Current() generator.Value
}

// Role tells the builder how a generator kind takes part in a table.
type Role uint8

// Generator roles.
const (
	// RoleGenerator generators are polled once per row.
	RoleGenerator Role = iota
	// RoleDependent generators listen to another column.
	RoleDependent
	// RoleOwner generators may nest an element generator.
	RoleOwner
	// RoleElement generators may be nested under an owner.
	RoleElement
)

// BuildContext is passed to a Factory.
type BuildContext struct {
	Table   *Table
	Column  *Column
	Options []generator.Option

	// Element is the nested element generator of a collection owner, or nil.
	Element generator.ElementGenerator

	// Counters holds the shared counters of the run.
	Counters *Counters
}

// Factory builds the generator of one column.
type Factory func(b *BuildContext) (Component, error)

// Entry is a registered generator kind.
type Entry struct {
	Role    Role
	Factory Factory
}

// Registry maps generator kind names to factories. Names are matched
// case-insensitively, with "-" and "_" interchangeable.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// DefaultRegistry holds the built-in generator kinds.
var DefaultRegistry = NewRegistry()

// NewRegistry returns a registry with the built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Entry)}
	r.Register("counter", RoleGenerator, newCounter)
	r.Register("shared_counter", RoleGenerator, newSharedCounter)
	r.Register("collection_element", RoleElement, newCollectionElement)
	r.Register("sliding_element", RoleElement, newSlidingElement)
	r.Register("collection_owner", RoleOwner, newCollectionOwner)
	r.Register("hierarchy", RoleGenerator, newHierarchy)
	r.Register("query", RoleGenerator, newQuery)
	r.Register("to_one", RoleDependent, newToOne)
	r.Register("uuid", RoleDependent, newUUID)
	return r
}

// foldKind returns the lookup key of a kind name.
func foldKind(name string) string {
	return cases.Fold().String(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
}

// Register adds or replaces a generator kind.
func (r *Registry) Register(kind string, role Role, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[foldKind(kind)] = Entry{Role: role, Factory: f}
}

// Lookup returns the entry registered for kind.
func (r *Registry) Lookup(kind string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[foldKind(kind)]
	return e, ok
}

// Kinds returns the registered kind names, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.entries))
	for k := range r.entries {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func (r *Registry) role(kind string) (Role, bool) {
	e, ok := r.Lookup(kind)
	return e.Role, ok
}

func (r *Registry) dependent(kind string) bool {
	role, ok := r.role(kind)
	return ok && role == RoleDependent
}

func (r *Registry) owner(kind string) bool {
	role, ok := r.role(kind)
	return ok && role == RoleOwner
}

func (r *Registry) element(kind string) bool {
	role, ok := r.role(kind)
	return ok && role == RoleElement
}

// Counters hands out the shared counters of a run by name. It is safe for
// concurrent use by tables generated in parallel.
type Counters struct {
	mu sync.Mutex
	m  map[string]*generator.SharedCounter
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{m: make(map[string]*generator.SharedCounter)}
}

// Get returns the counter called name, creating it at start on first use.
func (c *Counters) Get(name string, start int64) *generator.SharedCounter {
	c.mu.Lock()
	defer c.mu.Unlock()
	sc, ok := c.m[name]
	if !ok {
		sc = generator.NewSharedCounter(start)
		c.m[name] = sc
	}
	return sc
}

func newCounter(b *BuildContext) (Component, error) {
	return generator.NewCounterGeneratorArgs(b.Column.Args)
}

// newSharedCounter builds from ["name"] or ["name", "start"].
func newSharedCounter(b *BuildContext) (Component, error) {
	args := b.Column.Args
	if len(args) == 0 || len(args) > 2 || args[0] == "" {
		return nil, xorgen.NewConfigError("shared counter arguments", []string(args), "expected name and optional start")
	}
	start := int64(1)
	if len(args) == 2 {
		v, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return nil, xorgen.NewConfigError("shared counter start", args[1], "not an integer")
		}
		start = v
	}
	counters := b.Counters
	if counters == nil {
		counters = NewCounters()
	}
	return generator.NewSharedCounterGenerator(counters.Get(args[0], start)), nil
}

func newCollectionElement(b *BuildContext) (Component, error) {
	return generator.NewCollectionElementGeneratorArgs(b.Column.Args, b.Options...)
}

func newSlidingElement(b *BuildContext) (Component, error) {
	return generator.NewSlidingElementGeneratorArgs(b.Column.Args)
}

func newCollectionOwner(b *BuildContext) (Component, error) {
	return generator.NewCollectionOwnerGenerator(b.Column.Args, b.Element, b.Options...)
}

func newHierarchy(b *BuildContext) (Component, error) {
	return generator.NewHierarchyGeneratorArgs(b.Column.Args, b.Options...)
}

func newQuery(b *BuildContext) (Component, error) {
	if len(b.Column.Args) != 1 {
		return nil, xorgen.NewConfigError("query arguments", []string(b.Column.Args), "expected the query text")
	}
	return generator.NewQueryGenerator(b.Column.Args[0], b.Options...)
}

func newToOne(b *BuildContext) (Component, error) {
	return generator.NewToOneGenerator(b.Column.Args, b.Options...)
}

func newUUID(b *BuildContext) (Component, error) {
	return generator.NewUUIDGeneratorArgs(b.Column.Args)
}
