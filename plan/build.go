package plan

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect"
	"github.com/syssam/xorgen/generator"
)

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	seed     uint64
	logger   *slog.Logger
	registry *Registry
	counters *Counters
}

// WithSeed sets the plan seed mixed into column seeds.
func WithSeed(seed uint64) BuildOption {
	return func(c *buildConfig) { c.seed = seed }
}

// WithLogger sets the logger handed to generators.
func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) { c.logger = l }
}

// WithRegistry sets the registry used to resolve generator kinds.
func WithRegistry(r *Registry) BuildOption {
	return func(c *buildConfig) { c.registry = r }
}

// WithCounters sets the shared counters of the run.
func WithCounters(cs *Counters) BuildOption {
	return func(c *buildConfig) { c.counters = cs }
}

// ColumnSeed derives the seed of a column from the plan seed, so that
// adding a column does not change the values of the others.
func ColumnSeed(seed uint64, table, column string) uint64 {
	h := fnv.New64a()
	_, _ = io.WriteString(h, table+"."+column)
	return seed ^ h.Sum64()
}

// Generators is the generator graph built for one table.
type Generators struct {
	table   *Table
	driver  generator.Generator
	columns []*built
	polled  []generator.Generator
}

type built struct {
	column    *Column
	component Component
	source    *built
	accessor  accessor
	kind      generator.Kind
	nested    bool
}

// Build creates the generators of table t and wires listeners and nested
// element generators.
func Build(t *Table, opts ...BuildOption) (*Generators, error) {
	cfg := &buildConfig{registry: DefaultRegistry}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.counters == nil {
		cfg.counters = NewCounters()
	}
	g := &Generators{table: t}
	byName := make(map[string]*built, len(t.Columns))
	for _, c := range t.Columns {
		b := &built{column: c, nested: t.nested(c.Name)}
		acc, err := parseAccessor(c.Accessor)
		if err != nil {
			return nil, xorgen.NewConfigError(t.Name+"."+c.Name+".accessor", c.Accessor, err.Error())
		}
		b.accessor = acc
		if c.Type != "" {
			b.kind, _ = generator.ParseKind(c.Type)
		}
		g.columns = append(g.columns, b)
		byName[c.Name] = b
	}
	// Element generators first, so owners can nest them.
	ordered := make([]*built, 0, len(g.columns))
	for _, b := range g.columns {
		if b.nested {
			ordered = append(ordered, b)
		}
	}
	for _, b := range g.columns {
		if !b.nested && b.column.Kind != "" {
			ordered = append(ordered, b)
		}
	}
	for _, b := range ordered {
		c := b.column
		entry, ok := cfg.registry.Lookup(c.Kind)
		if !ok {
			return nil, xorgen.NewConfigError(t.Name+"."+c.Name+".kind", c.Kind, "unknown generator kind")
		}
		bc := &BuildContext{
			Table:    t,
			Column:   c,
			Options:  columnOptions(cfg, t, c),
			Counters: cfg.counters,
		}
		if c.Element != "" {
			src := byName[c.Element]
			if src == nil {
				return nil, xorgen.NewConfigError(t.Name+"."+c.Name+".element", c.Element, "no element generator column with that name")
			}
			el, ok := src.component.(generator.ElementGenerator)
			if !ok {
				return nil, xorgen.NewConfigError(t.Name+"."+c.Name+".element", c.Element, "not an element generator")
			}
			bc.Element = el
		}
		comp, err := entry.Factory(bc)
		if err != nil {
			return nil, fmt.Errorf("build %s.%s: %w", t.Name, c.Name, err)
		}
		b.component = comp
		if err := b.accessor.check(comp); err != nil {
			return nil, xorgen.NewConfigError(t.Name+"."+c.Name+".accessor", c.Accessor, err.Error())
		}
	}
	for _, b := range g.columns {
		c := b.column
		switch {
		case c.From != "":
			b.source = byName[c.From]
			if b.source == nil || b.source.component == nil {
				return nil, xorgen.NewConfigError(t.Name+"."+c.Name+".from", c.From, "no generator column with that name")
			}
			if err := b.accessor.check(b.source.component); err != nil {
				return nil, xorgen.NewConfigError(t.Name+"."+c.Name+".accessor", c.Accessor, err.Error())
			}
		case c.Listen != "":
			l, ok := b.component.(generator.Listener)
			if !ok {
				return nil, xorgen.NewConfigError(t.Name+"."+c.Name+".listen", c.Listen, c.Kind+" generators cannot listen")
			}
			src := byName[c.Listen]
			if src == nil {
				return nil, xorgen.NewConfigError(t.Name+"."+c.Name+".listen", c.Listen, "no generator column with that name")
			}
			d, ok := src.component.(generator.Driver)
			if !ok {
				return nil, xorgen.NewConfigError(t.Name+"."+c.Name+".listen", c.Listen, "column does not emit events")
			}
			d.AddListener(l)
		}
		gen, polled := b.component.(generator.Generator)
		switch {
		case !polled:
		case c.Name == t.Driver:
			g.driver = gen
		case !b.nested && c.Listen == "":
			g.polled = append(g.polled, gen)
		}
	}
	if g.driver == nil {
		return nil, xorgen.NewConfigError(t.Name+".driver", t.Driver, "driver column has no polled generator")
	}
	return g, nil
}

func columnOptions(cfg *buildConfig, t *Table, c *Column) []generator.Option {
	seed := ColumnSeed(cfg.seed, t.Name, c.Name)
	if c.Seed != nil {
		seed = *c.Seed
	}
	opts := []generator.Option{
		generator.WithSeed(seed),
		generator.WithLogger(cfg.logger.With("table", t.Name, "column", c.Name)),
		generator.WithFetchSize(c.Fetch),
	}
	if c.SkipEmpty {
		opts = append(opts, generator.WithSkipEmptyOwners())
	}
	if c.Limit > 0 {
		opts = append(opts, generator.WithMaxRows(c.Limit))
	}
	if c.Delimiter != "" {
		opts = append(opts, generator.WithDelimiter(c.Delimiter))
	}
	if c.Params != nil {
		opts = append(opts, generator.WithParams(c.Params))
	}
	return opts
}

// Table returns the table the generators were built for.
func (g *Generators) Table() *Table { return g.table }

// Driver returns the driving generator.
func (g *Generators) Driver() generator.Generator { return g.driver }

// Columns returns the column names in table order.
func (g *Generators) Columns() []string { return g.table.ColumnNames() }

// Init initializes every generator. Nested element generators are
// initialized by their owner.
func (g *Generators) Init(ctx context.Context, drv dialect.Driver, vis *generator.Visitor) error {
	for _, b := range g.columns {
		if b.component == nil || b.nested {
			continue
		}
		if err := b.component.Init(ctx, drv, vis); err != nil {
			return fmt.Errorf("init %s.%s: %w", g.table.Name, b.column.Name, err)
		}
	}
	return nil
}

// HasNext reports whether the driver can produce more entities.
func (g *Generators) HasNext() bool { return g.driver.HasNext() }

// NextRow advances the driver once and returns the row of the new
// entity. ok is false when the driver produced no entity, which happens
// for owners with an empty collection.
func (g *Generators) NextRow(vis *generator.Visitor) (row []generator.Value, ok bool, err error) {
	vis.Reset()
	v := g.driver.Next(vis)
	if !generator.Emitted(g.driver, v) {
		return nil, false, nil
	}
	for _, p := range g.polled {
		p.Next(vis)
	}
	row = make([]generator.Value, len(g.columns))
	for i, b := range g.columns {
		if row[i], err = b.value(); err != nil {
			return nil, false, fmt.Errorf("%s.%s: %w", g.table.Name, b.column.Name, err)
		}
	}
	return row, true, nil
}

func (b *built) value() (generator.Value, error) {
	src := b
	if b.source != nil {
		src = b.source
	}
	v := b.accessor.get(src.component)
	if b.kind == generator.KindNull {
		return v, nil
	}
	return generator.Convert(v, b.kind)
}

// Err returns the failures recorded by query generators.
func (g *Generators) Err() error {
	var errs []error
	for _, b := range g.columns {
		if q, ok := b.component.(*generator.QueryGenerator); ok {
			errs = append(errs, q.Err())
		}
	}
	return errors.Join(errs...)
}

// Close releases generators holding database resources.
func (g *Generators) Close() error {
	var errs []error
	for _, b := range g.columns {
		if c, ok := b.component.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// accessor reads a column value from a component.
type accessor struct {
	name string
	col  int
}

func parseAccessor(s string) (accessor, error) {
	switch s {
	case "", "current", "path", "parent", "element":
		return accessor{name: s}, nil
	}
	if n, ok := strings.CutPrefix(s, "row:"); ok {
		i, err := strconv.Atoi(n)
		if err != nil || i < 0 {
			return accessor{}, fmt.Errorf("invalid row column %q", n)
		}
		return accessor{name: "row", col: i}, nil
	}
	return accessor{}, errors.New("unknown accessor; use current, path, parent, element or row:<n>")
}

func (a accessor) check(c Component) error {
	switch a.name {
	case "path", "parent":
		if _, ok := c.(*generator.HierarchyGenerator); !ok {
			return fmt.Errorf("%s requires a hierarchy generator", a.name)
		}
	case "element":
		if _, ok := c.(*generator.CollectionOwnerGenerator); !ok {
			return errors.New("element requires a collection owner generator")
		}
	case "row":
		if _, ok := c.(*generator.QueryGenerator); !ok {
			return errors.New("row requires a query generator")
		}
	}
	return nil
}

func (a accessor) get(c Component) generator.Value {
	switch a.name {
	case "path":
		h := c.(*generator.HierarchyGenerator)
		if h.Current().IsNull() {
			return generator.Null()
		}
		return generator.String(h.Path())
	case "parent":
		return c.(*generator.HierarchyGenerator).ParentID()
	case "element":
		return c.(*generator.CollectionOwnerGenerator).Element()
	case "row":
		return c.(*generator.QueryGenerator).Column(a.col)
	case "":
		// Query columns default to the first selected column.
		if q, ok := c.(*generator.QueryGenerator); ok {
			return q.Column(1)
		}
	}
	return c.Current()
}
