package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect/sql"
	"github.com/syssam/xorgen/generator"
)

// DefaultBatch is the number of rows per INSERT when a plan sets none.
const DefaultBatch = 500

// Plan describes the tables of one generation run.
type Plan struct {
	// Seed is mixed into every column seed. Runs with the same seed and
	// plan produce the same rows.
	Seed uint64 `yaml:"seed,omitempty"`

	// Parallel is the number of tables generated concurrently. Zero or one
	// runs tables in order, which query generators reading earlier tables
	// rely on.
	Parallel int `yaml:"parallel,omitempty"`

	// Batch is the number of rows per INSERT statement.
	Batch int `yaml:"batch,omitempty"`

	// Tables are generated in the listed order.
	Tables []*Table `yaml:"tables"`
}

// Table describes one generated table.
type Table struct {
	// Entity is the entity name; the table name defaults to its plural
	// snake-case form ("OrderItem" → "order_items").
	Entity string `yaml:"entity,omitempty"`

	// Name overrides the table name.
	Name string `yaml:"table,omitempty"`

	// Driver names the column whose generator is advanced once per
	// entity. Defaults to the first generator column.
	Driver string `yaml:"driver,omitempty"`

	// Rows caps the number of emitted rows. Zero means until the driver
	// is exhausted.
	Rows int64 `yaml:"rows,omitempty"`

	Columns []*Column `yaml:"columns"`
}

// Column describes one column and the generator behind it.
type Column struct {
	Name string `yaml:"name"`

	// Kind names a registered generator kind. Exactly one of Kind and
	// From is set.
	Kind string     `yaml:"kind,omitempty"`
	Args StringList `yaml:"args,omitempty"`

	// Listen registers the column's generator as a listener on another
	// column's generator.
	Listen string `yaml:"listen,omitempty"`

	// Element nests another column's element generator under this
	// collection owner.
	Element string `yaml:"element,omitempty"`

	// From reads the value of another column's generator through Accessor.
	From     string `yaml:"from,omitempty"`
	Accessor string `yaml:"accessor,omitempty"`

	// Type converts the column value to a value kind ("int", "string",
	// "decimal", ...).
	Type string `yaml:"type,omitempty"`

	// Generator tuning.
	Seed      *uint64        `yaml:"seed,omitempty"`
	Params    map[string]any `yaml:"params,omitempty"`
	Fetch     int            `yaml:"fetch,omitempty"`
	Limit     int64          `yaml:"limit,omitempty"`
	SkipEmpty bool           `yaml:"skip_empty,omitempty"`
	Delimiter string         `yaml:"delimiter,omitempty"`
}

// StringList is a YAML type that can be either a scalar or a list of
// scalars. Numbers are kept in their written form.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		list := make([]string, 0, len(node.Content))
		for _, n := range node.Content {
			if n.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: args must be scalars", n.Line)
			}
			list = append(list, n.Value)
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("line %d: args must be a scalar or a list", node.Line)
	}
}

// MarshalYAML implements yaml.Marshaler for StringList.
func (s StringList) MarshalYAML() (any, error) {
	return []string(s), nil
}

// Load reads and validates the plan file at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML plan. Unknown fields are rejected.
func Parse(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	p := &Plan{}
	if err := dec.Decode(p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, xorgen.NewConfigError("plan", nil, "empty document")
		}
		return nil, xorgen.NewConfigError("plan", nil, err.Error())
	}
	if err := p.Validate(DefaultRegistry); err != nil {
		return nil, err
	}
	return p, nil
}

// Marshal encodes the plan as YAML.
func (p *Plan) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

// Validate checks the plan against the kinds known to r and fills in
// defaults: batch size, table names and drivers.
func (p *Plan) Validate(r *Registry) error {
	if p.Batch < 0 {
		return xorgen.NewConfigError("batch", p.Batch, "must not be negative")
	}
	if p.Batch == 0 {
		p.Batch = DefaultBatch
	}
	if p.Parallel < 0 {
		return xorgen.NewConfigError("parallel", p.Parallel, "must not be negative")
	}
	if len(p.Tables) == 0 {
		return xorgen.NewConfigError("tables", nil, "plan has no tables")
	}
	seen := make(map[string]bool, len(p.Tables))
	var errs []error
	for i, t := range p.Tables {
		if t == nil {
			errs = append(errs, xorgen.NewConfigError("tables["+strconv.Itoa(i)+"]", nil, "empty table"))
			continue
		}
		if err := t.validate(r); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[t.Name] {
			errs = append(errs, xorgen.NewConfigError("table", t.Name, "declared twice"))
		}
		seen[t.Name] = true
	}
	return xorgen.NewAggregateError(errs...)
}

// TableName returns the default table name of an entity.
func TableName(entity string) string {
	return inflect.Pluralize(inflect.Underscore(entity))
}

func (t *Table) validate(r *Registry) error {
	if t.Name == "" {
		if t.Entity == "" {
			return xorgen.NewConfigError("table", nil, "entity or table name is required")
		}
		t.Name = TableName(t.Entity)
	}
	if !sql.IsValidIdentifier(t.Name) {
		return xorgen.NewConfigError("table", t.Name, "not a valid identifier")
	}
	if t.Rows < 0 {
		return xorgen.NewConfigError(t.Name+".rows", t.Rows, "must not be negative")
	}
	if len(t.Columns) == 0 {
		return xorgen.NewConfigError(t.Name+".columns", nil, "table has no columns")
	}
	byName := make(map[string]*Column, len(t.Columns))
	for _, c := range t.Columns {
		if c == nil || c.Name == "" {
			return xorgen.NewConfigError(t.Name+".columns", nil, "column without a name")
		}
		if !sql.IsValidIdentifier(c.Name) || strings.Contains(c.Name, ".") {
			return xorgen.NewConfigError(t.Name+".columns", c.Name, "not a valid column name")
		}
		if byName[c.Name] != nil {
			return xorgen.NewConfigError(t.Name+".columns", c.Name, "declared twice")
		}
		byName[c.Name] = c
	}
	for _, c := range t.Columns {
		if err := c.validate(t, byName, r); err != nil {
			return err
		}
	}
	if t.Driver == "" {
		for _, c := range t.Columns {
			if c.Kind != "" && !r.dependent(c.Kind) && !t.nested(c.Name) {
				t.Driver = c.Name
				break
			}
		}
	}
	d := byName[t.Driver]
	switch {
	case d == nil:
		return xorgen.NewConfigError(t.Name+".driver", t.Driver, "no such column")
	case d.Kind == "":
		return xorgen.NewConfigError(t.Name+".driver", t.Driver, "driver must have a generator kind")
	case r.dependent(d.Kind):
		return xorgen.NewConfigError(t.Name+".driver", t.Driver, d.Kind+" generators cannot drive a table")
	case t.nested(d.Name):
		return xorgen.NewConfigError(t.Name+".driver", t.Driver, "nested element generators cannot drive a table")
	}
	return nil
}

// nested reports whether column name is an owner's element generator.
func (t *Table) nested(name string) bool {
	for _, c := range t.Columns {
		if c.Element == name {
			return true
		}
	}
	return false
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (c *Column) validate(t *Table, byName map[string]*Column, r *Registry) error {
	field := t.Name + "." + c.Name
	switch {
	case c.Kind == "" && c.From == "":
		return xorgen.NewConfigError(field, nil, "one of kind or from is required")
	case c.Kind != "" && c.From != "":
		return xorgen.NewConfigError(field, nil, "kind and from are exclusive")
	}
	if c.Type != "" {
		if _, ok := generator.ParseKind(c.Type); !ok {
			return xorgen.NewConfigError(field+".type", c.Type, "unknown value type")
		}
	}
	if c.From != "" {
		src := byName[c.From]
		if src == nil || src.Kind == "" {
			return xorgen.NewConfigError(field+".from", c.From, "no generator column with that name")
		}
		if _, err := parseAccessor(c.Accessor); err != nil {
			return xorgen.NewConfigError(field+".accessor", c.Accessor, err.Error())
		}
		return nil
	}
	if _, ok := r.Lookup(c.Kind); !ok {
		return xorgen.NewConfigError(field+".kind", c.Kind, "unknown generator kind")
	}
	if c.Accessor != "" {
		if _, err := parseAccessor(c.Accessor); err != nil {
			return xorgen.NewConfigError(field+".accessor", c.Accessor, err.Error())
		}
	}
	if r.dependent(c.Kind) && c.Listen == "" {
		return xorgen.NewConfigError(field+".listen", nil, c.Kind+" generators must listen to a column")
	}
	if c.Listen != "" {
		src := byName[c.Listen]
		switch {
		case src == nil || src.Kind == "":
			return xorgen.NewConfigError(field+".listen", c.Listen, "no generator column with that name")
		case src == c:
			return xorgen.NewConfigError(field+".listen", c.Listen, "a column cannot listen to itself")
		case r.dependent(src.Kind):
			return xorgen.NewConfigError(field+".listen", c.Listen, "cannot listen to a dependent generator")
		}
	}
	if c.Element != "" {
		if !r.owner(c.Kind) {
			return xorgen.NewConfigError(field+".element", c.Element, "only collection owners take an element generator")
		}
		el := byName[c.Element]
		if el == nil || !r.element(el.Kind) {
			return xorgen.NewConfigError(field+".element", c.Element, "no element generator column with that name")
		}
	}
	if c.Fetch < 0 {
		return xorgen.NewConfigError(field+".fetch", c.Fetch, "must not be negative")
	}
	return nil
}
