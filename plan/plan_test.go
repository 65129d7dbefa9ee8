package plan_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/plan"
)

const employeesPlan = `
seed: 42
tables:
  - entity: Department
    columns:
      - name: id
        kind: counter
        args: [10, 1]
      - name: path
        from: id
  - entity: OrderItem
    driver: id
    rows: 100
    columns:
      - name: id
        kind: counter
        args: 2000
      - name: department_id
        kind: to_one
        listen: id
        args: [1, "1,500:0", "501,2000:2"]
`

func TestParse(t *testing.T) {
	t.Parallel()
	p, err := plan.Parse([]byte(employeesPlan))
	require.NoError(t, err)

	assert.Equal(t, uint64(42), p.Seed)
	assert.Equal(t, plan.DefaultBatch, p.Batch)
	require.Len(t, p.Tables, 2)

	dept := p.Tables[0]
	assert.Equal(t, "departments", dept.Name)
	assert.Equal(t, "id", dept.Driver, "driver defaults to the first generator column")
	assert.Equal(t, plan.StringList{"10", "1"}, dept.Columns[0].Args)

	items := p.Tables[1]
	assert.Equal(t, "order_items", items.Name)
	assert.Equal(t, int64(100), items.Rows)
	assert.Equal(t, plan.StringList{"2000"}, items.Column("id").Args)
	assert.Equal(t, plan.StringList{"1", "1,500:0", "501,2000:2"}, items.Column("department_id").Args)
	assert.Equal(t, []string{"id", "department_id"}, items.ColumnNames())
	assert.Nil(t, items.Column("missing"))
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(employeesPlan), 0o644))
	p, err := plan.Load(path)
	require.NoError(t, err)
	assert.Len(t, p.Tables, 2)

	_, err = plan.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTableName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"Employee":   "employees",
		"OrderItem":  "order_items",
		"Category":   "categories",
		"Person":     "people",
		"UserRole":   "user_roles",
		"Department": "departments",
	}
	for entity, want := range tests {
		assert.Equal(t, want, plan.TableName(entity), entity)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ``},
		{"no tables", `seed: 1`},
		{"unknown field", "tables:\n  - entity: A\n    colums: []"},
		{"negative batch", "batch: -1\ntables:\n  - entity: A\n    columns:\n      - {name: id, kind: counter, args: [1]}"},
		{"no name", "tables:\n  - columns:\n      - {name: id, kind: counter, args: [1]}"},
		{"bad table name", "tables:\n  - table: \"a b\"\n    columns:\n      - {name: id, kind: counter, args: [1]}"},
		{"no columns", "tables:\n  - entity: A"},
		{"duplicate column", "tables:\n  - entity: A\n    columns:\n      - {name: id, kind: counter, args: [1]}\n      - {name: id, kind: counter, args: [1]}"},
		{"unknown kind", "tables:\n  - entity: A\n    columns:\n      - {name: id, kind: random, args: [1]}"},
		{"kind and from", "tables:\n  - entity: A\n    columns:\n      - {name: id, kind: counter, args: [1], from: x}"},
		{"neither kind nor from", "tables:\n  - entity: A\n    columns:\n      - {name: id}"},
		{"from missing column", "tables:\n  - entity: A\n    columns:\n      - {name: id, kind: counter, args: [1]}\n      - {name: x, from: nope}"},
		{"bad accessor", "tables:\n  - entity: A\n    columns:\n      - {name: id, kind: counter, args: [1]}\n      - {name: x, from: id, accessor: sideways}"},
		{"bad type", "tables:\n  - entity: A\n    columns:\n      - {name: id, kind: counter, args: [1], type: complex}"},
		{"dependent without listen", "tables:\n  - entity: A\n    columns:\n      - {name: id, kind: counter, args: [1]}\n      - {name: p, kind: to_one, args: [1, \"1,1:1\"]}"},
		{"listen to missing", "tables:\n  - entity: A\n    columns:\n      - {name: id, kind: counter, args: [1]}\n      - {name: p, kind: uuid, listen: nope}"},
		{"element on counter", "tables:\n  - entity: A\n    columns:\n      - {name: id, kind: counter, args: [1], element: e}\n      - {name: e, kind: sliding_element, args: [1]}"},
		{"element not element kind", "tables:\n  - entity: A\n    columns:\n      - {name: id, kind: collection_owner, args: [1, \"1,1:1\"], element: c}\n      - {name: c, kind: counter, args: [1]}"},
		{"driver missing", "tables:\n  - entity: A\n    driver: nope\n    columns:\n      - {name: id, kind: counter, args: [1]}"},
		{"dependent driver", "tables:\n  - entity: A\n    driver: u\n    columns:\n      - {name: id, kind: counter, args: [1]}\n      - {name: u, kind: uuid, listen: id}"},
		{"duplicate table", "tables:\n  - entity: A\n    columns:\n      - {name: id, kind: counter, args: [1]}\n  - table: as\n    columns:\n      - {name: id, kind: counter, args: [1]}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := plan.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, xorgen.IsConfigError(err), "got %v", err)
		})
	}
}

func TestParseCollectsTableErrors(t *testing.T) {
	t.Parallel()
	_, err := plan.Parse([]byte(`
tables:
  - entity: A
    columns:
      - {name: id, kind: nope}
  - entity: B
    columns:
      - {name: id, kind: nope}
`))
	require.Error(t, err)
	var agg *xorgen.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Errors, 2)
}

func TestMarshal(t *testing.T) {
	t.Parallel()
	p, err := plan.Parse([]byte(employeesPlan))
	require.NoError(t, err)
	out, err := p.Marshal()
	require.NoError(t, err)

	again, err := plan.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, p, again)
}
