package plan_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/xorgen/dialect"
	"github.com/syssam/xorgen/generator"
	"github.com/syssam/xorgen/plan"
)

func TestRegistryLookup(t *testing.T) {
	t.Parallel()
	r := plan.NewRegistry()
	for _, kind := range []string{"counter", "COUNTER", "Collection-Owner", "collection_owner", " to_one ", "UUID"} {
		_, ok := r.Lookup(kind)
		assert.True(t, ok, kind)
	}
	_, ok := r.Lookup("random")
	assert.False(t, ok)

	e, ok := r.Lookup("to-one")
	require.True(t, ok)
	assert.Equal(t, plan.RoleDependent, e.Role)
	e, _ = r.Lookup("sliding_element")
	assert.Equal(t, plan.RoleElement, e.Role)

	assert.Equal(t, []string{
		"collection_element", "collection_owner", "counter", "hierarchy",
		"query", "shared_counter", "sliding_element", "to_one", "uuid",
	}, r.Kinds())
}

type constant struct{ v generator.Value }

func (c constant) Init(context.Context, dialect.Driver, *generator.Visitor) error { return nil }

func (c constant) Current() generator.Value { return c.v }

func TestRegistryRegister(t *testing.T) {
	t.Parallel()
	r := plan.NewRegistry()
	r.Register("Constant", plan.RoleDependent, func(b *plan.BuildContext) (plan.Component, error) {
		return constant{generator.String(b.Column.Args[0])}, nil
	})
	e, ok := r.Lookup("constant")
	require.True(t, ok)
	comp, err := e.Factory(&plan.BuildContext{Column: &plan.Column{Args: plan.StringList{"x"}}})
	require.NoError(t, err)
	assert.Equal(t, "x", comp.Current().String())
}

func TestCounters(t *testing.T) {
	t.Parallel()
	cs := plan.NewCounters()
	var wg sync.WaitGroup
	got := make([]*generator.SharedCounter, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = cs.Get("ids", 100)
		}()
	}
	wg.Wait()
	for _, c := range got {
		assert.Same(t, got[0], c)
	}
	assert.Equal(t, int64(100), got[0].Peek())
	assert.NotSame(t, got[0], cs.Get("other", 1))
}
