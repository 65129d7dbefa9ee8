package xorgen_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/xorgen"
)

func TestConfigError(t *testing.T) {
	t.Parallel()
	t.Run("Error", func(t *testing.T) {
		t.Parallel()
		err := xorgen.NewConfigError("fetch_size", -1, "must be positive")
		assert.Equal(t, "xorgen: invalid fetch_size (-1): must be positive", err.Error())

		err = xorgen.NewConfigError("plan", nil, "no tables")
		assert.Equal(t, "xorgen: invalid plan: no tables", err.Error())
	})

	t.Run("IsConfigError", func(t *testing.T) {
		t.Parallel()
		err := xorgen.NewConfigError("seed", "x", "not a number")
		assert.True(t, xorgen.IsConfigError(err))
		assert.True(t, xorgen.IsConfigError(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, errors.Is(err, xorgen.ErrConfig))
		assert.False(t, xorgen.IsConfigError(errors.New("other error")))
		assert.False(t, xorgen.IsConfigError(nil))
	})
}

func TestRangeSpecError(t *testing.T) {
	t.Parallel()
	t.Run("Error", func(t *testing.T) {
		t.Parallel()
		err := xorgen.NewRangeSpecError("1,x:2", "bad end id", nil)
		assert.Equal(t, `xorgen: range spec "1,x:2": bad end id`, err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		t.Parallel()
		inner := errors.New("strconv failure")
		err := xorgen.NewRangeSpecError("a", "bad start id", inner)
		assert.ErrorIs(t, err, inner)
		assert.Contains(t, err.Error(), "strconv failure")
	})

	t.Run("IsConfig", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("building: %w", xorgen.NewRangeSpecError("1,2", "missing size", nil))
		assert.True(t, xorgen.IsRangeSpecError(err))
		assert.True(t, xorgen.IsConfigError(err))
		assert.False(t, xorgen.IsRangeSpecError(nil))
	})
}

func TestHierarchyError(t *testing.T) {
	t.Parallel()
	err := &xorgen.HierarchyError{Depth: 2, Total: 1_000_000_000}
	assert.Equal(t, "xorgen: no branching factor can hold 1000000000 records in 2 levels", err.Error())
	assert.True(t, xorgen.IsHierarchyError(err))
	assert.True(t, xorgen.IsConfigError(err))
	assert.False(t, xorgen.IsHierarchyError(errors.New("other")))
}

func TestQueryError(t *testing.T) {
	t.Parallel()
	inner := errors.New("connection refused")
	err := xorgen.NewQueryError("init", "SELECT 1", inner)
	assert.Equal(t, "xorgen: query generator init: connection refused", err.Error())
	assert.Equal(t, "SELECT 1", err.Query)
	assert.ErrorIs(t, err, inner)
	assert.True(t, xorgen.IsQueryError(fmt.Errorf("wrap: %w", err)))
	assert.False(t, xorgen.IsQueryError(nil))
	assert.False(t, xorgen.IsConfigError(err))
}

func TestSinkError(t *testing.T) {
	t.Parallel()
	inner := errors.New("disk full")
	err := xorgen.NewSinkError("users", inner)
	assert.Equal(t, "xorgen: writing users: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestAggregateError(t *testing.T) {
	t.Parallel()
	t.Run("nil when empty", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, xorgen.NewAggregateError())
		assert.NoError(t, xorgen.NewAggregateError(nil, nil))
	})

	t.Run("single error unwrapped", func(t *testing.T) {
		t.Parallel()
		e := errors.New("only")
		assert.Equal(t, e, xorgen.NewAggregateError(nil, e))
	})

	t.Run("multiple", func(t *testing.T) {
		t.Parallel()
		e1, e2 := errors.New("first"), errors.New("second")
		err := xorgen.NewAggregateError(e1, nil, e2)
		var agg *xorgen.AggregateError
		require.ErrorAs(t, err, &agg)
		assert.Len(t, agg.Errors, 2)
		assert.Equal(t, "xorgen: multiple errors:\n  [1] first\n  [2] second", err.Error())
		assert.ErrorIs(t, err, e2)
	})

	t.Run("empty struct", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "xorgen: no errors", (&xorgen.AggregateError{}).Error())
	})
}
