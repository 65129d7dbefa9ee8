package generator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/generator"
)

func TestBranchingFactor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		depth int
		total int64
		want  int64
	}{
		{1, 500, 500},
		{2, 48, 7},
		{2, 49, 11},
		{2, 50, 11},
		{3, 1000, 11},
		{2, 10000, 101},
		{4, 1_000_000, 37},
		{2, 100_000_000, 10007},
	}
	for _, tt := range tests {
		got, err := generator.BranchingFactor(tt.depth, tt.total)
		require.NoError(t, err, "depth=%d total=%d", tt.depth, tt.total)
		assert.Equal(t, tt.want, got, "depth=%d total=%d", tt.depth, tt.total)
	}
}

func TestBranchingFactorErrors(t *testing.T) {
	t.Parallel()
	_, err := generator.BranchingFactor(2, 200_000_000)
	require.Error(t, err)
	assert.True(t, xorgen.IsHierarchyError(err))
	assert.True(t, xorgen.IsConfigError(err))

	_, err = generator.BranchingFactor(0, 10)
	assert.True(t, xorgen.IsConfigError(err))
	_, err = generator.BranchingFactor(2, 0)
	assert.True(t, xorgen.IsConfigError(err))

	_, err = generator.NewHierarchyGenerator(2, 200_000_000)
	assert.True(t, xorgen.IsHierarchyError(err))
}

func TestHierarchyGeneratorPaths(t *testing.T) {
	t.Parallel()
	g, err := generator.NewHierarchyGenerator(2, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(11), g.BranchingFactor())
	assert.Equal(t, 2, g.Depth())
	require.NoError(t, g.Init(t.Context(), nil, nil))
	assert.Empty(t, g.Path())

	ids := make(map[int64]bool)
	parents := make(map[string]int)
	n := 0
	for g.HasNext() {
		id, ok := g.Next(nil).Int64()
		require.True(t, ok)
		require.False(t, ids[id], "duplicate id %d", id)
		ids[id] = true

		segs := strings.Split(g.Path(), "/")
		require.Len(t, segs, 2, "path %q", g.Path())
		assert.Equal(t, segs[1], g.Current().String())
		assert.Equal(t, segs[0], g.ParentID().String())
		require.False(t, ids[mustInt(t, g.ParentID())], "parent ids are never leaves")
		parents[segs[0]]++
		n++
	}
	assert.Equal(t, 50, n)
	for parent, children := range parents {
		assert.LessOrEqual(t, children, 11, "parent %s", parent)
	}
	assert.True(t, g.Next(nil).IsNull())
}

func TestHierarchyGeneratorIDs(t *testing.T) {
	t.Parallel()
	g, err := generator.NewHierarchyGenerator(3, 20)
	require.NoError(t, err)
	require.NoError(t, g.Init(t.Context(), nil, nil))

	// Branching factor 7: the first leaf opens one node per level.
	g.Next(nil)
	assert.Equal(t, "1/2/3", g.Path())
	g.Next(nil)
	assert.Equal(t, "1/2/4", g.Path())
	for range 5 {
		g.Next(nil)
	}
	assert.Equal(t, "1/2/9", g.Path())
	g.Next(nil)
	assert.Equal(t, "1/10/11", g.Path())
	p, _ := g.ParentID().Int64()
	assert.Equal(t, int64(10), p)
}

func TestHierarchyGeneratorReinit(t *testing.T) {
	t.Parallel()
	g, err := generator.NewHierarchyGenerator(2, 30, generator.WithDelimiter("."), generator.WithStart(100))
	require.NoError(t, err)
	run := func() []string {
		require.NoError(t, g.Init(t.Context(), nil, nil))
		var out []string
		for g.HasNext() {
			g.Next(nil)
			out = append(out, g.Path())
		}
		return out
	}
	first := run()
	require.Len(t, first, 30)
	assert.Equal(t, "100.101", first[0])
	assert.Equal(t, first, run())
}

func TestHierarchyGeneratorSingleLevel(t *testing.T) {
	t.Parallel()
	g, err := generator.NewHierarchyGeneratorArgs([]string{"1", "4"})
	require.NoError(t, err)
	require.NoError(t, g.Init(t.Context(), nil, nil))
	assert.Equal(t, []int64{1, 2, 3, 4}, drain(t, g, nil))
	assert.Equal(t, "4", g.Path())
	assert.True(t, g.ParentID().IsNull())

	_, err = generator.NewHierarchyGeneratorArgs([]string{"2"})
	assert.True(t, xorgen.IsConfigError(err))
	_, err = generator.NewHierarchyGenerator(2, 10, generator.WithDelimiter(""))
	assert.True(t, xorgen.IsConfigError(err))
}

func mustInt(t *testing.T, v generator.Value) int64 {
	t.Helper()
	i, ok := v.Int64()
	require.True(t, ok)
	return i
}
