package generator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/generator"
)

func TestCollectionElementGeneratorBlocks(t *testing.T) {
	t.Parallel()
	g, err := generator.NewCollectionElementGenerator(1, 10, generator.WithSeed(42))
	require.NoError(t, err)
	require.NoError(t, g.Init(t.Context(), nil, nil))

	var got []int64
	for i := range int64(2) {
		g.NextOwner(1, i, 2)
		require.True(t, g.HasNext())
		v, ok := g.Next(nil).Int64()
		require.True(t, ok)
		got = append(got, v)
	}
	assert.False(t, g.HasNext())
	assert.True(t, g.Next(nil).IsNull())

	// Blocks of five: [1,5] and [6,10].
	assert.GreaterOrEqual(t, got[0], int64(1))
	assert.LessOrEqual(t, got[0], int64(5))
	assert.GreaterOrEqual(t, got[1], int64(6))
	assert.LessOrEqual(t, got[1], int64(10))
	assert.Equal(t, int64(1), g.Owner())
}

func TestCollectionElementGeneratorDistinct(t *testing.T) {
	t.Parallel()
	g, err := generator.NewCollectionElementGenerator(100, 199)
	require.NoError(t, err)
	require.NoError(t, g.Init(t.Context(), nil, nil))

	for owner := int64(1); owner <= 20; owner++ {
		size := owner%7 + 1
		var prev int64 = 99
		for i := range size {
			g.NextOwner(owner, i, size)
			v, ok := g.Next(nil).Int64()
			require.True(t, ok)
			require.Greater(t, v, prev, "owner %d elements must ascend", owner)
			require.LessOrEqual(t, v, int64(199))
			prev = v
		}
	}
}

func TestCollectionElementGeneratorEmpty(t *testing.T) {
	t.Parallel()
	g, err := generator.NewCollectionElementGenerator(1, 10)
	require.NoError(t, err)
	require.NoError(t, g.Init(t.Context(), nil, nil))
	g.NextOwner(3, 0, 0)
	assert.False(t, g.HasNext())
	assert.True(t, g.Next(nil).IsNull())
	assert.True(t, g.Current().IsNull())
}

func TestCollectionElementGeneratorReproducible(t *testing.T) {
	t.Parallel()
	run := func(g *generator.CollectionElementGenerator) []int64 {
		require.NoError(t, g.Init(t.Context(), nil, nil))
		var out []int64
		for owner := int64(1); owner <= 5; owner++ {
			for i := range int64(3) {
				g.NextOwner(owner, i, 3)
				v, _ := g.Next(nil).Int64()
				out = append(out, v)
			}
		}
		return out
	}
	g, err := generator.NewCollectionElementGenerator(1, 300, generator.WithSeed(9))
	require.NoError(t, err)
	first := run(g)
	assert.Equal(t, first, run(g))
}

func TestCollectionElementGeneratorArgs(t *testing.T) {
	t.Parallel()
	_, err := generator.NewCollectionElementGeneratorArgs([]string{"10", "1"})
	assert.True(t, xorgen.IsConfigError(err))
	_, err = generator.NewCollectionElementGeneratorArgs([]string{"1"})
	assert.True(t, xorgen.IsConfigError(err))
	g, err := generator.NewCollectionElementGeneratorArgs([]string{"1", "10"})
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestSlidingElementGenerator(t *testing.T) {
	t.Parallel()
	g := generator.NewSlidingElementGenerator(1)
	require.NoError(t, g.Init(t.Context(), nil, nil))

	var got []int64
	sizes := []int64{2, 0, 3}
	for owner, size := range sizes {
		for i := range size {
			g.NextOwner(int64(owner), i, size)
			v, ok := g.Next(nil).Int64()
			require.True(t, ok)
			got = append(got, v)
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got)

	require.NoError(t, g.Init(t.Context(), nil, nil))
	g.NextOwner(1, 0, 1)
	v, _ := g.Next(nil).Int64()
	assert.Equal(t, int64(1), v)

	_, err := generator.NewSlidingElementGeneratorArgs(nil)
	assert.True(t, xorgen.IsConfigError(err))
}
