package vector

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderInsert(t *testing.T) {
	t.Run("basic insert and seal", func(t *testing.T) {
		b := NewBuilder(3)
		require.NoError(t, b.Insert("snip-1", "a.go", []float32{1, 0, 0}))
		require.NoError(t, b.Insert("snip-2", "a.go", []float32{0, 1, 0}))
		assert.Equal(t, 2, b.Len())

		gen := b.Seal("gen-1")
		assert.Equal(t, "gen-1", gen.ID())
		assert.Equal(t, 2, gen.Len())
		assert.Equal(t, 3, gen.Dimension())
		assert.True(t, gen.Contains("snip-1"))
		assert.False(t, gen.Contains("snip-3"))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		b := NewBuilder(3)
		err := b.Insert("snip-1", "a.go", []float32{1, 0})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("empty snippet id", func(t *testing.T) {
		b := NewBuilder(3)
		err := b.Insert("", "a.go", []float32{1, 0, 0})
		require.Error(t, err)
	})

	t.Run("insert replaces existing id", func(t *testing.T) {
		b := NewBuilder(2)
		require.NoError(t, b.Insert("snip-1", "a.go", []float32{1, 0}))
		require.NoError(t, b.Insert("snip-1", "a.go", []float32{0, 1}))
		assert.Equal(t, 1, b.Len())

		gen := b.Seal("gen-1")
		hits, err := gen.Query([]float32{0, 1}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	})

	t.Run("vectors are normalized at insert", func(t *testing.T) {
		b := NewBuilder(2)
		require.NoError(t, b.Insert("snip-1", "a.go", []float32{3, 4}))

		gen := b.Seal("gen-1")
		vec, ok := gen.Vector("snip-1")
		require.True(t, ok)

		var sum float64
		for _, v := range vec {
			sum += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6, "stored vector should have unit norm")
	})

	t.Run("caller slice is not retained", func(t *testing.T) {
		b := NewBuilder(2)
		src := []float32{1, 0}
		require.NoError(t, b.Insert("snip-1", "a.go", src))
		src[0] = 0
		src[1] = 1

		gen := b.Seal("gen-1")
		hits, err := gen.Query([]float32{1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6, "mutation of caller slice must not affect index")
	})
}

func TestBuilderDelete(t *testing.T) {
	t.Run("delete by id", func(t *testing.T) {
		b := NewBuilder(2)
		require.NoError(t, b.Insert("snip-1", "a.go", []float32{1, 0}))
		require.NoError(t, b.Insert("snip-2", "b.go", []float32{0, 1}))

		b.Delete("snip-1")
		assert.Equal(t, 1, b.Len())

		// Deleting an absent id is a no-op
		b.Delete("snip-1")
		assert.Equal(t, 1, b.Len())
	})

	t.Run("delete by file", func(t *testing.T) {
		b := NewBuilder(2)
		require.NoError(t, b.Insert("snip-1", "a.go", []float32{1, 0}))
		require.NoError(t, b.Insert("snip-2", "a.go", []float32{0, 1}))
		require.NoError(t, b.Insert("snip-3", "b.go", []float32{1, 1}))

		removed := b.DeleteByFile("a.go")
		assert.Equal(t, 2, removed)
		assert.Equal(t, 1, b.Len())

		removed = b.DeleteByFile("missing.go")
		assert.Equal(t, 0, removed)
	})
}

func TestGenerationQuery(t *testing.T) {
	build := func(t *testing.T) *Generation {
		t.Helper()
		b := NewBuilder(3)
		require.NoError(t, b.Insert("snip-a", "a.go", []float32{1, 0, 0}))
		require.NoError(t, b.Insert("snip-b", "b.go", []float32{0, 1, 0}))
		require.NoError(t, b.Insert("snip-c", "c.go", []float32{0, 0, 1}))
		return b.Seal("gen-1")
	}

	t.Run("exact match ranks first with score one", func(t *testing.T) {
		gen := build(t)

		hits, err := gen.Query([]float32{0, 1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)

		assert.Equal(t, "snip-b", hits[0].SnippetID)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	})

	t.Run("descending score order", func(t *testing.T) {
		b := NewBuilder(2)
		require.NoError(t, b.Insert("near", "a.go", []float32{1, 0.1}))
		require.NoError(t, b.Insert("mid", "a.go", []float32{1, 1}))
		require.NoError(t, b.Insert("far", "a.go", []float32{0, 1}))
		gen := b.Seal("gen-1")

		hits, err := gen.Query([]float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)

		assert.Equal(t, "near", hits[0].SnippetID)
		assert.Equal(t, "mid", hits[1].SnippetID)
		assert.Equal(t, "far", hits[2].SnippetID)
		for i := 1; i < len(hits); i++ {
			assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
		}
	})

	t.Run("ties broken by snippet id", func(t *testing.T) {
		b := NewBuilder(2)
		// Identical vectors produce identical scores
		require.NoError(t, b.Insert("zzz", "a.go", []float32{1, 0}))
		require.NoError(t, b.Insert("aaa", "a.go", []float32{1, 0}))
		require.NoError(t, b.Insert("mmm", "a.go", []float32{1, 0}))
		gen := b.Seal("gen-1")

		hits, err := gen.Query([]float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)

		assert.Equal(t, "aaa", hits[0].SnippetID)
		assert.Equal(t, "mmm", hits[1].SnippetID)
		assert.Equal(t, "zzz", hits[2].SnippetID)
	})

	t.Run("k truncation", func(t *testing.T) {
		gen := build(t)

		hits, err := gen.Query([]float32{1, 0, 0}, 2)
		require.NoError(t, err)
		assert.Len(t, hits, 2)

		hits, err = gen.Query([]float32{1, 0, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, hits, 3, "k larger than corpus returns everything")
	})

	t.Run("k zero or negative returns nothing", func(t *testing.T) {
		gen := build(t)

		hits, err := gen.Query([]float32{1, 0, 0}, 0)
		require.NoError(t, err)
		assert.Empty(t, hits)

		hits, err = gen.Query([]float32{1, 0, 0}, -1)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("empty generation returns nothing", func(t *testing.T) {
		gen := NewBuilder(3).Seal("empty")

		hits, err := gen.Query([]float32{1, 0, 0}, 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		gen := build(t)

		_, err := gen.Query([]float32{1, 0}, 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("query vector is normalized", func(t *testing.T) {
		gen := build(t)

		// Unnormalized query pointing the same direction as snip-a
		hits, err := gen.Query([]float32{17, 0, 0}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "snip-a", hits[0].SnippetID)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	})

	t.Run("zero query vector scores zero", func(t *testing.T) {
		gen := build(t)

		hits, err := gen.Query([]float32{0, 0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		for _, h := range hits {
			assert.Zero(t, h.Score)
		}
	})
}

func TestGenerationVector(t *testing.T) {
	b := NewBuilder(2)
	require.NoError(t, b.Insert("snip-1", "a.go", []float32{1, 0}))
	gen := b.Seal("gen-1")

	vec, ok := gen.Vector("snip-1")
	require.True(t, ok)

	// Mutating the returned copy must not affect later queries
	vec[0] = 0
	hits, err := gen.Query([]float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)

	_, ok = gen.Vector("missing")
	assert.False(t, ok)
}

func TestSealedGenerationImmutable(t *testing.T) {
	b := NewBuilder(2)
	require.NoError(t, b.Insert("snip-1", "a.go", []float32{1, 0}))
	gen := b.Seal("gen-1")

	// Builder keeps working after seal without affecting the snapshot
	require.NoError(t, b.Insert("snip-2", "b.go", []float32{0, 1}))
	b.Delete("snip-1")

	assert.Equal(t, 1, gen.Len())
	assert.True(t, gen.Contains("snip-1"))
	assert.False(t, gen.Contains("snip-2"))
}

func TestConcurrentQueries(t *testing.T) {
	b := NewBuilder(4)
	for i := 0; i < 200; i++ {
		vec := []float32{float32(i), float32(i % 7), float32(i % 13), 1}
		require.NoError(t, b.Insert(fmt.Sprintf("snip-%03d", i), fmt.Sprintf("f%d.go", i%10), vec))
	}
	gen := b.Seal("gen-1")

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q := []float32{float32(seed), float32(j), 1, 0}
				hits, err := gen.Query(q, 5)
				if err != nil {
					t.Errorf("Query error: %v", err)
					return
				}
				if len(hits) > 5 {
					t.Errorf("got %d hits, want <= 5", len(hits))
					return
				}
			}
		}(w)
	}
	wg.Wait()
}
