package vector

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// ErrDimensionMismatch is returned when a vector's length does not match the
// dimension the index was created with.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Hit is a single query result: a snippet id and its cosine similarity
// against the query vector.
type Hit struct {
	SnippetID string
	Score     float64
}

// Builder accumulates vectors for a generation under construction. Vectors
// are L2-normalized on insert so queries reduce to an inner-product scan.
// A Builder is safe for concurrent use. Sealing copies nothing out of the
// live entries map by reference that a later Insert or Delete could mutate,
// so a sealed Generation is immutable even if the builder keeps working.
type Builder struct {
	mu        sync.Mutex
	dimension int
	entries   map[string]entry
}

type entry struct {
	filePath string
	vector   []float32
}

// NewBuilder creates a builder for vectors of the given dimension.
func NewBuilder(dimension int) *Builder {
	return &Builder{
		dimension: dimension,
		entries:   make(map[string]entry),
	}
}

// Insert adds or replaces the vector for a snippet. The vector is copied and
// L2-normalized; the caller's slice is not retained.
func (b *Builder) Insert(snippetID, filePath string, vec []float32) error {
	if snippetID == "" {
		return errors.New("snippet id cannot be empty")
	}
	if len(vec) != b.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), b.dimension)
	}

	normalized := normalize(vec)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[snippetID] = entry{filePath: filePath, vector: normalized}
	return nil
}

// Delete removes a snippet's vector. Deleting an absent id is a no-op.
func (b *Builder) Delete(snippetID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, snippetID)
}

// DeleteByFile removes every vector contributed by the given file and
// returns the number removed.
func (b *Builder) DeleteByFile(filePath string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for id, e := range b.entries {
		if e.filePath == filePath {
			delete(b.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of vectors currently in the builder.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Dimension returns the vector dimension the builder was created with.
func (b *Builder) Dimension() int {
	return b.dimension
}

// Seal freezes the builder's contents into an immutable Generation under the
// given id. Entries are ordered by snippet id so scans and score ties are
// deterministic.
func (b *Builder) Seal(id string) *Generation {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]string, 0, len(b.entries))
	for snippetID := range b.entries {
		ids = append(ids, snippetID)
	}
	sort.Strings(ids)

	gen := &Generation{
		id:        id,
		dimension: b.dimension,
		createdAt: time.Now().UTC(),
		ids:       ids,
		files:     make([]string, len(ids)),
		vectors:   make([][]float32, len(ids)),
		byID:      make(map[string]int, len(ids)),
	}
	for i, snippetID := range ids {
		e := b.entries[snippetID]
		gen.files[i] = e.filePath
		gen.vectors[i] = e.vector
		gen.byID[snippetID] = i
	}
	return gen
}

// Generation is an immutable, queryable snapshot of the vector index. Any
// number of readers may query one generation concurrently; a rebuild
// produces a fresh generation and swaps the active pointer, it never edits
// a sealed one.
type Generation struct {
	id        string
	dimension int
	createdAt time.Time
	ids       []string
	files     []string
	vectors   [][]float32
	byID      map[string]int
}

// ID returns the generation identifier assigned at seal time.
func (g *Generation) ID() string {
	return g.id
}

// Dimension returns the vector dimension.
func (g *Generation) Dimension() int {
	return g.dimension
}

// Len returns the number of indexed vectors.
func (g *Generation) Len() int {
	return len(g.ids)
}

// CreatedAt returns the seal timestamp.
func (g *Generation) CreatedAt() time.Time {
	return g.createdAt
}

// Contains reports whether the generation holds a vector for the snippet.
func (g *Generation) Contains(snippetID string) bool {
	_, ok := g.byID[snippetID]
	return ok
}

// Vector returns a copy of the stored (normalized) vector for a snippet.
func (g *Generation) Vector(snippetID string) ([]float32, bool) {
	i, ok := g.byID[snippetID]
	if !ok {
		return nil, false
	}
	out := make([]float32, len(g.vectors[i]))
	copy(out, g.vectors[i])
	return out, true
}

// Query returns up to k hits ranked by cosine similarity, descending, with
// ties broken by ascending snippet id. The query vector is normalized before
// the scan, so stored inner products equal cosine similarity.
func (g *Generation) Query(vec []float32, k int) ([]Hit, error) {
	if len(vec) != g.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), g.dimension)
	}
	if k <= 0 || len(g.ids) == 0 {
		return nil, nil
	}

	q := normalize(vec)

	hits := make([]Hit, 0, len(g.ids))
	for i, id := range g.ids {
		hits = append(hits, Hit{SnippetID: id, Score: dot(q, g.vectors[i])})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].SnippetID < hits[j].SnippetID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// normalize returns an L2-normalized copy of vec. A zero vector normalizes
// to the zero vector rather than NaN.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	out := make([]float32, len(vec))
	if sum == 0 {
		return out
	}

	norm := float32(math.Sqrt(sum))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

// dot computes the inner product in float64 to limit accumulation error.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
