package retriever

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglab/codeassist-mcp/internal/embedder"
	"github.com/raglab/codeassist-mcp/internal/indexer"
	"github.com/raglab/codeassist-mcp/internal/storage"
	"github.com/raglab/codeassist-mcp/pkg/types"
)

var errEmbedDown = errors.New("embedder down")

// axisEmbedder maps keywords to orthogonal axes so cosine scores in tests
// are exact: a text containing only "Alpha" scores 1.0 against the query
// "Alpha" and 0.0 against "Beta"
type axisEmbedder struct {
	mu          sync.Mutex
	queryEmbeds int
	failQueries bool
}

func (a *axisEmbedder) vectorFor(text string) []float32 {
	vec := make([]float32, 4)
	matched := false
	for i, keyword := range []string{"Alpha", "Beta", "Gamma"} {
		if strings.Contains(text, keyword) {
			vec[i] = 1
			matched = true
		}
	}
	if !matched {
		vec[3] = 1
	}
	return vec
}

func (a *axisEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failQueries {
		return nil, errEmbedDown
	}
	a.queryEmbeds++

	return &embedder.Embedding{
		Vector:    a.vectorFor(req.Text),
		Dimension: 4,
		Provider:  "axis",
		Model:     "axis-v1",
	}, nil
}

func (a *axisEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		embeddings[i] = &embedder.Embedding{
			Vector:    a.vectorFor(text),
			Dimension: 4,
			Provider:  "axis",
			Model:     "axis-v1",
		}
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: embeddings, Provider: "axis", Model: "axis-v1"}, nil
}

func (a *axisEmbedder) Dimension() int   { return 4 }
func (a *axisEmbedder) Provider() string { return "axis" }
func (a *axisEmbedder) Model() string    { return "axis-v1" }
func (a *axisEmbedder) Close() error     { return nil }

func (a *axisEmbedder) queryCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queryEmbeds
}

func (a *axisEmbedder) setFailQueries(fail bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failQueries = fail
}

const alphaSrc = `package corpus

func AlphaHandler() string {
	return "Alpha"
}
`

const betaSrc = `package corpus

func BetaHandler() string {
	return "Beta"
}
`

const mixedSrc = `package corpus

func MixedHandler() string {
	return "Alpha with some Beta"
}
`

func writeCorpusFile(t testing.TB, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
}

// setupIndexed builds an index over a three-file corpus: one Alpha snippet,
// one Beta snippet, and one mentioning both
func setupIndexed(t *testing.T, emb embedder.Embedder) (*indexer.Manager, string) {
	t.Helper()

	dir := t.TempDir()
	writeCorpusFile(t, dir, "alpha.go", alphaSrc)
	writeCorpusFile(t, dir, "beta.go", betaSrc)
	writeCorpusFile(t, dir, "mixed.go", mixedSrc)

	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mgr := indexer.New(store, emb, &indexer.Config{Workers: 2})
	_, err = mgr.Rebuild(context.Background(), dir)
	require.NoError(t, err)

	return mgr, dir
}

func TestRetrieve_RanksBySimilarity(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, _ := setupIndexed(t, emb)
	r := New(mgr, emb, nil)

	result, err := r.Retrieve(context.Background(), "Alpha", 10, 0)
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	assert.Equal(t, "Alpha", result.Query)
	assert.Equal(t, mgr.Stats().GenerationID, result.GenerationID)

	assert.Equal(t, "AlphaHandler", result.Results[0].Snippet.Name)
	assert.InDelta(t, 1.0, result.Results[0].Score, 1e-6)

	assert.Equal(t, "MixedHandler", result.Results[1].Snippet.Name)
	assert.InDelta(t, 0.7071, result.Results[1].Score, 1e-3)

	assert.Equal(t, "BetaHandler", result.Results[2].Snippet.Name)
	assert.InDelta(t, 0.0, result.Results[2].Score, 1e-6)

	for i, hit := range result.Results {
		assert.Equal(t, i+1, hit.Rank)
		assert.NoError(t, hit.Validate())
		assert.NotEmpty(t, hit.Snippet.FilePath)
		assert.NotEmpty(t, hit.Snippet.Content)
	}
}

func TestRetrieve_MinScoreFilters(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, _ := setupIndexed(t, emb)
	r := New(mgr, emb, nil)

	result, err := r.Retrieve(context.Background(), "Alpha", 10, 0.5)
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	assert.Equal(t, "AlphaHandler", result.Results[0].Snippet.Name)
	assert.Equal(t, "MixedHandler", result.Results[1].Snippet.Name)

	// Ranks are assigned after the filter
	assert.Equal(t, 1, result.Results[0].Rank)
	assert.Equal(t, 2, result.Results[1].Rank)
}

func TestRetrieve_TruncatesToK(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, _ := setupIndexed(t, emb)
	r := New(mgr, emb, nil)

	result, err := r.Retrieve(context.Background(), "Alpha", 1, 0)
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.Equal(t, "AlphaHandler", result.Results[0].Snippet.Name)
}

func TestRetrieve_KDefaultsAndCaps(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, _ := setupIndexed(t, emb)
	r := New(mgr, emb, nil)

	result, err := r.Retrieve(context.Background(), "Alpha", 0, 0)
	require.NoError(t, err)
	assert.Len(t, result.Results, 3, "k <= 0 falls back to the default")

	result, err = r.Retrieve(context.Background(), "Alpha", 100000, 0)
	require.NoError(t, err)
	assert.Len(t, result.Results, 3)
}

func TestRetrieve_EmptyResultIsNotAnError(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, _ := setupIndexed(t, emb)
	r := New(mgr, emb, nil)

	result, err := r.Retrieve(context.Background(), "Gamma", 10, 0.5)
	require.NoError(t, err)

	assert.True(t, result.Empty())
	assert.Equal(t, "Gamma", result.Query)
	assert.NotEmpty(t, result.GenerationID)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, _ := setupIndexed(t, emb)
	r := New(mgr, emb, nil)

	_, err := r.Retrieve(context.Background(), "   ", 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestRetrieve_NotIndexed(t *testing.T) {
	emb := &axisEmbedder{}
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mgr := indexer.New(store, emb, nil)
	r := New(mgr, emb, nil)

	_, err = r.Retrieve(context.Background(), "Alpha", 10, 0)
	assert.ErrorIs(t, err, types.ErrNotIndexed)
}

func TestRetrieve_EmbedFailureIsUnavailable(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, _ := setupIndexed(t, emb)
	r := New(mgr, emb, nil)

	emb.setFailQueries(true)

	_, err := r.Retrieve(context.Background(), "Alpha", 10, 0)
	assert.ErrorIs(t, err, types.ErrRetrievalUnavailable)
}

func TestRetrieve_CacheHit(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, _ := setupIndexed(t, emb)
	r := New(mgr, emb, nil)

	first, err := r.Retrieve(context.Background(), "Alpha", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, emb.queryCount())

	second, err := r.Retrieve(context.Background(), "Alpha", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, emb.queryCount(), "repeat query must be served from cache")
	assert.Equal(t, first, second)

	// Mutating a returned result must not poison the cache
	second.Results[0].Snippet.Content = "tampered"

	third, err := r.Retrieve(context.Background(), "Alpha", 10, 0)
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", third.Results[0].Snippet.Content)
}

func TestRetrieve_CacheKeyedByParameters(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, _ := setupIndexed(t, emb)
	r := New(mgr, emb, nil)

	_, err := r.Retrieve(context.Background(), "Alpha", 10, 0)
	require.NoError(t, err)

	// Different k and minScore are different cache entries
	_, err = r.Retrieve(context.Background(), "Alpha", 1, 0)
	require.NoError(t, err)
	_, err = r.Retrieve(context.Background(), "Alpha", 10, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 3, emb.queryCount())
}

func TestRetrieve_GenerationSwapInvalidatesCache(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, dir := setupIndexed(t, emb)
	r := New(mgr, emb, nil)

	first, err := r.Retrieve(context.Background(), "Alpha", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, emb.queryCount())

	// A rebuild with new content produces a new generation; the cached
	// entry is keyed to the old one and cannot serve this query
	writeCorpusFile(t, dir, "gamma.go", `package corpus

func GammaHandler() string {
	return "Gamma"
}
`)
	_, err = mgr.Rebuild(context.Background(), dir)
	require.NoError(t, err)

	second, err := r.Retrieve(context.Background(), "Alpha", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, emb.queryCount())
	assert.NotEqual(t, first.GenerationID, second.GenerationID)
	assert.Len(t, second.Results, 4)
}

func TestRetrieve_CacheExpiry(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, _ := setupIndexed(t, emb)
	r := New(mgr, emb, &Config{CacheTTL: 10 * time.Millisecond})

	_, err := r.Retrieve(context.Background(), "Alpha", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, emb.queryCount())

	time.Sleep(30 * time.Millisecond)

	_, err = r.Retrieve(context.Background(), "Alpha", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, emb.queryCount(), "expired entry must be re-fetched")
}

func TestRetrieve_EmptyResultsAreNotCached(t *testing.T) {
	emb := &axisEmbedder{}
	mgr, _ := setupIndexed(t, emb)
	r := New(mgr, emb, nil)

	_, err := r.Retrieve(context.Background(), "Gamma", 10, 0.9)
	require.NoError(t, err)
	_, err = r.Retrieve(context.Background(), "Gamma", 10, 0.9)
	require.NoError(t, err)

	assert.Equal(t, 2, emb.queryCount())
}
