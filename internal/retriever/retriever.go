package retriever

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/raglab/codeassist-mcp/internal/embedder"
	"github.com/raglab/codeassist-mcp/internal/indexer"
	"github.com/raglab/codeassist-mcp/pkg/types"
)

// Retrieval limits and cache defaults
const (
	DefaultK         = 10
	MaxK             = 100
	DefaultCacheSize = 1000
	DefaultCacheTTL  = 1 * time.Hour
)

// cacheEntry represents a cached retrieval result with expiration time
type cacheEntry struct {
	result    *types.RetrievalResult
	expiresAt time.Time
}

// Retriever answers semantic queries against the active index generation
type Retriever struct {
	index    *indexer.Manager
	embedder embedder.Embedder

	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
	ttl     time.Duration
}

// Config contains configuration for the retriever
type Config struct {
	CacheSize int           // Max cached queries (default: DefaultCacheSize)
	CacheTTL  time.Duration // Cache entry lifetime (default: DefaultCacheTTL)
}

// New creates a new Retriever instance
func New(index *indexer.Manager, embed embedder.Embedder, config *Config) *Retriever {
	size := DefaultCacheSize
	ttl := DefaultCacheTTL
	if config != nil {
		if config.CacheSize > 0 {
			size = config.CacheSize
		}
		if config.CacheTTL > 0 {
			ttl = config.CacheTTL
		}
	}

	cache, err := lru.New[[32]byte, *cacheEntry](size)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Retriever{
		index:    index,
		embedder: embed,
		cache:    cache,
		ttl:      ttl,
	}
}

// Retrieve embeds the query, scans the active generation, drops hits below
// minScore, and truncates to k. An empty result is a normal outcome, not an
// error. Embedding or scan failures are reported as
// types.ErrRetrievalUnavailable so callers can degrade instead of failing.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, minScore float64) (*types.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if k <= 0 {
		k = DefaultK
	}
	if k > MaxK {
		k = MaxK
	}

	// One retrieval reads exactly one generation: the snapshot reference is
	// held for the whole query, so a concurrent swap is never observed
	// mid-scan
	snap := r.index.Active()
	if snap == nil {
		return nil, types.ErrNotIndexed
	}
	gen := snap.Generation()

	key := cacheKey(query, k, minScore, gen.ID())
	if cached := r.checkCache(key); cached != nil {
		return cached, nil
	}

	emb, err := r.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		return nil, fmt.Errorf("%w: query embedding failed: %v", types.ErrRetrievalUnavailable, err)
	}

	hits, err := gen.Query(emb.Vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrRetrievalUnavailable, err)
	}

	result := &types.RetrievalResult{
		Query:        query,
		GenerationID: gen.ID(),
	}
	for _, hit := range hits {
		if hit.Score < minScore {
			// Hits are score-descending; everything after is below too
			break
		}
		sn, ok := snap.Snippet(hit.SnippetID)
		if !ok {
			continue
		}
		result.Results = append(result.Results, types.RetrievedSnippet{
			Rank:    len(result.Results) + 1,
			Score:   hit.Score,
			Snippet: sn,
		})
	}

	if !result.Empty() {
		r.storeInCache(key, result)
	}

	return result, nil
}

// checkCache looks up a cached result, returning a deep copy or nil on miss
func (r *Retriever) checkCache(key [32]byte) *types.RetrievalResult {
	now := time.Now()

	r.cacheMu.RLock()
	entry, found := r.cache.Get(key)

	if !found {
		r.cacheMu.RUnlock()
		return nil
	}

	// Check expiration while holding the read lock to avoid a race with
	// a concurrent store
	if now.After(entry.expiresAt) {
		r.cacheMu.RUnlock()

		r.cacheMu.Lock()
		r.cache.Remove(key)
		r.cacheMu.Unlock()
		return nil
	}

	// Copy out while still holding the read lock so the entry cannot be
	// modified during the copy
	result := copyResult(entry.result)
	r.cacheMu.RUnlock()

	return result
}

// storeInCache saves a retrieval result under the query key
func (r *Retriever) storeInCache(key [32]byte, result *types.RetrievalResult) {
	entry := &cacheEntry{
		result:    copyResult(result),
		expiresAt: time.Now().Add(r.ttl),
	}

	r.cacheMu.Lock()
	r.cache.Add(key, entry)
	r.cacheMu.Unlock()
}

// copyResult creates a deep copy of a RetrievalResult.
// Snippet holds only value fields (strings and fixed-size arrays), so copying
// the results slice copies everything the caller can reach.
func copyResult(src *types.RetrievalResult) *types.RetrievalResult {
	dst := &types.RetrievalResult{
		Query:        src.Query,
		GenerationID: src.GenerationID,
		Results:      make([]types.RetrievedSnippet, len(src.Results)),
	}
	copy(dst.Results, src.Results)
	return dst
}

// cacheKey computes the cache key for one retrieval. The generation id is
// part of the key, so entries from a replaced generation can never serve a
// query against the new one; they simply age out of the LRU.
func cacheKey(query string, k int, minScore float64, generationID string) [32]byte {
	var data strings.Builder
	data.WriteString(query)
	data.WriteString("|")
	data.WriteString(strconv.Itoa(k))
	data.WriteString("|")
	data.WriteString(strconv.FormatFloat(minScore, 'f', 4, 64))
	data.WriteString("|")
	data.WriteString(generationID)

	return sha256.Sum256([]byte(data.String()))
}
