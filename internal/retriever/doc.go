// Package retriever answers semantic queries against the active index
// generation.
//
// A retrieval embeds the query text, scans the generation's vectors by
// cosine similarity, drops hits below the score floor, and returns up to k
// ranked snippets.
//
// # Basic Usage
//
//	r := retriever.New(indexManager, embedder, nil)
//
//	result, err := r.Retrieve(ctx, "parse configuration file", 5, 0.3)
//	if err != nil {
//	    return err
//	}
//
//	for _, hit := range result.Results {
//	    fmt.Printf("[%d] %.2f %s:%d %s\n",
//	        hit.Rank, hit.Score,
//	        hit.Snippet.FilePath, hit.Snippet.StartLine, hit.Snippet.Name)
//	}
//
// # Scoring
//
// Scores are cosine similarity in [-1, 1]; vectors are L2-normalized when
// indexed, so the scan is a pure inner product. Results are ordered by
// descending score with ties broken by snippet id, and ranks are 1-based
// after the minScore filter is applied. An empty result set is a normal
// outcome:
//
//	result, err := r.Retrieve(ctx, "quantum chromodynamics", 5, 0.7)
//	// err == nil, result.Empty() == true
//
// # Snapshot Consistency
//
// One retrieval reads exactly one generation. The active snapshot reference
// is captured once and used for the embedding lookup, the vector scan, and
// the snippet payloads, so a rebuild finishing mid-query is never observed.
//
// # Caching
//
// Results are cached in an LRU keyed by (query, k, minScore, generation id)
// with a TTL. Because the generation id is part of the key, a generation
// swap implicitly invalidates every cached entry; stale entries age out
// rather than being purged. Cached results are deep-copied on the way in and
// out, so callers may mutate what they receive.
//
// # Errors
//
//   - types.ErrNotIndexed: no codebase has been indexed yet
//   - types.ErrRetrievalUnavailable: query embedding or the scan failed;
//     callers treat retrieval as best-effort and proceed without context
package retriever
