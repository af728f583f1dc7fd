// Package vector implements the in-memory similarity index as a pair of
// types: a mutable Builder used only while a generation is under
// construction, and an immutable Generation that serves queries.
//
// Similarity is cosine, computed as an inner product over vectors that were
// L2-normalized at insert time. The scan is exact brute force, which is
// preferred for correctness at the corpus sizes this server targets (up to
// roughly 100k snippets).
//
// Concurrency contract: readers share a sealed Generation freely; writers
// only ever touch a Builder. Swapping the active generation is the index
// manager's job, not this package's.
package vector
