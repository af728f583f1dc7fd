// Package storage provides SQLite-based persistence for index generations.
//
// The storage layer manages:
//   - Generation lifecycle rows (building, active, retired)
//   - The per-generation file manifest (path and content hash)
//   - Extracted snippets and their embedding vectors
//   - Key/value metadata (root path, embedding provider, dimension)
//
// # Database Schema
//
// Tables:
//   - meta: Key/value metadata about the persisted index
//   - generations: One row per index generation; at most one is 'active'
//   - manifest_files: Indexed files and SHA-256 hashes per generation
//   - snippets: Extracted code units per generation
//   - vectors: Embedding vectors (float32 little-endian) per snippet
//
// # Generation Lifecycle
//
// A rebuild persists a complete new generation, then activates it:
//
//	store, err := storage.NewSQLiteStore("~/.codeassist/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	gen := &storage.PersistedGeneration{
//	    Record:    storage.GenerationRecord{UUID: uuid.NewString(), FileCount: 12, SnippetCount: 87},
//	    Manifest:  manifest,
//	    Snippets:  snippets,
//	    Vectors:   vectors,
//	    Dimension: 768,
//	}
//	if err := store.SaveGeneration(ctx, gen); err != nil {
//	    return err
//	}
//	if err := store.ActivateGeneration(ctx, gen.Record.UUID); err != nil {
//	    return err
//	}
//
// SaveGeneration writes every row in one transaction with the generation in
// the 'building' state, so a crash mid-save never leaves a partially visible
// generation. ActivateGeneration retires the old active generation, promotes
// the new one, and purges retired rows, also in one transaction.
//
// # Loading on Startup
//
//	persisted, err := store.LoadActiveGeneration(ctx)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // No index yet; first index_codebase call builds one
//	}
//	if errors.Is(err, types.ErrIndexCorruption) {
//	    // Stored rows cannot be decoded; trigger a full reindex
//	}
//
// Corruption covers undecodable vector blobs, dimension mismatches between
// rows, truncated content hashes, and snippet/vector count disagreement.
// Similarity search runs in memory (internal/vector); this package only
// stores and restores the rows.
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO Build (cgo_sqlite tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "cgo_sqlite"
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build
package storage
