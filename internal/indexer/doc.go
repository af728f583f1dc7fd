// Package indexer coordinates the end-to-end indexing pipeline for a
// codebase and owns the active index generation.
//
// The manager orchestrates extraction, embedding, persistence, and the
// atomic generation swap that makes a rebuild visible to readers.
//
// # Basic Usage
//
//	mgr := indexer.New(store, embedder, nil)
//
//	if err := mgr.Load(ctx); err != nil {
//	    return err // persisted index restored (or cleanly absent)
//	}
//
//	report, err := mgr.Rebuild(ctx, "/path/to/project")
//	fmt.Printf("Indexed %d files (%d snippets) in %v\n",
//	    report.FilesIndexed, report.SnippetsIndexed, report.Duration)
//
// # Rebuild Pipeline
//
// A rebuild executes five stages:
//
//  1. Discovery: walk the root for supported source files
//  2. Extraction: hash every file; re-extract only new or changed ones
//     (parallel, errgroup + semaphore)
//  3. Embedding: batch-embed snippets whose content hash has no prior
//     vector; a failed batch is excluded, never fatal
//  4. Persistence: save the generation in one transaction, then activate it
//  5. Swap: publish the new snapshot through an atomic pointer
//
// # Incremental Indexing
//
// Rebuild compares SHA-256 content hashes against the active manifest and
// skips unchanged files entirely. Snippets whose content survives a file
// edit reuse their prior vectors by content hash, so re-indexing cost is
// proportional to changed content, not corpus size:
//
//	// First rebuild: processes all files
//	report, _ := mgr.Rebuild(ctx, root)
//	// Files: 247 indexed, 0 skipped
//
//	// Subsequent rebuild: only changed files
//	report, _ = mgr.Rebuild(ctx, root)
//	// Files: 3 indexed, 244 skipped
//
// FullReindex discards the manifest and all prior vectors and rebuilds
// everything, which is also the automatic response to corrupt or
// provider-stale persisted state at Load time.
//
// # Generation Swap
//
// Readers obtain the current Snapshot from Active() and keep using it for
// the whole query; a concurrent rebuild publishes a complete replacement and
// never mutates a published snapshot. Failures anywhere in a rebuild leave
// the previous generation active and servable. Only one rebuild runs at a
// time; concurrent attempts fail fast with ErrRebuildInProgress.
//
// # Error Handling
//
// Failures local to one file (unreadable, unparseable) are recorded in the
// report and never abort the corpus. An embedding batch that fails after the
// provider's retry is excluded: its snippets are dropped from the new
// generation and the owning files are left out of the manifest so the next
// rebuild retries them.
package indexer
