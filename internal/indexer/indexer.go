package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/raglab/codeassist-mcp/internal/embedder"
	"github.com/raglab/codeassist-mcp/internal/extractor"
	"github.com/raglab/codeassist-mcp/internal/storage"
	"github.com/raglab/codeassist-mcp/internal/vector"
	"github.com/raglab/codeassist-mcp/pkg/types"
)

// ErrRebuildInProgress is returned when a rebuild is requested while another
// rebuild holds the writer lock.
var ErrRebuildInProgress = errors.New("rebuild already in progress")

// DefaultEmbedBatch is the number of snippets sent per embedding request
const DefaultEmbedBatch = 32

// Manager coordinates the indexing pipeline: extract -> embed -> seal ->
// persist -> swap. It owns the active generation pointer; everything else
// reads it through Active().
type Manager struct {
	extractor *extractor.Extractor
	embedder  embedder.Embedder
	store     storage.Store

	active atomic.Pointer[Snapshot]

	// Single-writer lock: only one rebuild runs at a time
	lock IndexLock

	workers   int
	batchSize int
}

// Config contains configuration for the index manager
type Config struct {
	Workers   int // Number of concurrent extraction workers (default: runtime.NumCPU())
	BatchSize int // Snippets per embedding request (default: DefaultEmbedBatch)
}

// New creates a new index Manager
func New(store storage.Store, embed embedder.Embedder, config *Config) *Manager {
	workers := runtime.NumCPU()
	batchSize := DefaultEmbedBatch
	if config != nil {
		if config.Workers > 0 {
			workers = config.Workers
		}
		if config.BatchSize > 0 {
			batchSize = config.BatchSize
		}
	}
	if batchSize > embedder.MaxBatchSize {
		batchSize = embedder.MaxBatchSize
	}
	return &Manager{
		extractor: extractor.New(),
		embedder:  embed,
		store:     store,
		workers:   workers,
		batchSize: batchSize,
	}
}

// Active returns the current snapshot, or nil when nothing is indexed
func (m *Manager) Active() *Snapshot {
	return m.active.Load()
}

// Stats summarizes the active generation
func (m *Manager) Stats() types.IndexStats {
	snap := m.active.Load()
	if snap == nil {
		return types.IndexStats{}
	}
	return snap.Stats()
}

// Root returns the indexed root path, or empty when nothing is indexed
func (m *Manager) Root() string {
	if snap := m.active.Load(); snap != nil {
		return snap.Root()
	}
	return ""
}

// NeedsRebuild reports whether a file is new or changed relative to the
// active manifest
func (m *Manager) NeedsRebuild(relPath string, contentHash [32]byte) bool {
	snap := m.active.Load()
	if snap == nil {
		return true
	}
	return needsRebuildIn(snap, relPath, contentHash)
}

func needsRebuildIn(snap *Snapshot, relPath string, contentHash [32]byte) bool {
	prior, ok := snap.ManifestHash(relPath)
	return !ok || prior != contentHash
}

// Load restores the active generation from the store. A missing index is not
// an error: the manager simply starts unindexed. Corrupt or stale persisted
// state triggers an automatic full reindex when an indexed root is recorded.
func (m *Manager) Load(ctx context.Context) error {
	persisted, err := m.store.LoadActiveGeneration(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if errors.Is(err, types.ErrIndexCorruption) {
		log.Printf("indexer: persisted index unreadable, attempting reindex: %v", err)
		return m.recoverPersisted(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to load persisted index: %w", err)
	}

	// Vectors embedded by a different provider cannot serve queries
	if persisted.Dimension != 0 && persisted.Dimension != m.embedder.Dimension() {
		log.Printf("indexer: persisted vectors have dimension %d but provider %s produces %d, reindexing",
			persisted.Dimension, m.embedder.Provider(), m.embedder.Dimension())
		return m.recoverPersisted(ctx)
	}

	root, err := m.store.Meta(ctx, storage.MetaRootPath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to read indexed root: %w", err)
	}

	dimension := persisted.Dimension
	if dimension == 0 {
		dimension = m.embedder.Dimension()
	}
	builder := vector.NewBuilder(dimension)
	for i := range persisted.Snippets {
		sn := &persisted.Snippets[i]
		if err := builder.Insert(sn.ID, sn.FilePath, persisted.Vectors[sn.ID]); err != nil {
			log.Printf("indexer: persisted vector for snippet %s rejected (%v), reindexing", sn.ID, err)
			return m.recoverPersisted(ctx)
		}
	}
	gen := builder.Seal(persisted.Record.UUID)

	m.active.Store(newSnapshot(root, gen, persisted.Snippets, persisted.Manifest))
	log.Printf("indexer: restored generation %s (%d files, %d snippets)",
		gen.ID(), len(persisted.Manifest), gen.Len())
	return nil
}

// recoverPersisted reindexes from scratch when the persisted state is
// unusable. Startup never fails over a bad index: with no usable recorded
// root the manager starts unindexed instead.
func (m *Manager) recoverPersisted(ctx context.Context) error {
	root, err := m.store.Meta(ctx, storage.MetaRootPath)
	if err != nil || root == "" {
		log.Printf("indexer: no indexed root recorded, starting unindexed")
		return nil
	}
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		log.Printf("indexer: recorded root %s is not usable, starting unindexed", root)
		return nil
	}
	if _, err := m.FullReindex(ctx, root); err != nil {
		log.Printf("indexer: automatic reindex of %s failed: %v, starting unindexed", root, err)
	}
	return nil
}

// Rebuild incrementally reindexes the root: only files whose content hash
// differs from the active manifest are re-extracted, and snippets whose
// content is unchanged reuse their prior vectors instead of re-embedding.
func (m *Manager) Rebuild(ctx context.Context, root string) (*types.RebuildReport, error) {
	return m.rebuild(ctx, root, true)
}

// FullReindex discards the manifest and prior vectors and rebuilds everything
func (m *Manager) FullReindex(ctx context.Context, root string) (*types.RebuildReport, error) {
	return m.rebuild(ctx, root, false)
}

// fileResult carries one file's outcome out of the extraction pool
type fileResult struct {
	relPath   string
	hash      [32]byte
	unchanged bool
	snippets  []types.Snippet
	warnings  []types.ExtractionError
	err       error
}

// filePlan pairs a file with the snippets destined for the new generation
type filePlan struct {
	relPath  string
	hash     [32]byte
	snippets []types.Snippet
}

func (m *Manager) rebuild(ctx context.Context, root string, incremental bool) (*types.RebuildReport, error) {
	if !m.lock.TryAcquire() {
		return nil, ErrRebuildInProgress
	}
	defer m.lock.Release()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", absRoot)
	}

	startTime := time.Now()
	report := &types.RebuildReport{}

	prior := m.active.Load()
	if prior != nil && prior.Root() != absRoot {
		// Different codebase: the old manifest does not apply
		incremental = false
	}

	files, err := m.discoverFiles(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	results, err := m.extractFiles(ctx, absRoot, files, prior, incremental)
	if err != nil {
		return nil, err
	}

	// Vector reuse sources. Reuse requires matching dimensions; a full
	// reindex deliberately skips reuse so stale vectors cannot survive it.
	var priorGen *vector.Generation
	var priorByHash map[[32]byte][]float32
	if incremental && prior != nil && prior.Generation().Dimension() == m.embedder.Dimension() {
		priorGen = prior.Generation()
		priorByHash = prior.vectorsByContentHash()
	}

	// Pass 1: collect kept snippets, resolving vectors from the prior
	// generation where the content is unchanged
	vectors := make(map[string][]float32)
	var toEmbed []types.Snippet
	plans := make([]filePlan, 0, len(files))

	for i := range results {
		res := &results[i]
		if res.err != nil {
			report.FilesFailed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", res.relPath, res.err))
			continue
		}
		for j := range res.warnings {
			report.Errors = append(report.Errors, res.warnings[j].Error())
		}

		var snippets []types.Snippet
		if res.unchanged {
			snippets = prior.FileSnippets(res.relPath)
			report.FilesSkipped++
		} else {
			snippets = res.snippets
			report.FilesIndexed++
		}

		for _, sn := range snippets {
			if priorGen != nil {
				if vec, ok := priorByHash[sn.ContentHash]; ok {
					vectors[sn.ID] = vec
					continue
				}
			}
			toEmbed = append(toEmbed, sn)
		}
		plans = append(plans, filePlan{relPath: res.relPath, hash: res.hash, snippets: snippets})
	}

	// Pass 2: embed what could not be reused
	excluded, err := m.embedSnippets(ctx, toEmbed, vectors, report)
	if err != nil {
		return nil, err
	}

	// Pass 3: assemble the generation. Files with excluded snippets are left
	// out of the manifest so the next rebuild retries them; their snippets
	// that did embed stay in the generation and their vectors carry over.
	failedEmbedFiles := make(map[string]bool)
	for _, sn := range toEmbed {
		if excluded[sn.ID] {
			failedEmbedFiles[sn.FilePath] = true
		}
	}

	builder := vector.NewBuilder(m.embedder.Dimension())
	kept := make([]types.Snippet, 0, len(vectors))
	entries := make([]storage.ManifestEntry, 0, len(plans))
	for _, plan := range plans {
		countKept := 0
		for _, sn := range plan.snippets {
			vec, ok := vectors[sn.ID]
			if !ok {
				continue
			}
			if err := builder.Insert(sn.ID, sn.FilePath, vec); err != nil {
				return nil, fmt.Errorf("failed to index snippet %s: %w", sn.ID, err)
			}
			kept = append(kept, sn)
			countKept++
		}
		if failedEmbedFiles[plan.relPath] {
			continue
		}
		entries = append(entries, storage.ManifestEntry{
			FilePath:     plan.relPath,
			ContentHash:  plan.hash,
			SnippetCount: countKept,
		})
	}

	genID := uuid.NewString()
	gen := builder.Seal(genID)

	// Persist before swapping: a failure here leaves the old generation
	// active and servable
	persisted := &storage.PersistedGeneration{
		Record: storage.GenerationRecord{
			UUID:         genID,
			FileCount:    len(entries),
			SnippetCount: gen.Len(),
		},
		Manifest:  entries,
		Snippets:  kept,
		Vectors:   make(map[string][]float32, len(kept)),
		Dimension: gen.Dimension(),
	}
	for i := range kept {
		vec, _ := gen.Vector(kept[i].ID)
		persisted.Vectors[kept[i].ID] = vec
	}

	if err := m.store.SaveGeneration(ctx, persisted); err != nil {
		return nil, fmt.Errorf("failed to persist generation: %w", err)
	}
	if err := m.store.ActivateGeneration(ctx, genID); err != nil {
		_ = m.store.DeleteGeneration(ctx, genID)
		return nil, fmt.Errorf("failed to activate generation: %w", err)
	}
	m.recordMeta(ctx, absRoot)

	m.active.Store(newSnapshot(absRoot, gen, kept, entries))

	report.SnippetsIndexed = gen.Len()
	report.GenerationID = genID
	report.Duration = time.Since(startTime)
	log.Printf("indexer: generation %s active: %d indexed, %d skipped, %d failed, %d snippets (%d excluded) in %s",
		genID, report.FilesIndexed, report.FilesSkipped, report.FilesFailed,
		report.SnippetsIndexed, report.SnippetsExcluded, report.Duration.Round(time.Millisecond))
	return report, nil
}

// extractFiles runs the extraction pool: each worker reads one file, hashes
// it, and extracts snippets unless the manifest marks it unchanged
func (m *Manager) extractFiles(ctx context.Context, root string, files []string, prior *Snapshot, incremental bool) ([]fileResult, error) {
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	semaphore := make(chan struct{}, m.workers)

	for i, relPath := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			res := &results[i]
			res.relPath = relPath

			content, err := os.ReadFile(filepath.Join(root, relPath))
			if err != nil {
				// Per-file failure never aborts the corpus
				res.err = err
				return nil
			}
			res.hash = sha256.Sum256(content)

			if incremental && prior != nil && !needsRebuildIn(prior, relPath, res.hash) {
				res.unchanged = true
				return nil
			}

			extraction := m.extractor.Extract(relPath, content)
			res.snippets = extraction.Snippets
			res.warnings = extraction.Errors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// embedSnippets embeds the pending snippets in batches, filling the vectors
// map. Providers retry transient failures internally; an error here is final
// for the batch, so its snippets are excluded and the rebuild continues.
func (m *Manager) embedSnippets(ctx context.Context, toEmbed []types.Snippet, vectors map[string][]float32, report *types.RebuildReport) (map[string]bool, error) {
	excluded := make(map[string]bool)

	for start := 0; start < len(toEmbed); start += m.batchSize {
		end := start + m.batchSize
		if end > len(toEmbed) {
			end = len(toEmbed)
		}
		batch := toEmbed[start:end]

		texts := make([]string, len(batch))
		for j := range batch {
			texts[j] = batch[j].Content
		}

		resp, err := m.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			ids := make([]string, len(batch))
			for j := range batch {
				ids[j] = batch[j].ID
			}
			batchErr := &types.EmbeddingBatchError{
				Provider:   m.embedder.Provider(),
				SnippetIDs: ids,
				Err:        err,
			}
			log.Printf("indexer: %v", batchErr)
			for _, id := range ids {
				excluded[id] = true
			}
			report.SnippetsExcluded += len(ids)
			report.Errors = append(report.Errors, batchErr.Error())
			continue
		}

		for j, emb := range resp.Embeddings {
			vectors[batch[j].ID] = emb.Vector
		}
	}
	return excluded, nil
}

// discoverFiles finds all supported source files under the root, returning
// paths relative to it
func (m *Manager) discoverFiles(root string) ([]string, error) {
	var files []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path == root {
				return nil
			}
			name := info.Name()
			if strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules" || name == "__pycache__" {
				return filepath.SkipDir
			}
			return nil
		}

		if extractor.DetectLanguage(path) == types.LangUnknown {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, relPath)
		return nil
	})

	return files, err
}

// recordMeta stores the indexed root and embedding identity for the next
// startup. Failures here weaken corruption recovery but never fail a rebuild
// whose generation is already active.
func (m *Manager) recordMeta(ctx context.Context, root string) {
	meta := map[string]string{
		storage.MetaRootPath:          root,
		storage.MetaEmbeddingProvider: m.embedder.Provider(),
		storage.MetaEmbeddingModel:    m.embedder.Model(),
		storage.MetaEmbeddingDim:      strconv.Itoa(m.embedder.Dimension()),
	}
	for key, value := range meta {
		if err := m.store.SetMeta(ctx, key, value); err != nil {
			log.Printf("indexer: failed to record %s: %v", key, err)
		}
	}
}
