package storage

import (
	"context"
	"time"

	"github.com/raglab/codeassist-mcp/pkg/types"
)

// Store defines the interface for persisting generation-versioned indexes
type Store interface {
	// SaveGeneration persists a complete generation in a single transaction.
	// The generation row is inserted in the 'building' state; callers promote
	// it with ActivateGeneration once the in-memory swap is ready.
	SaveGeneration(ctx context.Context, gen *PersistedGeneration) error

	// ActivateGeneration promotes the named generation to 'active', retires
	// the previously active generation, and purges retired rows. Runs in a
	// single transaction so readers never observe zero or two active rows.
	ActivateGeneration(ctx context.Context, uuid string) error

	// LoadActiveGeneration reads the active generation with its manifest,
	// snippets, and vectors. Returns ErrNotFound when no generation is
	// active, and types.ErrIndexCorruption when the stored rows cannot be
	// decoded into a usable index.
	LoadActiveGeneration(ctx context.Context) (*PersistedGeneration, error)

	// DeleteGeneration removes a generation and all dependent rows. Used to
	// clean up 'building' generations whose rebuild failed after persisting.
	DeleteGeneration(ctx context.Context, uuid string) error

	// Meta reads a metadata value; returns ErrNotFound for missing keys.
	Meta(ctx context.Context, key string) (string, error)

	// SetMeta writes a metadata value, replacing any existing one.
	SetMeta(ctx context.Context, key, value string) error

	// Close releases the underlying database handle.
	Close() error
}

// Metadata keys persisted alongside generations.
const (
	MetaRootPath          = "root_path"
	MetaEmbeddingProvider = "embedding_provider"
	MetaEmbeddingModel    = "embedding_model"
	MetaEmbeddingDim      = "embedding_dimension"
)

// GenerationState is the lifecycle state of a persisted generation
type GenerationState string

const (
	StateBuilding GenerationState = "building"
	StateActive   GenerationState = "active"
	StateRetired  GenerationState = "retired"
)

// GenerationRecord describes one persisted index generation
type GenerationRecord struct {
	ID           int64
	UUID         string
	State        GenerationState
	CreatedAt    time.Time
	ActivatedAt  time.Time
	FileCount    int
	SnippetCount int
}

// ManifestEntry records one indexed file's identity within a generation
type ManifestEntry struct {
	FilePath     string
	ContentHash  [32]byte
	SnippetCount int
}

// PersistedGeneration is the full on-disk image of one generation: the
// record, the file manifest, every snippet, and every embedding vector
// keyed by snippet ID.
type PersistedGeneration struct {
	Record    GenerationRecord
	Manifest  []ManifestEntry
	Snippets  []types.Snippet
	Vectors   map[string][]float32
	Dimension int
}
