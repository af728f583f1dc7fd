package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/raglab/codeassist-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Wait instead of failing when the watcher and a reload race on the file
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// querier returns the DB querier
func (s *SQLiteStore) querier() querier {
	return s.db
}

// Generation persistence

// SaveGeneration persists a generation atomically in the 'building' state
func (s *SQLiteStore) SaveGeneration(ctx context.Context, gen *PersistedGeneration) error {
	if gen.Record.UUID == "" {
		return fmt.Errorf("generation uuid is required")
	}
	if len(gen.Snippets) > 0 && gen.Dimension <= 0 {
		return fmt.Errorf("generation with snippets requires a positive dimension")
	}
	for i := range gen.Snippets {
		vec, ok := gen.Vectors[gen.Snippets[i].ID]
		if !ok {
			return fmt.Errorf("snippet %s has no vector", gen.Snippets[i].ID)
		}
		if len(vec) != gen.Dimension {
			return fmt.Errorf("snippet %s vector has dimension %d, want %d",
				gen.Snippets[i].ID, len(vec), gen.Dimension)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	genID, err := s.insertGenerationWithQuerier(ctx, tx, &gen.Record)
	if err != nil {
		return err
	}
	if err := s.insertManifestWithQuerier(ctx, tx, genID, gen.Manifest); err != nil {
		return err
	}
	if err := s.insertSnippetsWithQuerier(ctx, tx, genID, gen.Snippets); err != nil {
		return err
	}
	if err := s.insertVectorsWithQuerier(ctx, tx, genID, gen.Snippets, gen.Vectors, gen.Dimension); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit generation %s: %w", gen.Record.UUID, err)
	}
	gen.Record.ID = genID
	gen.Record.State = StateBuilding
	return nil
}

// insertGenerationWithQuerier inserts the generation row in 'building' state
func (s *SQLiteStore) insertGenerationWithQuerier(ctx context.Context, q querier, record *GenerationRecord) (int64, error) {
	query := `
		INSERT INTO generations (uuid, state, created_at, file_count, snippet_count)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		record.UUID, string(StateBuilding), now, record.FileCount, record.SnippetCount)
	if err != nil {
		return 0, fmt.Errorf("failed to insert generation %s: %w", record.UUID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	record.CreatedAt = now
	return id, nil
}

func (s *SQLiteStore) insertManifestWithQuerier(ctx context.Context, q querier, genID int64, entries []ManifestEntry) error {
	query := `
		INSERT INTO manifest_files (generation_id, file_path, content_hash, snippet_count)
		VALUES (?, ?, ?, ?)
	`
	for i := range entries {
		_, err := q.ExecContext(ctx, query,
			genID, entries[i].FilePath, entries[i].ContentHash[:], entries[i].SnippetCount)
		if err != nil {
			return fmt.Errorf("failed to insert manifest entry %s: %w", entries[i].FilePath, err)
		}
	}
	return nil
}

func (s *SQLiteStore) insertSnippetsWithQuerier(ctx context.Context, q querier, genID int64, snippets []types.Snippet) error {
	query := `
		INSERT INTO snippets (generation_id, snippet_id, file_path, name, kind,
		                      language, start_line, end_line, content, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range snippets {
		sn := &snippets[i]
		_, err := q.ExecContext(ctx, query,
			genID, sn.ID, sn.FilePath, sn.Name, string(sn.Kind),
			string(sn.Language), sn.StartLine, sn.EndLine, sn.Content, sn.ContentHash[:])
		if err != nil {
			return fmt.Errorf("failed to insert snippet %s: %w", sn.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) insertVectorsWithQuerier(ctx context.Context, q querier, genID int64, snippets []types.Snippet, vectors map[string][]float32, dimension int) error {
	query := `
		INSERT INTO vectors (generation_id, snippet_id, dimension, embedding)
		VALUES (?, ?, ?, ?)
	`
	for i := range snippets {
		id := snippets[i].ID
		_, err := q.ExecContext(ctx, query, genID, id, dimension, serializeVector(vectors[id]))
		if err != nil {
			return fmt.Errorf("failed to insert vector for snippet %s: %w", id, err)
		}
	}
	return nil
}

// ActivateGeneration promotes a persisted generation to 'active'. The
// previous active generation is retired and retired rows are purged, all in
// one transaction: a crash mid-activation never leaves two active rows.
func (s *SQLiteStore) ActivateGeneration(ctx context.Context, uuid string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var genID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM generations WHERE uuid = ?", uuid).Scan(&genID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up generation %s: %w", uuid, err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE generations SET state = ? WHERE state = ?",
		string(StateRetired), string(StateActive)); err != nil {
		return fmt.Errorf("failed to retire active generation: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE generations SET state = ?, activated_at = ? WHERE id = ?",
		string(StateActive), time.Now(), genID); err != nil {
		return fmt.Errorf("failed to activate generation %s: %w", uuid, err)
	}

	// Cascading delete removes manifest, snippet, and vector rows
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM generations WHERE state = ?", string(StateRetired)); err != nil {
		return fmt.Errorf("failed to purge retired generations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activation of %s: %w", uuid, err)
	}
	return nil
}

// DeleteGeneration removes a generation and its dependent rows
func (s *SQLiteStore) DeleteGeneration(ctx context.Context, uuid string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM generations WHERE uuid = ?", uuid)
	if err != nil {
		return fmt.Errorf("failed to delete generation %s: %w", uuid, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadActiveGeneration reads the active generation and all its rows
func (s *SQLiteStore) LoadActiveGeneration(ctx context.Context) (*PersistedGeneration, error) {
	record, err := s.getGenerationByStateWithQuerier(ctx, s.querier(), StateActive)
	if err != nil {
		return nil, err
	}

	manifest, err := s.loadManifestWithQuerier(ctx, s.querier(), record.ID)
	if err != nil {
		return nil, err
	}

	snippets, err := s.loadSnippetsWithQuerier(ctx, s.querier(), record.ID)
	if err != nil {
		return nil, err
	}

	vectors, dimension, err := s.loadVectorsWithQuerier(ctx, s.querier(), record.ID)
	if err != nil {
		return nil, err
	}

	// Every snippet must have a vector and vice versa
	if len(vectors) != len(snippets) {
		return nil, fmt.Errorf("%w: generation %s has %d snippets but %d vectors",
			types.ErrIndexCorruption, record.UUID, len(snippets), len(vectors))
	}
	for i := range snippets {
		if _, ok := vectors[snippets[i].ID]; !ok {
			return nil, fmt.Errorf("%w: snippet %s has no stored vector",
				types.ErrIndexCorruption, snippets[i].ID)
		}
	}

	return &PersistedGeneration{
		Record:    *record,
		Manifest:  manifest,
		Snippets:  snippets,
		Vectors:   vectors,
		Dimension: dimension,
	}, nil
}

// getGenerationByStateWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getGenerationByStateWithQuerier(ctx context.Context, q querier, state GenerationState) (*GenerationRecord, error) {
	query := `
		SELECT id, uuid, state, created_at, activated_at, file_count, snippet_count
		FROM generations
		WHERE state = ?
	`
	var record GenerationRecord
	var stateStr string
	var activatedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, string(state)).Scan(
		&record.ID, &record.UUID, &stateStr, &record.CreatedAt,
		&activatedAt, &record.FileCount, &record.SnippetCount,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read generation: %w", err)
	}
	record.State = GenerationState(stateStr)
	if activatedAt.Valid {
		record.ActivatedAt = activatedAt.Time
	}
	return &record, nil
}

// GetGeneration returns the record for a generation by UUID
func (s *SQLiteStore) GetGeneration(ctx context.Context, uuid string) (*GenerationRecord, error) {
	query := `
		SELECT id, uuid, state, created_at, activated_at, file_count, snippet_count
		FROM generations
		WHERE uuid = ?
	`
	var record GenerationRecord
	var stateStr string
	var activatedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, uuid).Scan(
		&record.ID, &record.UUID, &stateStr, &record.CreatedAt,
		&activatedAt, &record.FileCount, &record.SnippetCount,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read generation %s: %w", uuid, err)
	}
	record.State = GenerationState(stateStr)
	if activatedAt.Valid {
		record.ActivatedAt = activatedAt.Time
	}
	return &record, nil
}

// loadManifestWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) loadManifestWithQuerier(ctx context.Context, q querier, genID int64) ([]ManifestEntry, error) {
	query := `
		SELECT file_path, content_hash, snippet_count
		FROM manifest_files
		WHERE generation_id = ?
		ORDER BY file_path
	`
	rows, err := q.QueryContext(ctx, query, genID)
	if err != nil {
		return nil, fmt.Errorf("failed to query manifest: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []ManifestEntry
	for rows.Next() {
		var entry ManifestEntry
		var hash []byte
		if err := rows.Scan(&entry.FilePath, &hash, &entry.SnippetCount); err != nil {
			return nil, fmt.Errorf("failed to scan manifest entry: %w", err)
		}
		if len(hash) != 32 {
			return nil, fmt.Errorf("%w: manifest hash for %s has %d bytes, want 32",
				types.ErrIndexCorruption, entry.FilePath, len(hash))
		}
		copy(entry.ContentHash[:], hash)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// loadSnippetsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) loadSnippetsWithQuerier(ctx context.Context, q querier, genID int64) ([]types.Snippet, error) {
	query := `
		SELECT snippet_id, file_path, name, kind, language,
		       start_line, end_line, content, content_hash
		FROM snippets
		WHERE generation_id = ?
		ORDER BY snippet_id
	`
	rows, err := q.QueryContext(ctx, query, genID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snippets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snippets []types.Snippet
	for rows.Next() {
		var sn types.Snippet
		var kind, language string
		var hash []byte
		if err := rows.Scan(&sn.ID, &sn.FilePath, &sn.Name, &kind, &language,
			&sn.StartLine, &sn.EndLine, &sn.Content, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan snippet: %w", err)
		}
		if len(hash) != 32 {
			return nil, fmt.Errorf("%w: content hash for snippet %s has %d bytes, want 32",
				types.ErrIndexCorruption, sn.ID, len(hash))
		}
		sn.Kind = types.SnippetKind(kind)
		sn.Language = types.Language(language)
		copy(sn.ContentHash[:], hash)
		snippets = append(snippets, sn)
	}
	return snippets, rows.Err()
}

// loadVectorsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) loadVectorsWithQuerier(ctx context.Context, q querier, genID int64) (map[string][]float32, int, error) {
	query := `
		SELECT snippet_id, dimension, embedding
		FROM vectors
		WHERE generation_id = ?
	`
	rows, err := q.QueryContext(ctx, query, genID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	vectors := make(map[string][]float32)
	dimension := 0
	for rows.Next() {
		var snippetID string
		var dim int
		var blob []byte
		if err := rows.Scan(&snippetID, &dim, &blob); err != nil {
			return nil, 0, fmt.Errorf("failed to scan vector: %w", err)
		}
		if dim <= 0 || len(blob) != dim*4 {
			return nil, 0, fmt.Errorf("%w: vector blob for snippet %s has %d bytes, want %d",
				types.ErrIndexCorruption, snippetID, len(blob), dim*4)
		}
		if dimension == 0 {
			dimension = dim
		} else if dim != dimension {
			return nil, 0, fmt.Errorf("%w: vector for snippet %s has dimension %d, generation uses %d",
				types.ErrIndexCorruption, snippetID, dim, dimension)
		}
		vectors[snippetID] = deserializeVector(blob)
	}
	return vectors, dimension, rows.Err()
}

// Metadata

// Meta reads a metadata value by key
func (s *SQLiteStore) Meta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read meta key %s: %w", key, err)
	}
	return value, nil
}

// SetMeta writes a metadata value, replacing any existing one
func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set meta key %s: %w", key, err)
	}
	return nil
}
