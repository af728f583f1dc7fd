package types

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
)

// SnippetKind represents the kind of extracted code unit
type SnippetKind string

const (
	SnippetFunction SnippetKind = "function"
	SnippetMethod   SnippetKind = "method"
	SnippetBlock    SnippetKind = "module_block"
)

// Language identifies the source language a snippet was extracted from
type Language string

const (
	LangGo      Language = "go"
	LangPython  Language = "python"
	LangUnknown Language = ""
)

// Snippet represents a retrievable unit of source code.
// Snippets are immutable once created; when a source file changes, its old
// snippets are deleted and new snippets are inserted with fresh IDs.
type Snippet struct {
	// Identification
	ID string // Derived from (FilePath, StartLine, ContentHash); unique within a generation

	// Provenance
	FilePath string // Relative to the indexed root
	Name     string // Function or method name; empty for module-level blocks
	Kind     SnippetKind
	Language Language

	// Location
	StartLine int
	EndLine   int

	// Content
	Content     string
	ContentHash [32]byte // SHA-256 of Content, used for change detection
}

// ComputeContentHash computes the SHA-256 hash of the snippet content
func (s *Snippet) ComputeContentHash() {
	s.ContentHash = sha256.Sum256([]byte(s.Content))
}

// ComputeID derives the stable snippet identifier from file path, start line,
// and content hash. Identical input text at the same location always yields
// the same ID.
func (s *Snippet) ComputeID() {
	h := sha256.New()
	h.Write([]byte(s.FilePath))
	h.Write([]byte{0})
	var line [8]byte
	binary.LittleEndian.PutUint64(line[:], uint64(s.StartLine))
	h.Write(line[:])
	h.Write(s.ContentHash[:])
	s.ID = hex.EncodeToString(h.Sum(nil)[:16])
}

// ValidateKind checks if the snippet kind is valid
func (s *Snippet) ValidateKind() error {
	switch s.Kind {
	case SnippetFunction, SnippetMethod, SnippetBlock:
		return nil
	default:
		return errors.New("invalid snippet kind")
	}
}

// Validate performs comprehensive validation of the snippet
func (s *Snippet) Validate() error {
	if s.ID == "" {
		return errors.New("snippet ID must be computed")
	}

	if s.FilePath == "" {
		return errors.New("file path is required")
	}

	if s.Content == "" {
		return errors.New("snippet content cannot be empty")
	}

	if err := s.ValidateKind(); err != nil {
		return err
	}

	// Methods must be named; module-level blocks may not be
	if s.Kind != SnippetBlock && s.Name == "" {
		return errors.New("function and method snippets require a name")
	}

	if s.StartLine <= 0 || s.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}

	if s.StartLine > s.EndLine {
		return errors.New("start line must be before or equal to end line")
	}

	var zeroHash [32]byte
	if s.ContentHash == zeroHash {
		return errors.New("content hash must be computed")
	}

	return nil
}

// TokenEstimate estimates the number of model tokens in the snippet content.
// Uses a simple heuristic: characters / 4.
func (s *Snippet) TokenEstimate() int {
	return len(s.Content) / 4
}
