package indexer

import (
	"github.com/raglab/codeassist-mcp/internal/storage"
	"github.com/raglab/codeassist-mcp/internal/vector"
	"github.com/raglab/codeassist-mcp/pkg/types"
)

// Snapshot is an immutable view of one active index generation: the sealed
// vector index plus the snippets and file manifest behind it. Readers hold a
// snapshot for the duration of a query; the manager swaps the active snapshot
// wholesale and never mutates one in place.
type Snapshot struct {
	root         string
	generation   *vector.Generation
	snippets     map[string]types.Snippet
	fileSnippets map[string][]string
	manifest     map[string][32]byte
}

func newSnapshot(root string, gen *vector.Generation, snippets []types.Snippet, manifest []storage.ManifestEntry) *Snapshot {
	snap := &Snapshot{
		root:         root,
		generation:   gen,
		snippets:     make(map[string]types.Snippet, len(snippets)),
		fileSnippets: make(map[string][]string),
		manifest:     make(map[string][32]byte, len(manifest)),
	}
	for _, sn := range snippets {
		snap.snippets[sn.ID] = sn
		snap.fileSnippets[sn.FilePath] = append(snap.fileSnippets[sn.FilePath], sn.ID)
	}
	for _, entry := range manifest {
		snap.manifest[entry.FilePath] = entry.ContentHash
	}
	return snap
}

// Root returns the indexed root path
func (s *Snapshot) Root() string {
	return s.root
}

// Generation returns the sealed vector index
func (s *Snapshot) Generation() *vector.Generation {
	return s.generation
}

// Snippet looks up a snippet by ID
func (s *Snapshot) Snippet(id string) (types.Snippet, bool) {
	sn, ok := s.snippets[id]
	return sn, ok
}

// FileSnippets returns the snippets extracted from one file
func (s *Snapshot) FileSnippets(filePath string) []types.Snippet {
	ids := s.fileSnippets[filePath]
	out := make([]types.Snippet, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.snippets[id])
	}
	return out
}

// ManifestHash returns the recorded content hash for a file
func (s *Snapshot) ManifestHash(filePath string) ([32]byte, bool) {
	hash, ok := s.manifest[filePath]
	return hash, ok
}

// Files returns the number of files in the manifest
func (s *Snapshot) Files() int {
	return len(s.manifest)
}

// Stats summarizes the snapshot
func (s *Snapshot) Stats() types.IndexStats {
	return types.IndexStats{
		Indexed:       true,
		TotalFiles:    len(s.manifest),
		TotalSnippets: s.generation.Len(),
		GenerationID:  s.generation.ID(),
	}
}

// vectorsByContentHash indexes the generation's vectors by snippet content
// hash, the key used to carry embeddings across generations without
// re-embedding unchanged text.
func (s *Snapshot) vectorsByContentHash() map[[32]byte][]float32 {
	out := make(map[[32]byte][]float32, len(s.snippets))
	for id, sn := range s.snippets {
		if vec, ok := s.generation.Vector(id); ok {
			out[sn.ContentHash] = vec
		}
	}
	return out
}
