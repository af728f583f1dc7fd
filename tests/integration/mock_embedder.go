package integration

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"sync"

	"github.com/raglab/codeassist-mcp/internal/embedder"
)

var errMockEmbed = errors.New("mock embedding failure")

// anchorAxes pins marker terms to orthogonal axes so tests can script exact
// similarity scores: two texts sharing an anchor embed to the same unit
// vector and score 1.0 against each other, texts on different anchors score
// 0.0. Terms are checked in order against the lowercased text; first match
// wins. Texts with no anchor fall back to a hash-derived vector.
var anchorAxes = []struct {
	term string
	axis int
}{
	{"subtract", 0},
	{"multipl", 1},
	{"add", 2},
}

// MockEmbedder is a deterministic in-process embedder. It never touches the
// network, counts the texts it embeds, and injects failures for rebuild
// error paths.
type MockEmbedder struct {
	dimension int

	mu         sync.Mutex
	batchTexts int
	queryCalls int
	failNext   int                // GenerateBatch calls left to fail
	queryFails int                // GenerateEmbedding calls left to fail
	abort      context.CancelFunc // fired from inside the next GenerateBatch
}

// NewMockEmbedder creates a mock producing unit vectors of the given
// dimension, which must exceed the anchor axis count.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

// vectorFor maps anchored texts to their axis vector and everything else to
// a deterministic hash-derived unit vector.
func (m *MockEmbedder) vectorFor(text string) []float32 {
	vec := make([]float32, m.dimension)

	lowered := strings.ToLower(text)
	for _, a := range anchorAxes {
		if strings.Contains(lowered, a.term) {
			vec[a.axis] = 1
			return vec
		}
	}

	hash := sha256.Sum256([]byte(text))
	var sum float64
	for i := range vec {
		idx := (i * 4) % len(hash)
		val := binary.BigEndian.Uint32(hash[idx : idx+4])
		vec[i] = (float32(val)/float32(1<<32))*2 - 1
		sum += float64(vec[i]) * float64(vec[i])
	}
	if sum > 0 {
		inv := float32(1 / math.Sqrt(sum))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// GenerateEmbedding embeds a single query text.
func (m *MockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	m.mu.Lock()
	m.queryCalls++
	if m.queryFails > 0 {
		m.queryFails--
		m.mu.Unlock()
		return nil, errMockEmbed
	}
	m.mu.Unlock()

	return &embedder.Embedding{
		Vector:    m.vectorFor(req.Text),
		Dimension: m.dimension,
		Provider:  "mock",
		Model:     "mock-v1",
	}, nil
}

// GenerateBatch embeds snippet contents during indexing.
func (m *MockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	m.mu.Lock()
	if m.abort != nil {
		cancel := m.abort
		m.abort = nil
		m.mu.Unlock()
		cancel()
		return nil, errMockEmbed
	}
	if m.failNext > 0 {
		m.failNext--
		m.mu.Unlock()
		return nil, errMockEmbed
	}
	m.batchTexts += len(req.Texts)
	m.mu.Unlock()

	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		embeddings[i] = &embedder.Embedding{
			Vector:    m.vectorFor(text),
			Dimension: m.dimension,
			Provider:  "mock",
			Model:     "mock-v1",
		}
	}

	return &embedder.BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   "mock",
		Model:      "mock-v1",
	}, nil
}

func (m *MockEmbedder) Dimension() int   { return m.dimension }
func (m *MockEmbedder) Provider() string { return "mock" }
func (m *MockEmbedder) Model() string    { return "mock-v1" }
func (m *MockEmbedder) Close() error     { return nil }

// batchTextCount reports how many snippet texts went through GenerateBatch.
func (m *MockEmbedder) batchTextCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchTexts
}

// queryCount reports how many single-text embeddings were requested.
func (m *MockEmbedder) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryCalls
}

// failBatches makes the next n GenerateBatch calls fail.
func (m *MockEmbedder) failBatches(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
}

// failQueries makes the next n GenerateEmbedding calls fail.
func (m *MockEmbedder) failQueries(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryFails = n
}

// abortNextBatch cancels the given context from inside the next
// GenerateBatch call, simulating a provider outage that tears down the
// whole request.
func (m *MockEmbedder) abortNextBatch(cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abort = cancel
}
