package embeddings

import (
	"context"
	"crypto/sha256"
	"sync/atomic"
)

// MockEmbedder generates deterministic vectors from the sha256 of each sentence.
// Identical sentences get identical vectors.
type MockEmbedder struct {
	dimensions int
	calls      atomic.Int64
	// Fixed, when set, overrides the hash for the listed sentences.
	Fixed map[string][]float32
}

// NewMockEmbedder creates a mock embedder producing vectors of the given dimensions (default 64).
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 64
	}

	return &MockEmbedder{dimensions: dimensions}
}

// Embed implements Embedder.
func (m *MockEmbedder) Embed(_ context.Context, sentences []string) ([][]float32, error) {
	m.calls.Add(1)

	out := make([][]float32, len(sentences))
	for i, s := range sentences {
		if v, ok := m.Fixed[s]; ok {
			out[i] = append([]float32(nil), v...)

			continue
		}

		out[i] = m.hashVector(s)
	}

	return out, nil
}

// Calls returns how many times Embed has been called.
func (m *MockEmbedder) Calls() int {
	return int(m.calls.Load())
}

// hashVector maps the hash bytes cyclically into [-1, 1]. The vector is not normalized.
func (m *MockEmbedder) hashVector(text string) []float32 {
	hash := sha256.Sum256([]byte(text))
	vec := make([]float32, m.dimensions)

	for i := range vec {
		vec[i] = (float32(hash[i%len(hash)]) / 127.5) - 1.0
	}

	return vec
}

var _ Embedder = (*MockEmbedder)(nil)
