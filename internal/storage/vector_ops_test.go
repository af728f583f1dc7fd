package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeVector_Roundtrip(t *testing.T) {
	testCases := []struct {
		name   string
		vector []float32
	}{
		{
			name:   "typical values",
			vector: []float32{0.1, -0.5, 0.999, 0.0, 1.0},
		},
		{
			name:   "single element",
			vector: []float32{42.5},
		},
		{
			name:   "empty vector",
			vector: []float32{},
		},
		{
			name:   "negative and tiny values",
			vector: []float32{-1e-30, 1e30, -0.0, 3.14159},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			blob := SerializeVector(tc.vector)
			assert.Len(t, blob, len(tc.vector)*4)

			restored := DeserializeVector(blob)
			assert.Equal(t, tc.vector, restored)
		})
	}
}

func TestSerializeVector_LittleEndian(t *testing.T) {
	// 1.0 as float32 is 0x3F800000; little-endian blob is 00 00 80 3F
	blob := SerializeVector([]float32{1.0})
	require.Len(t, blob, 4)
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, blob)
}

func TestDeserializeVector_TruncatedBlob(t *testing.T) {
	// Trailing bytes that do not complete a float32 are ignored
	blob := []byte{0x00, 0x00, 0x80, 0x3F, 0xFF, 0xFF}
	restored := DeserializeVector(blob)
	assert.Equal(t, []float32{1.0}, restored)
}

func TestSerializeVector_LargeDimension(t *testing.T) {
	vector := make([]float32, 1536)
	for i := range vector {
		vector[i] = float32(i) * 0.001
	}

	blob := SerializeVector(vector)
	assert.Len(t, blob, 1536*4)
	assert.Equal(t, vector, DeserializeVector(blob))
}
