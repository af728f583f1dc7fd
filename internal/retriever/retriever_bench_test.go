package retriever

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raglab/codeassist-mcp/internal/indexer"
	"github.com/raglab/codeassist-mcp/internal/storage"
)

func writeFile(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
}

// BenchmarkRetrieve measures an uncached retrieval over a 256-snippet corpus
func BenchmarkRetrieve(b *testing.B) {
	dir := b.TempDir()
	for f := 0; f < 64; f++ {
		var content strings.Builder
		content.WriteString("package generated\n\n")
		for i := 0; i < 4; i++ {
			fmt.Fprintf(&content, "func Handler%d_%d(x int) int {\n\treturn x + %d\n}\n\n", f, i, i)
		}
		require.NoError(b, writeFile(dir, fmt.Sprintf("gen_%03d.go", f), content.String()))
	}

	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(b, err)
	defer store.Close()

	emb := &axisEmbedder{}
	mgr := indexer.New(store, emb, nil)
	_, err = mgr.Rebuild(context.Background(), dir)
	require.NoError(b, err)

	r := New(mgr, emb, nil)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Unique query text per iteration keeps the cache out of the path
		if _, err := r.Retrieve(ctx, fmt.Sprintf("handler logic %d", i), 10, 0); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRetrieve_Cached measures the cache-hit path
func BenchmarkRetrieve_Cached(b *testing.B) {
	dir := b.TempDir()
	require.NoError(b, writeFile(dir, "alpha.go", alphaSrc))

	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(b, err)
	defer store.Close()

	emb := &axisEmbedder{}
	mgr := indexer.New(store, emb, nil)
	_, err = mgr.Rebuild(context.Background(), dir)
	require.NoError(b, err)

	r := New(mgr, emb, nil)
	ctx := context.Background()

	if _, err := r.Retrieve(ctx, "Alpha", 10, 0); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Retrieve(ctx, "Alpha", 10, 0); err != nil {
			b.Fatal(err)
		}
	}
}
