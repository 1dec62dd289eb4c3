package sprite

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var storageOrder = []string{"down", "right", "up", "left"}

// writeFrames creates n numbered frame files in dir and returns their paths.
func writeFrames(t *testing.T, dir string, n int) []string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		paths[i] = filepath.Join(dir, fmt.Sprintf("frame_%03d.png", i))
		require.NoError(t, os.WriteFile(paths[i], []byte("png"), 0644))
	}
	return paths
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}
