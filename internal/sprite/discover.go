package sprite

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"spritegg/internal/logging"
)

// DiscoverEntities lists the immediate sub-directories of root, sorted by
// name. Hidden directories are skipped.
func DiscoverEntities(root string) ([]Entity, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	var out []Entity
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || !isDir(root, e) {
			continue
		}
		out = append(out, Entity{Name: e.Name(), Path: filepath.Join(root, e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	logging.ScanDebug("%s: %d entity folders", root, len(out))
	return out, nil
}

// isDir follows symlinks.
func isDir(parent string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}
