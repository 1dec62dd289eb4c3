package sprite

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// FolderSet is a case-insensitive view over the sub-folder names of one
// entity directory. When two names differ only in case, the lexicographically
// first one wins.
type FolderSet struct {
	names []string
	index map[string]string
}

// NewFolderSet builds a FolderSet from raw directory names.
func NewFolderSet(names []string) *FolderSet {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	index := make(map[string]string, len(sorted))
	for _, n := range sorted {
		key := strings.ToLower(n)
		if _, ok := index[key]; !ok {
			index[key] = n
		}
	}
	return &FolderSet{names: sorted, index: index}
}

// ReadFolderSet lists the immediate sub-directories of dir.
func ReadFolderSet(dir string) (*FolderSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if isDir(dir, e) {
			names = append(names, e.Name())
		}
	}
	return NewFolderSet(names), nil
}

// Find returns the actual folder name matching target case-insensitively.
func (s *FolderSet) Find(target string) (string, bool) {
	name, ok := s.index[strings.ToLower(target)]
	return name, ok
}

// Names returns every folder name, sorted.
func (s *FolderSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of folders.
func (s *FolderSet) Len() int {
	return len(s.names)
}
