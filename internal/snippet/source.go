// Package snippet enumerates specification text snippets from a directory.
package snippet

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"specparam/internal/types"
)

// LoadDirectory reads every .txt file in dir as one snippet, keyed by its
// filename. Files come back in lexical filename order so runs over the same
// directory are stable.
func LoadDirectory(dir string) ([]types.Snippet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snippets directory: %w", err)
	}

	var snippets []types.Snippet
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read snippet %s: %w", entry.Name(), err)
		}
		snippets = append(snippets, types.Snippet{
			ID:   entry.Name(),
			Text: string(data),
		})
	}

	// os.ReadDir already sorts, but the ordering contract matters downstream.
	sort.Slice(snippets, func(i, j int) bool { return snippets[i].ID < snippets[j].ID })
	return snippets, nil
}
