package loaders

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"docuchat/internal/apperr"
)

// ScanDir walks root and returns the paths of regular files whose name
// matches the glob pattern (e.g. "*.pdf", "reports/**.txt"). An empty
// pattern matches everything. Results are sorted for deterministic builds.
func ScanDir(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "**"
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, apperr.Validation("invalid glob pattern '%s': %v", pattern, err)
	}

	var matches []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if g.Match(filepath.ToSlash(rel)) || g.Match(d.Name()) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)
	return matches, nil
}
