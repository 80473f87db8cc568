package ingest

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AllowedExtensions is the fixed set of file extensions the walker
// will surface; anything else is skipped silently during discovery.
var AllowedExtensions = map[string]bool{
	"md": true, "txt": true, "xml": true, "yaml": true, "yml": true,
	"json": true, "toml": true, "rs": true, "py": true, "ts": true,
	"js": true, "go": true,
}

// DiscoveredFile describes one file found under the ingestion root.
type DiscoveredFile struct {
	AbsolutePath string
	RelativePath string
	Extension    string
	Size         int64
	ModTime      time.Time
}

// DiscoverFiles walks root recursively, following symlinks, and
// returns every regular file whose extension is in AllowedExtensions.
// Relative paths use "/" separators regardless of platform, matching
// the convention ExtractNamespace and ExtractEntityName expect.
func DiscoverFiles(root string) ([]DiscoveredFile, error) {
	return discoverUnder(root, root)
}

// discoverUnder walks dir, reporting relative paths against base
// rather than dir itself, so a symlinked subtree's files get a
// relative path anchored at the original root.
func discoverUnder(base, dir string) ([]DiscoveredFile, error) {
	var files []DiscoveredFile

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			resolved, statErr := os.Stat(path)
			if statErr != nil {
				continue
			}
			info = resolved
		}

		if info.IsDir() {
			nested, err := discoverUnder(base, path)
			if err != nil {
				return nil, err
			}
			files = append(files, nested...)
			continue
		}

		ext := extensionOf(path)
		if !AllowedExtensions[ext] {
			continue
		}

		rel, err := filepath.Rel(base, path)
		if err != nil {
			return nil, err
		}

		files = append(files, DiscoveredFile{
			AbsolutePath: path,
			RelativePath: filepath.ToSlash(rel),
			Extension:    ext,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
		})
	}

	return files, nil
}

func extensionOf(path string) string {
	ext := filepath.Ext(path)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
