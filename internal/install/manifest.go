package install

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppkgd/ppkgd/internal/ppkgerr"
)

// WriteManifest walks root depth-first in pre-order and writes one entry
// per visited path to path: "d|<relpath>/\n" for directories, "f|<relpath>\n"
// for files, relative to root with no leading slash. Directories are
// listed ahead of their contents.
func WriteManifest(root, path string) error {
	var b strings.Builder
	if err := walkManifest(root, root, &b); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return &ppkgerr.FilesystemError{Path: path, Err: err}
	}
	return nil
}

func walkManifest(root, dir string, b *strings.Builder) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &ppkgerr.FilesystemError{Path: dir, Err: err}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		rel, err := filepath.Rel(root, full)
		if err != nil {
			return err
		}

		if entry.IsDir() {
			b.WriteString("d|" + rel + "/\n")
			if err := walkManifest(root, full, b); err != nil {
				return err
			}
			continue
		}

		b.WriteString("f|" + rel + "\n")
	}

	return nil
}
