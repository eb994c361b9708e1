// Package manifest locates skill manifests inside repository snapshots.
//
// A snapshot may contain any number of skills, each in its own directory
// holding a manifest file (SKILL.md by default). [Locator.Locate] maps a
// skill name taken from an upstream listing to the directory of its
// manifest in two phases:
//
//  1. Directory name: a manifest whose parent directory is named exactly
//     like the hint (case-sensitive). The first match in lexical path
//     order wins.
//  2. Frontmatter: a manifest whose YAML frontmatter "name" equals the
//     hint, ignoring case. Files whose frontmatter cannot be parsed are
//     skipped.
//
// Phase 2 runs only when phase 1 finds nothing.
package manifest

import (
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DefaultFile is the manifest file name.
const DefaultFile = "SKILL.md"

// ErrNotFound is returned when no manifest matches the hint.
var ErrNotFound = errors.New("manifest not found")

// Locator finds manifest directories inside a snapshot tree.
type Locator struct {
	fs   afero.Fs
	file string
}

// NewLocator creates a locator reading from fsys. An empty file name
// selects [DefaultFile].
func NewLocator(fsys afero.Fs, file string) *Locator {
	if file == "" {
		file = DefaultFile
	}
	return &Locator{fs: fsys, file: file}
}

// File returns the manifest file name.
func (l *Locator) File() string { return l.file }

// Locate returns the slash-separated path of the manifest's directory
// relative to root, or "." when the manifest sits at the root.
func (l *Locator) Locate(root, hint string) (string, error) {
	files, err := l.manifests(root)
	if err != nil {
		return "", err
	}

	for _, rel := range files {
		if path.Base(path.Dir(rel)) == hint {
			return path.Dir(rel), nil
		}
	}

	for _, rel := range files {
		data, err := afero.ReadFile(l.fs, filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		meta, err := ParseFrontmatter(data)
		if err != nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(meta.Name), hint) {
			return path.Dir(rel), nil
		}
	}
	return "", ErrNotFound
}

// manifests lists every manifest file under root in lexical order of its
// relative path. Symlinks are not followed.
func (l *Locator) manifests(root string) ([]string, error) {
	var files []string
	err := afero.Walk(l.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if !info.Mode().IsRegular() || info.Name() != l.file {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
