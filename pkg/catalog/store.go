package catalog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/matzehuels/skillpkgs/pkg/errors"
)

// FileName is the name of each partition file.
const FileName = "skills.json"

// Store persists a catalog as prefix-partitioned JSON files under a
// directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Dir returns the catalog directory.
func (s *Store) Dir() string { return s.dir }

// Load reads every partition. When no partition exists, a single legacy
// <dir>/skills.json is read instead. A missing directory is an empty
// catalog; an unreadable or malformed file is an error.
func (s *Store) Load() (Catalog, error) {
	cat := make(Catalog)
	infos, err := afero.ReadDir(s.fs, s.dir)
	if os.IsNotExist(err) {
		return cat, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read catalog %s", s.dir)
	}

	found := false
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		entries, ok, err := s.read(filepath.Join(s.dir, info.Name(), FileName))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		found = true
		for _, e := range entries {
			cat.Set(e)
		}
	}
	if found {
		return cat, nil
	}

	entries, _, err := s.read(filepath.Join(s.dir, FileName))
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		cat.Set(e)
	}
	return cat, nil
}

func (s *Store) read(path string) ([]Entry, bool, error) {
	data, err := afero.ReadFile(s.fs, path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	entries, err := DecodeEntries(data)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	return entries, true, nil
}

// Save writes one file per partition and returns the partition keys
// written, sorted. Every partition is staged before any is replaced, so a
// failed encode or write leaves the catalog untouched. A legacy
// single-file catalog is removed afterwards.
func (s *Store) Save(cat Catalog) ([]string, error) {
	parts := cat.Partitions()
	prefixes := make([]string, 0, len(parts))
	for p := range parts {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	staged := make([]string, 0, len(prefixes))
	discard := func() {
		for _, tmp := range staged {
			s.fs.Remove(tmp)
		}
	}
	for _, p := range prefixes {
		tmp, err := stageJSON(s.fs, filepath.Join(s.dir, p), parts[p])
		if err != nil {
			discard()
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "write partition %s", p)
		}
		staged = append(staged, tmp)
	}
	for i, p := range prefixes {
		if err := s.fs.Rename(staged[i], filepath.Join(s.dir, p, FileName)); err != nil {
			staged = staged[i:]
			discard()
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "replace partition %s", p)
		}
	}
	if err := s.fs.Remove(filepath.Join(s.dir, FileName)); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return prefixes, nil
}

// DecodeEntries parses a JSON array of entries.
func DecodeEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EncodeEntries renders entries as two-space indented JSON with a
// trailing newline.
func EncodeEntries(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// stageJSON writes entries to a temporary file in dir and returns its
// name. The file is world-readable like the rest of the data tree.
func stageJSON(fs afero.Fs, dir string, entries []Entry) (string, error) {
	data, err := EncodeEntries(entries)
	if err != nil {
		return "", err
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := afero.TempFile(fs, dir, ".skills-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmp.Name())
		return "", err
	}
	if err := fs.Chmod(tmp.Name(), 0o644); err != nil {
		fs.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
