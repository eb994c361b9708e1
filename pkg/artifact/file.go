package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// FileStore keeps artifacts as <dir>/<index>.json.
type FileStore struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

// NewFileStore creates a file-based artifact store.
func NewFileStore(fs afero.Fs, dir string) *FileStore {
	return &FileStore{fs: fs, dir: dir}
}

func (s *FileStore) path(index int) string {
	return filepath.Join(s.dir, strconv.Itoa(index)+".json")
}

func (s *FileStore) Put(ctx context.Context, a *Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encode(a)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path(a.Index), data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos, err := afero.ReadDir(s.fs, s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact dir: %w", err)
	}

	var arts []*Artifact
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		index, ok := indexOf(strings.TrimSuffix(name, ".json"))
		if !ok {
			continue
		}
		data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", name, err)
		}
		a, err := decode(data, index)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		arts = append(arts, a)
	}
	sort.SliceStable(arts, func(i, j int) bool { return arts[i].Index < arts[j].Index })
	return arts, nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove artifact dir: %w", err)
	}
	return nil
}

// Path returns the artifact directory.
func (s *FileStore) Path() string {
	return s.dir
}

var _ Store = (*FileStore)(nil)
