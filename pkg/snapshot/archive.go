package snapshot

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/matzehuels/skillpkgs/pkg/cache"
	skerrors "github.com/matzehuels/skillpkgs/pkg/errors"
	"github.com/matzehuels/skillpkgs/pkg/httputil"
	"github.com/matzehuels/skillpkgs/pkg/observability"
)

// Downloader locates and opens repository tarballs.
type Downloader interface {
	ArchiveURL(repo, rev string) string
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// ArchivePrefetcher unpacks GitHub tarballs into a local content-addressed
// store. An index maps (repo, rev) to the store path so that a revision is
// downloaded at most once per store.
type ArchivePrefetcher struct {
	fs    afero.Fs
	root  string
	dl    Downloader
	index cache.Cache
	keyer cache.Keyer
}

// NewArchivePrefetcher creates a prefetcher storing snapshots under root.
// A nil index disables the index, and every fetch downloads.
func NewArchivePrefetcher(fs afero.Fs, root string, dl Downloader, index cache.Cache, keyer cache.Keyer) *ArchivePrefetcher {
	if index == nil {
		index = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &ArchivePrefetcher{fs: fs, root: root, dl: dl, index: index, keyer: keyer}
}

// Prefetch implements [Prefetcher].
func (p *ArchivePrefetcher) Prefetch(ctx context.Context, repo, rev string) (*Snapshot, error) {
	key := p.keyer.SnapshotKey(repo, rev)
	if snap, ok := p.lookup(ctx, key); ok {
		return snap, nil
	}

	if err := p.fs.MkdirAll(p.root, 0o755); err != nil {
		return nil, err
	}
	tmp, err := afero.TempDir(p.fs, p.root, ".unpack-")
	if err != nil {
		return nil, err
	}
	defer p.fs.RemoveAll(tmp)

	if err := p.download(ctx, p.dl.ArchiveURL(repo, rev), tmp); err != nil {
		return nil, err
	}

	hash, err := HashTree(p.fs, tmp)
	if err != nil {
		return nil, err
	}
	dest, err := p.commit(tmp, hash)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Hash: hash, Path: dest}
	if data, err := json.Marshal(snap); err == nil {
		if p.index.Set(ctx, key, data, 0) == nil {
			observability.Cache().OnCacheSet(ctx, "snapshot", len(data))
		}
	}
	return snap, nil
}

func (p *ArchivePrefetcher) lookup(ctx context.Context, key string) (*Snapshot, bool) {
	data, ok, err := p.index.Get(ctx, key)
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "snapshot")
		return nil, false
	}
	var snap Snapshot
	if json.Unmarshal(data, &snap) != nil || snap.Path == "" {
		observability.Cache().OnCacheMiss(ctx, "snapshot")
		return nil, false
	}
	if _, err := p.fs.Stat(snap.Path); err != nil {
		observability.Cache().OnCacheMiss(ctx, "snapshot")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "snapshot")
	snap.Cached = true
	return &snap, true
}

// commit moves the unpacked tree to its content address. An existing
// directory with the same hash is reused.
func (p *ArchivePrefetcher) commit(tmp, hash string) (string, error) {
	sum := sha256.Sum256([]byte(hash))
	dest := filepath.Join(p.root, hex.EncodeToString(sum[:16])+"-source")
	if _, err := p.fs.Stat(dest); err == nil {
		return dest, nil
	}
	if err := p.fs.Rename(tmp, dest); err != nil {
		if _, statErr := p.fs.Stat(dest); statErr == nil {
			return dest, nil
		}
		return "", err
	}
	return dest, nil
}

func (p *ArchivePrefetcher) download(ctx context.Context, url, dir string) error {
	body, err := p.dl.Open(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()

	zr, err := gzip.NewReader(body)
	if err != nil {
		return httputil.Retryable(fmt.Errorf("gunzip %s: %w", url, err))
	}
	defer zr.Close()

	if err := extract(p.fs, tar.NewReader(zr), dir); err != nil {
		if errors.Is(err, errUnsafeArchive) {
			return err
		}
		return httputil.Retryable(fmt.Errorf("extract %s: %w", url, err))
	}
	return nil
}

// Clean removes the whole store.
func (p *ArchivePrefetcher) Clean() error {
	return p.fs.RemoveAll(p.root)
}

var errUnsafeArchive = errors.New("unsafe archive")

// extract unpacks tr into dir, stripping the single top-level directory
// that GitHub archives wrap their contents in.
func extract(fs afero.Fs, tr *tar.Reader, dir string) error {
	top := ""
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader || hdr.Typeflag == tar.TypeXHeader {
			continue
		}

		rel, err := stripTop(hdr.Name, &top)
		if err != nil {
			return err
		}
		if rel == "" {
			continue
		}
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if err := checkNoSymlinks(fs, dir, rel); err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := fs.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(fs, target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := checkLinkTarget(rel, hdr.Linkname); err != nil {
				return err
			}
			if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			linker, ok := fs.(afero.Linker)
			if !ok {
				return fmt.Errorf("filesystem cannot create symlink %s", rel)
			}
			if err := linker.SymlinkIfPossible(hdr.Linkname, target); err != nil {
				return err
			}
		case tar.TypeLink:
			src, err := stripTop(hdr.Linkname, &top)
			if err != nil || src == "" {
				return fmt.Errorf("%w: hard link %s", errUnsafeArchive, hdr.Linkname)
			}
			if err := copyFile(fs, filepath.Join(dir, filepath.FromSlash(src)), target); err != nil {
				return err
			}
		}
	}
}

// stripTop removes the first path element of name and validates the rest.
// All entries must share the same first element.
func stripTop(name string, top *string) (string, error) {
	name = strings.TrimPrefix(name, "./")
	first, rest, _ := strings.Cut(name, "/")
	if *top == "" {
		*top = first
	} else if first != *top {
		return "", fmt.Errorf("%w: multiple top-level entries (%s, %s)", errUnsafeArchive, *top, first)
	}
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return "", nil
	}
	rest = path.Clean(rest)
	if err := skerrors.ValidatePath(rest); err != nil {
		return "", fmt.Errorf("%w: %v", errUnsafeArchive, err)
	}
	return rest, nil
}

// checkLinkTarget rejects symlinks that point outside the unpacked tree.
func checkLinkTarget(rel, link string) error {
	if link == "" || path.IsAbs(link) || strings.Contains(link, "\\") {
		return fmt.Errorf("%w: symlink %s -> %s", errUnsafeArchive, rel, link)
	}
	resolved := path.Join(path.Dir(rel), link)
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return fmt.Errorf("%w: symlink %s -> %s", errUnsafeArchive, rel, link)
	}
	return nil
}

// checkNoSymlinks fails if any existing element of rel below dir is a
// symlink, so that later entries cannot be written through one.
func checkNoSymlinks(fs afero.Fs, dir, rel string) error {
	lst, ok := fs.(afero.Lstater)
	if !ok {
		return nil
	}
	cur := dir
	for _, elem := range strings.Split(rel, "/") {
		cur = filepath.Join(cur, elem)
		fi, _, err := lst.LstatIfPossible(cur)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s passes through symlink", errUnsafeArchive, rel)
		}
	}
	return nil
}

func writeFile(fs afero.Fs, target string, r io.Reader, mode os.FileMode) error {
	if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if mode&0o100 != 0 {
		perm = 0o755
	}
	f, err := fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// OpenFile honours the umask; the executable bit is part of the hash.
	return fs.Chmod(target, perm)
}

func copyFile(fs afero.Fs, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return err
	}
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeFile(fs, dst, in, info.Mode())
}

var _ Prefetcher = (*ArchivePrefetcher)(nil)
