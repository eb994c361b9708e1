package snapshot

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// HashTree returns the SRI form of the SHA-256 of the NAR serialisation of
// the tree at root. Only the executable bit of file modes is significant.
func HashTree(fsys afero.Fs, root string) (string, error) {
	h := sha256.New()
	if err := WriteNAR(h, fsys, root); err != nil {
		return "", err
	}
	return SRI(h), nil
}

// SRI formats a finished sha256 as "sha256-<base64>".
func SRI(h hash.Hash) string {
	return "sha256-" + base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// WriteNAR writes the Nix archive serialisation of root to w.
func WriteNAR(w io.Writer, fsys afero.Fs, root string) error {
	nw := &narWriter{w: w, fsys: fsys}
	nw.str("nix-archive-1")
	nw.node(root)
	return nw.err
}

type narWriter struct {
	w    io.Writer
	fsys afero.Fs
	err  error
	buf  [8]byte
}

func (n *narWriter) write(p []byte) {
	if n.err == nil {
		_, n.err = n.w.Write(p)
	}
}

func (n *narWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(n.buf[:], v)
	n.write(n.buf[:])
}

func (n *narWriter) pad(size uint64) {
	if r := size % 8; r != 0 {
		n.write(make([]byte, 8-r))
	}
}

func (n *narWriter) str(s string) {
	n.u64(uint64(len(s)))
	n.write([]byte(s))
	n.pad(uint64(len(s)))
}

func (n *narWriter) fail(err error) {
	if n.err == nil {
		n.err = err
	}
}

func (n *narWriter) node(p string) {
	if n.err != nil {
		return
	}
	info, err := lstat(n.fsys, p)
	if err != nil {
		n.fail(err)
		return
	}

	n.str("(")
	n.str("type")
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := readlink(n.fsys, p)
		if err != nil {
			n.fail(err)
			return
		}
		n.str("symlink")
		n.str("target")
		n.str(target)
	case info.IsDir():
		n.str("directory")
		entries, err := afero.ReadDir(n.fsys, p)
		if err != nil {
			n.fail(err)
			return
		}
		for _, e := range entries {
			n.str("entry")
			n.str("(")
			n.str("name")
			n.str(e.Name())
			n.str("node")
			n.node(filepath.Join(p, e.Name()))
			n.str(")")
		}
	case info.Mode().IsRegular():
		n.str("regular")
		if info.Mode()&0o100 != 0 {
			n.str("executable")
			n.str("")
		}
		n.str("contents")
		n.contents(p, uint64(info.Size()))
	default:
		n.fail(fmt.Errorf("unsupported file type %s: %s", info.Mode().Type(), p))
		return
	}
	n.str(")")
}

func (n *narWriter) contents(p string, size uint64) {
	if n.err != nil {
		return
	}
	f, err := n.fsys.Open(p)
	if err != nil {
		n.fail(err)
		return
	}
	defer f.Close()
	n.u64(size)
	if n.err != nil {
		return
	}
	if _, err := io.CopyN(n.w, f, int64(size)); err != nil {
		n.fail(fmt.Errorf("read %s: %w", p, err))
		return
	}
	n.pad(size)
}

func lstat(fsys afero.Fs, p string) (os.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(p)
		return info, err
	}
	return fsys.Stat(p)
}

func readlink(fsys afero.Fs, p string) (string, error) {
	if r, ok := fsys.(afero.LinkReader); ok {
		return r.ReadlinkIfPossible(p)
	}
	return "", fmt.Errorf("filesystem cannot read symlink %s", p)
}
