package snapshot

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/matzehuels/skillpkgs/pkg/cache"
	"github.com/matzehuels/skillpkgs/pkg/httputil"
	"github.com/matzehuels/skillpkgs/pkg/integrations"
)

type tarEntry struct {
	name, body, link string
	mode             int64
	typ              byte
}

func tarball(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	tw.WriteHeader(&tar.Header{Typeflag: tar.TypeXGlobalHeader, Name: "pax_global_header", PAXRecords: map[string]string{"comment": "r1"}})
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode, Typeflag: e.typ, Linkname: e.link}
		if hdr.Typeflag == 0 {
			hdr.Typeflag = tar.TypeReg
		}
		if hdr.Mode == 0 {
			hdr.Mode = 0o644
		}
		if hdr.Typeflag == tar.TypeReg {
			hdr.Size = int64(len(e.body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if hdr.Typeflag == tar.TypeReg {
			tw.Write([]byte(e.body))
		}
	}
	tw.Close()
	zw.Close()
	return buf.Bytes()
}

type fakeDownloader struct {
	data  []byte
	err   error
	calls int
	url   string
}

func (f *fakeDownloader) ArchiveURL(repo, rev string) string {
	return "https://github.com/" + repo + "/archive/" + rev + ".tar.gz"
}

func (f *fakeDownloader) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	f.calls++
	f.url = url
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

var toolsArchive = []tarEntry{
	{name: "tools-r1/", typ: tar.TypeDir, mode: 0o755},
	{name: "tools-r1/README.md", body: "# tools\n"},
	{name: "tools-r1/tools/alpha/SKILL.md", body: "---\nname: alpha\n---\n"},
	{name: "tools-r1/bin/run.sh", body: "#!/bin/sh\n", mode: 0o755},
	{name: "tools-r1/docs/alpha", typ: tar.TypeSymlink, link: "../tools/alpha"},
}

func TestArchivePrefetcher_UnpacksAndIndexes(t *testing.T) {
	fs := afero.NewOsFs()
	store := filepath.Join(t.TempDir(), "store")
	index, _ := cache.NewFileCache(t.TempDir())
	dl := &fakeDownloader{data: tarball(t, toolsArchive)}
	p := NewArchivePrefetcher(fs, store, dl, index, nil)

	snap, err := p.Prefetch(context.Background(), "acme/tools", "r1")
	if err != nil {
		t.Fatalf("Prefetch() error: %v", err)
	}
	if dl.url != "https://github.com/acme/tools/archive/r1.tar.gz" {
		t.Errorf("url = %q", dl.url)
	}
	if snap.Cached {
		t.Error("first fetch should not be cached")
	}
	if filepath.Dir(snap.Path) != store {
		t.Errorf("Path = %q, want under %q", snap.Path, store)
	}

	body, err := os.ReadFile(filepath.Join(snap.Path, "tools", "alpha", "SKILL.md"))
	if err != nil || string(body) != "---\nname: alpha\n---\n" {
		t.Errorf("SKILL.md = %q, %v", body, err)
	}
	if info, err := os.Stat(filepath.Join(snap.Path, "bin", "run.sh")); err != nil || info.Mode()&0o100 == 0 {
		t.Errorf("run.sh should be executable: %v", err)
	}
	if target, err := os.Readlink(filepath.Join(snap.Path, "docs", "alpha")); err != nil || target != "../tools/alpha" {
		t.Errorf("symlink = %q, %v", target, err)
	}

	want, _ := HashTree(fs, snap.Path)
	if snap.Hash != want {
		t.Errorf("Hash = %q, want %q", snap.Hash, want)
	}

	again, err := p.Prefetch(context.Background(), "acme/tools", "r1")
	if err != nil {
		t.Fatalf("second Prefetch() error: %v", err)
	}
	if !again.Cached || again.Hash != snap.Hash || again.Path != snap.Path {
		t.Errorf("second Prefetch() = %+v, want cached copy of %+v", again, snap)
	}
	if dl.calls != 1 {
		t.Errorf("downloads = %d, want 1", dl.calls)
	}

	entries, _ := os.ReadDir(store)
	if len(entries) != 1 {
		t.Errorf("store has %d entries, want 1 (temp dirs removed)", len(entries))
	}
}

func TestArchivePrefetcher_SameContentSharesStorePath(t *testing.T) {
	store := filepath.Join(t.TempDir(), "store")
	dl := &fakeDownloader{data: tarball(t, toolsArchive)}
	p := NewArchivePrefetcher(afero.NewOsFs(), store, dl, nil, nil)

	a, err := p.Prefetch(context.Background(), "acme/tools", "r1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Prefetch(context.Background(), "fork/tools", "r1")
	if err != nil {
		t.Fatal(err)
	}
	if a.Path != b.Path || a.Hash != b.Hash {
		t.Errorf("identical content should share a store path: %+v vs %+v", a, b)
	}
}

func TestArchivePrefetcher_StaleIndexRefetches(t *testing.T) {
	store := filepath.Join(t.TempDir(), "store")
	index, _ := cache.NewFileCache(t.TempDir())
	dl := &fakeDownloader{data: tarball(t, toolsArchive)}
	p := NewArchivePrefetcher(afero.NewOsFs(), store, dl, index, nil)

	if _, err := p.Prefetch(context.Background(), "acme/tools", "r1"); err != nil {
		t.Fatal(err)
	}
	if err := p.Clean(); err != nil {
		t.Fatal(err)
	}
	snap, err := p.Prefetch(context.Background(), "acme/tools", "r1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Cached || dl.calls != 2 {
		t.Errorf("cached=%v calls=%d, want refetch after store cleanup", snap.Cached, dl.calls)
	}
}

func TestArchivePrefetcher_RejectsEscapingPaths(t *testing.T) {
	outside := t.TempDir()

	tests := []struct {
		name    string
		entries []tarEntry
	}{
		{
			name: "dot-dot entry",
			entries: []tarEntry{
				{name: "tools-r1/ok.md", body: "ok"},
				{name: "tools-r1/../../evil", body: "x"},
			},
		},
		{
			name: "absolute symlink then write through it",
			entries: []tarEntry{
				{name: "tools-r1/evil", typ: tar.TypeSymlink, link: outside},
				{name: "tools-r1/evil/pwned", body: "owned\n"},
			},
		},
		{
			name: "relative symlink climbing out",
			entries: []tarEntry{
				{name: "tools-r1/docs/up", typ: tar.TypeSymlink, link: "../../.."},
			},
		},
		{
			name: "in-tree symlink used as parent",
			entries: []tarEntry{
				{name: "tools-r1/real/", typ: tar.TypeDir, mode: 0o755},
				{name: "tools-r1/alias", typ: tar.TypeSymlink, link: "real"},
				{name: "tools-r1/alias/file", body: "x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dl := &fakeDownloader{data: tarball(t, tt.entries)}
			p := NewArchivePrefetcher(afero.NewOsFs(), t.TempDir(), dl, nil, nil)

			_, err := p.Prefetch(context.Background(), "acme/tools", "r1")
			if !errors.Is(err, errUnsafeArchive) {
				t.Fatalf("Prefetch() error = %v, want unsafe archive", err)
			}
			var retryErr *httputil.RetryableError
			if errors.As(err, &retryErr) {
				t.Error("unsafe archives must not be retried")
			}
			if _, err := os.Lstat(filepath.Join(outside, "pwned")); !os.IsNotExist(err) {
				t.Errorf("file written outside the store: %v", err)
			}
		})
	}
}

func TestCheckLinkTarget(t *testing.T) {
	tests := []struct {
		rel, link string
		ok        bool
	}{
		{"docs/alpha", "../tools/alpha", true},
		{"a", "b/c", true},
		{"docs/up", "../..", false},
		{"a", "..", false},
		{"a", "/etc", false},
		{"a", "", false},
	}
	for _, tt := range tests {
		err := checkLinkTarget(tt.rel, tt.link)
		if (err == nil) != tt.ok {
			t.Errorf("checkLinkTarget(%q, %q) = %v, want ok=%v", tt.rel, tt.link, err, tt.ok)
		}
	}
}

func TestArchivePrefetcher_NotFoundIsPermanent(t *testing.T) {
	dl := &fakeDownloader{err: integrations.ErrNotFound}
	f := NewFetcher(NewArchivePrefetcher(afero.NewOsFs(), t.TempDir(), dl, nil, nil))
	f.SetRetry(3, 0)

	if _, err := f.Fetch(context.Background(), "acme/tools", "gone"); err == nil {
		t.Fatal("Fetch() should fail")
	}
	if dl.calls != 1 {
		t.Errorf("calls = %d, want 1", dl.calls)
	}
}
