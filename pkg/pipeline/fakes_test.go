package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/matzehuels/skillpkgs/pkg/catalog"
	"github.com/matzehuels/skillpkgs/pkg/manifest"
	"github.com/matzehuels/skillpkgs/pkg/snapshot"
	"github.com/matzehuels/skillpkgs/pkg/source"
)

var fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

type fakeResolver struct {
	mu    sync.Mutex
	revs  map[string]string
	errs  map[string]error
	calls map[string]int
	delay time.Duration

	inflight, peak atomic.Int32
}

func (f *fakeResolver) Resolve(ctx context.Context, repo string) (string, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[repo]++
	if err := f.errs[repo]; err != nil {
		return "", err
	}
	return f.revs[repo], nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls map[string]int
}

func (f *fakeFetcher) Fetch(ctx context.Context, repo, rev string) (*snapshot.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[repo+"@"+rev]++
	if f.fail[repo] {
		return nil, errors.New("FETCH_FAILED: fetch " + repo)
	}
	return &snapshot.Snapshot{Hash: "sha256-" + rev, Path: storePath(repo, rev)}, nil
}

func (f *fakeFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func storePath(repo, rev string) string {
	return "/store/" + repo + "/" + rev
}

type countingLocator struct {
	*manifest.Locator
	calls atomic.Int32
}

func (l *countingLocator) Locate(root, hint string) (string, error) {
	l.calls.Add(1)
	return l.Locator.Locate(root, hint)
}

type harness struct {
	fs       afero.Fs
	resolver *fakeResolver
	fetcher  *fakeFetcher
	locator  *countingLocator
	logs     *bytes.Buffer
}

func newHarness(file string) *harness {
	fs := afero.NewMemMapFs()
	return &harness{
		fs:       fs,
		resolver: &fakeResolver{revs: map[string]string{}, errs: map[string]error{}},
		fetcher:  &fakeFetcher{fail: map[string]bool{}},
		locator:  &countingLocator{Locator: manifest.NewLocator(fs, file)},
		logs:     &bytes.Buffer{},
	}
}

// file writes a file into the snapshot of repo@rev.
func (h *harness) file(repo, rev, name, body string) {
	afero.WriteFile(h.fs, storePath(repo, rev)+"/"+name, []byte(body), 0o644)
}

func (h *harness) runner(opts Options) *Runner {
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	logger := log.NewWithOptions(h.logs, log.Options{Level: log.DebugLevel})
	return NewRunner(h.resolver, h.fetcher, h.locator, opts, logger)
}

func recs(repo string, names ...string) []source.Record {
	out := make([]source.Record, 0, len(names))
	for _, n := range names {
		out = append(out, source.Record{Name: n, RepositoryID: repo})
	}
	return out
}

func prevEntry(name, rev, path string) catalog.Entry {
	return catalog.Entry{
		Name:        name,
		Source:      catalog.Source{Type: catalog.SourceType, Owner: "acme", Repo: "tools", Rev: rev, Hash: "sha256-" + rev},
		Path:        path,
		LastUpdated: catalog.NewTimestamp(time.Date(2025, 12, 24, 18, 0, 0, 123_000_000, time.UTC)),
	}
}

func names(entries []catalog.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}
