package revision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	skerrors "github.com/matzehuels/skillpkgs/pkg/errors"
)

func TestCacheDir(t *testing.T) {
	if got := CacheDir("/tmp/c", "acme/tools"); got != filepath.Join("/tmp/c", "acme--tools") {
		t.Errorf("CacheDir() = %q", got)
	}
}

func TestCloneStrategy_RemovesStaleClone(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(CacheDir(root, "acme/tools"), "stale.txt")
	os.MkdirAll(filepath.Dir(stale), 0o755)
	os.WriteFile(stale, []byte("old"), 0o644)

	var gotDir, gotURL string
	s := &CloneStrategy{
		root:     root,
		cloneURL: func(repo string) string { return "https://git.example/" + repo + ".git" },
		clone: func(ctx context.Context, dir, url string) (string, error) {
			gotDir, gotURL = dir, url
			if _, err := os.Stat(stale); !os.IsNotExist(err) {
				t.Error("stale clone should be removed before cloning")
			}
			return "r1", nil
		},
	}

	rev, err := s.Resolve(context.Background(), "acme/tools")
	if err != nil || rev != "r1" {
		t.Fatalf("Resolve() = %q, %v", rev, err)
	}
	if gotDir != CacheDir(root, "acme/tools") {
		t.Errorf("clone dir = %q", gotDir)
	}
	if gotURL != "https://git.example/acme/tools.git" {
		t.Errorf("clone url = %q", gotURL)
	}
}

func TestCloneStrategy_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantNoAccess bool
	}{
		{"auth required", transport.ErrAuthenticationRequired, true},
		{"auth failed", fmt.Errorf("clone: %w", transport.ErrAuthorizationFailed), true},
		{"not found", transport.ErrRepositoryNotFound, true},
		{"other", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &CloneStrategy{
				root:     t.TempDir(),
				cloneURL: func(repo string) string { return repo },
				clone: func(ctx context.Context, dir, url string) (string, error) {
					return "", tt.err
				},
			}
			_, err := s.Resolve(context.Background(), "acme/tools")
			if got := errors.Is(err, ErrNoAccess); got != tt.wantNoAccess {
				t.Errorf("errors.Is(ErrNoAccess) = %v, want %v (err %v)", got, tt.wantNoAccess, err)
			}
			if !tt.wantNoAccess && !skerrors.Is(err, skerrors.ErrCodeTransport) {
				t.Errorf("error = %v, want TRANSPORT_ERROR", err)
			}
		})
	}
}

func TestCloneStrategy_RejectsInvalidRepository(t *testing.T) {
	s := NewCloneStrategy(t.TempDir(), func(r string) string { return r }, "")
	if _, err := s.Resolve(context.Background(), "../escape"); !skerrors.Is(err, skerrors.ErrCodeInvalidRepo) {
		t.Errorf("Resolve() error = %v, want INVALID_REPOSITORY", err)
	}
}

func TestHeadOf(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, _ := repo.Worktree()
	os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("---\nname: alpha\n---\n"), 0o644)
	if _, err := wt.Add("SKILL.md"); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := HeadOf(dir)
	if err != nil {
		t.Fatalf("HeadOf() error: %v", err)
	}
	if got != hash.String() {
		t.Errorf("HeadOf() = %q, want %q", got, hash.String())
	}
}

func TestClean(t *testing.T) {
	root := filepath.Join(t.TempDir(), "cache")
	os.MkdirAll(filepath.Join(root, "a--b"), 0o755)
	if err := Clean(root); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("Clean() should remove the cache root")
	}
}
