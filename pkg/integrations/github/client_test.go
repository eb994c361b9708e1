package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/skillpkgs/pkg/integrations"
)

const sha = "0123456789abcdef0123456789abcdef01234567"

func TestClient_HeadCommit(t *testing.T) {
	var gotAccept, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/repos/acme/tools/commits/HEAD":
			fmt.Fprintln(w, sha)
		case "/repos/acme/garbage/commits/HEAD":
			fmt.Fprint(w, `{"message":"html page"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "", "secret")

	rev, err := c.HeadCommit(context.Background(), "acme/tools")
	if err != nil {
		t.Fatalf("HeadCommit() error: %v", err)
	}
	if rev != sha {
		t.Errorf("HeadCommit() = %q, want %q", rev, sha)
	}
	if gotAccept != "application/vnd.github.sha" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	if _, err := c.HeadCommit(context.Background(), "acme/missing"); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("HeadCommit(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := c.HeadCommit(context.Background(), "acme/garbage"); err == nil {
		t.Error("HeadCommit() should reject a non-SHA body")
	}
}

func TestClient_HeadCommitRejectsInvalidRepository(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "", "")
	for _, id := range []string{"acme", "-bad/tools", "acme/..", "a/b/c"} {
		if _, err := c.HeadCommit(context.Background(), id); err == nil {
			t.Errorf("HeadCommit(%q) should fail validation", id)
		}
	}
}

func TestClient_URLs(t *testing.T) {
	c := NewClient("", "", "")
	if got := c.ArchiveURL("acme/tools", "r1"); got != "https://github.com/acme/tools/archive/r1.tar.gz" {
		t.Errorf("ArchiveURL() = %q", got)
	}
	if got := c.CloneURL("acme/tools"); got != "https://github.com/acme/tools.git" {
		t.Errorf("CloneURL() = %q", got)
	}

	mirror := NewClient("", "https://mirror.example/", "")
	if got := mirror.ArchiveURL("acme/tools", "r1"); !strings.HasPrefix(got, "https://mirror.example/acme") {
		t.Errorf("ArchiveURL() with mirror = %q", got)
	}
}

func TestSplitRepository(t *testing.T) {
	tests := []struct {
		in        string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"acme/tools", "acme", "tools", false},
		{"my-org/repo.name_x", "my-org", "repo.name_x", false},
		{"acme", "", "", true},
		{"-acme/tools", "", "", true},
		{"acme/", "", "", true},
		{"acme/..", "", "", true},
		{"acme/to ols", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, repo, err := SplitRepository(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitRepository(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("SplitRepository(%q) = %q, %q", tt.in, owner, repo)
			}
		})
	}
}
