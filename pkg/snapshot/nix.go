package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/matzehuels/skillpkgs/pkg/httputil"
)

// NixPrefetcher fetches snapshots into the Nix store with
// `nix-prefetch-url --print-path --unpack`.
type NixPrefetcher struct {
	url func(repo, rev string) string
	bin string
}

// NewNixPrefetcher creates a prefetcher. url maps a repository revision to
// its tarball URL.
func NewNixPrefetcher(url func(repo, rev string) string) *NixPrefetcher {
	return &NixPrefetcher{url: url, bin: "nix-prefetch-url"}
}

// Prefetch implements [Prefetcher]. Every failure is retryable; the
// command gives no reliable way to tell transient errors apart.
func (p *NixPrefetcher) Prefetch(ctx context.Context, repo, rev string) (*Snapshot, error) {
	url := p.url(repo, rev)
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.bin, "--print-path", "--unpack", url)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, httputil.Retryable(fmt.Errorf("%s %s: %w: %s", p.bin, url, err, strings.TrimSpace(stderr.String())))
	}
	return parsePrefetchOutput(stdout.String())
}

// parsePrefetchOutput reads the hash and store path lines.
func parsePrefetchOutput(out string) (*Snapshot, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) == "" || strings.TrimSpace(lines[1]) == "" {
		return nil, fmt.Errorf("unexpected nix-prefetch-url output: %q", out)
	}
	hash, err := toSRI(strings.TrimSpace(lines[0]))
	if err != nil {
		return nil, err
	}
	return &Snapshot{Hash: hash, Path: strings.TrimSpace(lines[1])}, nil
}

var _ Prefetcher = (*NixPrefetcher)(nil)
