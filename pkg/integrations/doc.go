// Package integrations provides HTTP clients for the upstream skill
// listings and the GitHub API.
//
// # Overview
//
// Each upstream has its own subpackage:
//
//   - [skillssh]: skills.sh, paged by offset
//   - [skillsdirectory]: skillsdirectory.com, paged by page number
//   - [github]: default branch head lookup and archive URLs
//
// The listing clients expose their records as a lazy [iter.Seq2] that
// pages until the upstream returns an empty page.
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all clients:
// default headers, status mapping to [ErrNotFound] and [ErrNetwork],
// optional response caching via [cache.Cache], and fixed-delay retries for
// transient failures.
//
// [skillssh]: github.com/matzehuels/skillpkgs/pkg/integrations/skillssh
// [skillsdirectory]: github.com/matzehuels/skillpkgs/pkg/integrations/skillsdirectory
// [github]: github.com/matzehuels/skillpkgs/pkg/integrations/github
package integrations
