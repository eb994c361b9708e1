package github

import (
	"fmt"
	"regexp"
	"strings"
)

// Regex patterns for GitHub resource validation.
var (
	// GitHub usernames/orgs: 1-39 alphanumeric or hyphen, not starting with hyphen
	validOwner = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	// GitHub repo names: 1-100 alphanumeric, hyphen, underscore, or dot
	validRepo = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)
	// Commit SHAs: SHA-1 or SHA-256 object names
	validSHA = regexp.MustCompile(`^([0-9a-f]{40}|[0-9a-f]{64})$`)
)

// SplitRepository splits "owner/repo" and validates both parts against
// GitHub's naming rules.
func SplitRepository(id string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(id, "/")
	if !ok {
		return "", "", fmt.Errorf("invalid repository %q: want owner/repo", id)
	}
	if !validOwner.MatchString(owner) {
		return "", "", fmt.Errorf("invalid owner %q: must be 1-39 alphanumeric characters or hyphens, cannot start with hyphen", owner)
	}
	if !validRepo.MatchString(repo) || repo == "." || repo == ".." {
		return "", "", fmt.Errorf("invalid repo %q: must be 1-100 alphanumeric characters, hyphens, underscores, or dots", repo)
	}
	return owner, repo, nil
}

// IsCommitSHA reports whether s is a full lowercase hex commit id.
func IsCommitSHA(s string) bool {
	return validSHA.MatchString(s)
}
