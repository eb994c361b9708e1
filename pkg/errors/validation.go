package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// repositoryIDRegex matches GitHub-style "owner/repo" identifiers.
var repositoryIDRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// ValidateRepositoryID validates an "owner/repo" identifier before it is
// used to build URLs or clone cache paths.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - Exactly one slash separating owner and repo
//   - No "." or ".." segments
//   - Maximum length of 200 characters
func ValidateRepositoryID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidRepo, "repository id cannot be empty")
	}
	if len(id) > 200 {
		return New(ErrCodeInvalidRepo, "repository id too long (max 200 characters)")
	}
	if !repositoryIDRegex.MatchString(id) {
		return New(ErrCodeInvalidRepo, "invalid repository id: %q (want owner/repo)", id)
	}
	owner, repo, _ := strings.Cut(id, "/")
	for _, seg := range []string{owner, repo} {
		if seg == "." || seg == ".." {
			return New(ErrCodeInvalidRepo, "repository id contains traversal segment: %q", id)
		}
	}
	return nil
}

// ValidateSkillName validates a skill name taken from an upstream listing.
// Names are used as directory-name hints, so separators are rejected.
func ValidateSkillName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "skill name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "skill name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "skill name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidInput, "skill name cannot contain path separators: %q", name)
	}
	return nil
}

// ValidatePath validates a file path within a repository for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
