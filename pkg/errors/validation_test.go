package errors

import (
	"strings"
	"testing"
)

func TestValidateRepositoryID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "acme/tools", false},
		{"with dash", "my-org/my-repo", false},
		{"with dot", "acme/tools.nix", false},
		{"with underscore", "acme_inc/skill_pack", false},

		{"empty", "", true},
		{"no slash", "acme", true},
		{"two slashes", "acme/tools/extra", true},
		{"empty owner", "/tools", true},
		{"empty repo", "acme/", true},
		{"dotdot owner", "../tools", true},
		{"dot repo", "acme/.", true},
		{"spaces", "acme/my tools", true},
		{"too long", "a/" + strings.Repeat("b", 250), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRepositoryID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRepositoryID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidRepo) {
				t.Errorf("ValidateRepositoryID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidRepo)
			}
		})
	}
}

func TestValidateSkillName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "alpha", false},
		{"with spaces", "Alpha Tools", false},
		{"with dash", "pdf-editor", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSkillName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSkillName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"file", "SKILL.md", false},
		{"nested", "skills/alpha/SKILL.md", false},
		{"dot dir", ".claude/skills/alpha/SKILL.md", false},
		{"dotdot in name", "skills/a..b/SKILL.md", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "skills/../../etc", true},
		{"backslash", "skills\\alpha", true},
		{"null byte", "foo\x00bar", true},
		{"too long", strings.Repeat("a", 600), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/path", false},
		{"http", "http://example.com/path", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
