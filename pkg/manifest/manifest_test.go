package manifest

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func tree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range files {
		if err := afero.WriteFile(fs, "/snap/"+name, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		hint  string
		want  string
	}{
		{
			name:  "directory name",
			files: map[string]string{"skills/alpha/SKILL.md": "# alpha"},
			hint:  "alpha",
			want:  "skills/alpha",
		},
		{
			name: "lexically first directory match",
			files: map[string]string{
				"z/alpha/SKILL.md": "",
				"a/alpha/SKILL.md": "",
			},
			hint: "alpha",
			want: "a/alpha",
		},
		{
			name:  "directory match is case sensitive",
			files: map[string]string{"skills/Alpha/SKILL.md": "no frontmatter"},
			hint:  "alpha",
			want:  "",
		},
		{
			name: "frontmatter name ignoring case",
			files: map[string]string{
				"skills/one/SKILL.md": "---\nname: Other\n---\n",
				"skills/two/SKILL.md": "---\nname: ALPHA\n---\nbody\n",
			},
			hint: "alpha",
			want: "skills/two",
		},
		{
			name: "directory phase wins over frontmatter",
			files: map[string]string{
				"a/x/SKILL.md":     "---\nname: alpha\n---\n",
				"z/alpha/SKILL.md": "---\nname: something-else\n---\n",
			},
			hint: "alpha",
			want: "z/alpha",
		},
		{
			name: "malformed frontmatter skipped",
			files: map[string]string{
				"a/bad/SKILL.md":  "---\nname: [unclosed\n---\n",
				"b/good/SKILL.md": "---\nname: alpha\n---\n",
			},
			hint: "alpha",
			want: "b/good",
		},
		{
			name:  "hidden directories searched",
			files: map[string]string{".claude/skills/alpha/SKILL.md": ""},
			hint:  "alpha",
			want:  ".claude/skills/alpha",
		},
		{
			name:  "root manifest by frontmatter",
			files: map[string]string{"SKILL.md": "---\nname: alpha\n---\n"},
			hint:  "alpha",
			want:  ".",
		},
		{
			name:  "other file names ignored",
			files: map[string]string{"alpha/README.md": ""},
			hint:  "alpha",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLocator(tree(t, tt.files), "")
			got, err := l.Locate("/snap", tt.hint)
			if tt.want == "" {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("Locate() = %q, %v; want ErrNotFound", got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Locate() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestLocate_CustomFile(t *testing.T) {
	fs := tree(t, map[string]string{
		"tools/alpha/MANIFEST": "",
		"tools/beta/SKILL.md":  "",
	})
	l := NewLocator(fs, "MANIFEST")
	if got, err := l.Locate("/snap", "alpha"); err != nil || got != "tools/alpha" {
		t.Errorf("Locate(alpha) = %q, %v", got, err)
	}
	if _, err := l.Locate("/snap", "beta"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Locate(beta) error = %v, want ErrNotFound", err)
	}
}

func TestLocate_MissingRoot(t *testing.T) {
	l := NewLocator(afero.NewMemMapFs(), "")
	if _, err := l.Locate("/nowhere", "alpha"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Locate() error = %v, want filesystem error", err)
	}
}

func TestParseFrontmatter(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Metadata
		wantErr bool
	}{
		{"basic", "---\nname: alpha\ndescription: Does things\n---\n# Body", Metadata{"alpha", "Does things"}, false},
		{"crlf and bom", "\ufeff---\r\nname: alpha\r\n---\r\n", Metadata{Name: "alpha"}, false},
		{"empty header", "---\n---\nbody", Metadata{}, false},
		{"no frontmatter", "# alpha\n", Metadata{}, true},
		{"unterminated", "---\nname: alpha\n", Metadata{}, true},
		{"invalid yaml", "---\nname: [\n---\n", Metadata{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrontmatter([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFrontmatter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFrontmatter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
