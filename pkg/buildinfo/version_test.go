package buildinfo

import (
	"strings"
	"testing"
)

func TestStrings(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.2.3"

	if got := UserAgent(); got != "skillpkgs/v1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
	if got := Template(); !strings.HasPrefix(got, "{{.Name}} version v1.2.3\n") {
		t.Errorf("Template() = %q", got)
	}
	if got := String(); !strings.Contains(got, "version: v1.2.3") {
		t.Errorf("String() = %q", got)
	}
}
