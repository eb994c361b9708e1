package snapshot

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/spf13/afero"
)

// narString encodes s the way NAR does: length, bytes, zero padding to 8.
func narString(buf *bytes.Buffer, s string) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
	buf.Write(n[:])
	buf.WriteString(s)
	if r := len(s) % 8; r != 0 {
		buf.Write(make([]byte, 8-r))
	}
}

func TestWriteNAR_SingleFileDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/root/SKILL.md", []byte("hello"), 0o644)

	var got bytes.Buffer
	if err := WriteNAR(&got, fs, "/root"); err != nil {
		t.Fatalf("WriteNAR() error: %v", err)
	}

	var want bytes.Buffer
	for _, s := range []string{
		"nix-archive-1", "(", "type", "directory",
		"entry", "(", "name", "SKILL.md", "node",
		"(", "type", "regular", "contents", "hello", ")",
		")", ")",
	} {
		narString(&want, s)
	}
	if !bytes.Equal(got.Bytes(), want.Bytes()) {
		t.Errorf("NAR mismatch:\n got %x\nwant %x", got.Bytes(), want.Bytes())
	}
}

func TestHashTree(t *testing.T) {
	build := func(root string, execMode bool, content string) (afero.Fs, string) {
		fs := afero.NewMemMapFs()
		mode := 0o644
		if execMode {
			mode = 0o755
		}
		afero.WriteFile(fs, root+"/skills/alpha/SKILL.md", []byte(content), 0o644)
		afero.WriteFile(fs, root+"/bin/run.sh", []byte("#!/bin/sh\n"), 0o644)
		fs.Chmod(root+"/bin/run.sh", fsMode(mode))
		return fs, root
	}

	base, err := HashTree(build("/a", false, "x"))
	if err != nil {
		t.Fatalf("HashTree() error: %v", err)
	}
	if len(base) != len("sha256-")+44 || base[:7] != "sha256-" {
		t.Errorf("HashTree() = %q, want SRI sha256", base)
	}

	if other, _ := HashTree(build("/b", false, "x")); other != base {
		t.Error("hash must not depend on the root directory name")
	}
	if other, _ := HashTree(build("/a", true, "x")); other == base {
		t.Error("executable bit must change the hash")
	}
	if other, _ := HashTree(build("/a", false, "y")); other == base {
		t.Error("content must change the hash")
	}
}
