package source

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/matzehuels/skillpkgs/pkg/errors"
)

// ReadList reads a persisted source list. A missing file yields an empty
// list; a file that is not a JSON array of records is an error.
func ReadList(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read source list %s", path)
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse source list %s", path)
	}
	return recs, nil
}

// WriteList writes recs as a two-space indented JSON array followed by a
// newline, creating parent directories as needed.
func WriteList(path string, recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	return writeJSON(path, recs)
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
