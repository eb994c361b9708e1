package manifest

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Metadata is the YAML frontmatter of a manifest.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

var errNoFrontmatter = errors.New("no frontmatter")

// ParseFrontmatter decodes the "---" delimited YAML header at the start of
// data. A leading UTF-8 byte order mark and CRLF line endings are accepted.
func ParseFrontmatter(data []byte) (Metadata, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))

	rest, ok := bytes.CutPrefix(data, []byte("---\n"))
	if !ok {
		return Metadata{}, errNoFrontmatter
	}
	var header []byte
	if !bytes.HasPrefix(rest, []byte("---")) {
		end := bytes.Index(rest, []byte("\n---"))
		if end < 0 {
			return Metadata{}, errors.New("unterminated frontmatter")
		}
		header = rest[:end]
	}

	var meta Metadata
	if err := yaml.Unmarshal(header, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, nil
}
