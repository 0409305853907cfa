package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseBytes decodes and validates a policy document from YAML bytes,
// mirroring the original parser's parse-then-validate sequencing.
func ParseBytes(b []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Document{}, fmt.Errorf("decode policy yaml: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ParseFile reads and parses a policy document from path.
func ParseFile(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read policy file %s: %w", path, err)
	}
	return ParseBytes(b)
}

// ToYAML validates then serializes doc back to its wire form.
func ToYAML(doc Document) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// WriteFile validates, serializes, and writes doc to path.
func WriteFile(doc Document, path string) error {
	b, err := ToYAML(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
