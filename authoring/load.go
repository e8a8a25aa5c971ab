package authoring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// Load reads a Document from path, dispatching to the JSON/YAML/TOML decoder
// by file extension.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("authoring: read %s: %w", path, err)
	}

	var doc Document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("authoring: unsupported keymap format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("authoring: parse %s: %w", path, err)
	}
	return &doc, nil
}

// Save writes doc to path in the format implied by its extension.
func Save(path string, doc *Document) error {
	var data []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(doc, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(doc)
	case ".toml":
		data, err = toml.Marshal(doc)
	default:
		return fmt.Errorf("authoring: unsupported keymap format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("authoring: encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}
