// Package authoring defines the human-editable keymap document format
// (JSON/YAML/TOML, interchangeably) and compiles it into a core/keymap.Table.
package authoring

// Document is the on-disk keymap description. Layers[l][p] is the action
// string bound to position p on layer l; every layer must have the same
// length.
type Document struct {
	Layers [][]string `json:"layers" yaml:"layers" toml:"layers"`
}
