package authoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alia5/kbcore/core/keycode"
	"github.com/Alia5/kbcore/core/keymap"
	"github.com/Alia5/kbcore/core/layerstack"
)

// Compile resolves a Document into an immutable keymap.Table, resolving
// keycode names via core/keycode.Lookup and validating layer bounds.
func Compile(doc *Document) (*keymap.Table, error) {
	if len(doc.Layers) == 0 {
		return nil, fmt.Errorf("authoring: document has no layers")
	}
	size := len(doc.Layers[0])
	rows := make([][]keymap.Action, len(doc.Layers))

	for l, row := range doc.Layers {
		if len(row) != size {
			return nil, fmt.Errorf("authoring: layer %d has %d positions, want %d", l, len(row), size)
		}
		actions := make([]keymap.Action, size)
		for p, spec := range row {
			action, err := parseAction(spec, len(doc.Layers))
			if err != nil {
				return nil, fmt.Errorf("authoring: layer %d position %d: %w", l, p, err)
			}
			actions[p] = action
		}
		rows[l] = actions
	}

	return keymap.NewTable(size, rows)
}

// parseAction parses one position's binding. Grammar:
//
//	"---"                        -> no-op
//	"btn:<KEYCODE NAME>"         -> plain button
//	"layer:<INDEX>"              -> momentary layer shift
//	"mt:hold=<NAME>,tap=<NAME>"  -> mod-tap; hold and tap must both be plain
//	                                keycodes, never a layer shift
func parseAction(spec string, layerCount int) (keymap.Action, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "---" {
		return keymap.None(), nil
	}

	kind, rest, ok := strings.Cut(spec, ":")
	if !ok {
		return keymap.Action{}, fmt.Errorf("malformed action %q", spec)
	}

	switch kind {
	case "btn":
		code, ok := keycode.Lookup(rest)
		if !ok {
			return keymap.Action{}, fmt.Errorf("unknown keycode %q", rest)
		}
		return keymap.Button(code), nil

	case "layer":
		idx, err := strconv.Atoi(rest)
		if err != nil {
			return keymap.Action{}, fmt.Errorf("invalid layer index %q", rest)
		}
		if idx < 0 || idx >= layerCount {
			return keymap.Action{}, fmt.Errorf("layer index %d out of range [0,%d)", idx, layerCount)
		}
		return keymap.LayerAction(layerstack.Layer(idx)), nil

	case "mt":
		hold, tap, err := parseModTapArgs(rest)
		if err != nil {
			return keymap.Action{}, err
		}
		holdCode, ok := keycode.Lookup(hold)
		if !ok {
			return keymap.Action{}, fmt.Errorf("mod-tap hold: unknown keycode %q (mod-tap hold must be a plain keycode, never a layer shift)", hold)
		}
		tapCode, ok := keycode.Lookup(tap)
		if !ok {
			return keymap.Action{}, fmt.Errorf("mod-tap tap: unknown keycode %q", tap)
		}
		return keymap.ModTap(holdCode, tapCode), nil

	default:
		return keymap.Action{}, fmt.Errorf("unknown action kind %q", kind)
	}
}

func parseModTapArgs(rest string) (hold, tap string, err error) {
	for _, field := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			return "", "", fmt.Errorf("malformed mod-tap field %q", field)
		}
		switch strings.TrimSpace(key) {
		case "hold":
			hold = strings.TrimSpace(value)
		case "tap":
			tap = strings.TrimSpace(value)
		default:
			return "", "", fmt.Errorf("unknown mod-tap field %q", key)
		}
	}
	if hold == "" || tap == "" {
		return "", "", fmt.Errorf("mod-tap requires both hold= and tap=")
	}
	return hold, tap, nil
}
