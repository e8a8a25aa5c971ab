// Package config defines the CLI surface: the kong command tree, bound to
// configuration layered from JSON/YAML/TOML files under flags and env vars,
// exactly the precedence cmd/kbcore sets up via kong.Configuration.
package config

// CLI is the top-level command struct kong parses flags/config into.
type CLI struct {
	Log Log `embed:"" prefix:"log-"`

	Run Run `cmd:"" default:"withargs" help:"Scan the key matrix, run the keymap, and serve the assembled report over USB-IP and the monitor stream."`
}

// Log controls internal/log's SetupLogger call.
type Log struct {
	Level   string `help:"Log level: trace, debug, info, warn, error." default:"info"`
	File    string `help:"Also write logs to this file." type:"path"`
	RawFile string `help:"Write raw USB-IP wire traffic to this file (trace diagnostics)." type:"path"`
}
