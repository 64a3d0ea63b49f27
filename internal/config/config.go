// Package config loads the engine's static configuration: optimisation
// level, coroutine stack sizing, and diagnostic dump toggles. Only
// Diag.DumpIR is read outside this package (cmd/corejit, whose -dump-ir
// flag also sets it); the other fields are parsed and defaulted but
// nothing consults them. Grounded on the teacher's own TOML-based
// configuration loading.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// OptLevel names an optimisation level. internal/ir/pass does not read
// it: builder.EndFunction always runs the full pass pipeline.
type OptLevel string

const (
	OptNone OptLevel = "none"
	OptFast OptLevel = "fast"
	OptFull OptLevel = "full"
)

// EngineConfig is the root of corejit.toml.
type EngineConfig struct {
	Opt struct {
		Level OptLevel `toml:"level"`
	} `toml:"opt"`

	Coroutine struct {
		// DefaultStackSlots is a locals count for a generator/async
		// function's heap frame when the source doesn't declare a
		// tighter one (spec.md §6.4). Nothing reads it: callers of
		// CreateCoroutine pass their own count.
		DefaultStackSlots uint16 `toml:"default_stack_slots"`
	} `toml:"coroutine"`

	Diag struct {
		DumpIR     bool `toml:"dump_ir"`
		DumpAsm    bool `toml:"dump_asm"`
		Verbose    bool `toml:"verbose"`
	} `toml:"diag"`
}

// Default returns the configuration corejit runs with when no config
// file is supplied.
func Default() EngineConfig {
	var cfg EngineConfig
	cfg.Opt.Level = OptFast
	cfg.Coroutine.DefaultStackSlots = 16
	return cfg
}

// Load reads and parses path, falling back to Default() field-by-field
// for anything the file leaves unset (toml.Decode already does this for
// missing keys since EngineConfig starts from Default()).
func Load(path string) (EngineConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
