package supervisor

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// SkillPreset is a named bundle of default search options, resolved before
// any per-request overrides from the caller are applied.
type SkillPreset struct {
	MovetimeMS int `toml:"movetime_ms"`
	Depth      int `toml:"depth"`
	HashMB     int `toml:"hash_mb"`
}

// Config is the supervisor's operational configuration: engine paths,
// default hash size, skill presets, and the HTTP bind address.
type Config struct {
	Server struct {
		Addr string `toml:"addr"`
	} `toml:"server"`

	Engine struct {
		Path          string `toml:"path"`
		DefaultHashMB int    `toml:"default_hash_mb"`
	} `toml:"engine"`

	Stockfish struct {
		Path       string   `toml:"path"`
		Candidates []string `toml:"candidates"`
	} `toml:"stockfish"`

	Skill map[string]SkillPreset `toml:"skill"`
}

// DefaultConfig returns the built-in configuration used when no config file
// is given, so the server is runnable with zero configuration.
func DefaultConfig() Config {
	var c Config
	c.Server.Addr = ":8080"
	c.Engine.Path = "chessd-engine"
	c.Engine.DefaultHashMB = 64
	c.Stockfish.Candidates = []string{"/usr/bin/stockfish", "/usr/local/bin/stockfish", "stockfish"}
	c.Skill = map[string]SkillPreset{
		"blitz": {MovetimeMS: 100, HashMB: 32},
		"rapid": {MovetimeMS: 800, HashMB: 64},
		"strong": {Depth: 14, HashMB: 128},
	}
	return c
}

// LoadConfig reads path as a TOML config file and overlays it onto
// DefaultConfig, so a partial file only needs to specify what it overrides.
// An empty path returns DefaultConfig unchanged. ENGINE_PATH and
// STOCKFISH_PATH, if set, always override the file's engine/stockfish paths.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		var file Config
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return Config{}, fmt.Errorf("supervisor: load config %v: %w", path, err)
		}
		overlay(&cfg, file)
	}

	if v := os.Getenv("ENGINE_PATH"); v != "" {
		cfg.Engine.Path = v
	}
	if v := os.Getenv("STOCKFISH_PATH"); v != "" {
		cfg.Stockfish.Path = v
	}
	return cfg, nil
}

// overlay copies every non-zero field of file onto cfg, leaving defaults in
// place for anything the file did not specify.
func overlay(cfg *Config, file Config) {
	if file.Server.Addr != "" {
		cfg.Server.Addr = file.Server.Addr
	}
	if file.Engine.Path != "" {
		cfg.Engine.Path = file.Engine.Path
	}
	if file.Engine.DefaultHashMB != 0 {
		cfg.Engine.DefaultHashMB = file.Engine.DefaultHashMB
	}
	if file.Stockfish.Path != "" {
		cfg.Stockfish.Path = file.Stockfish.Path
	}
	if len(file.Stockfish.Candidates) > 0 {
		cfg.Stockfish.Candidates = file.Stockfish.Candidates
	}
	for name, preset := range file.Skill {
		cfg.Skill[name] = preset
	}
}
