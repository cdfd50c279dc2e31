package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type config struct {
	SchemaDir   string
	OutDir      string
	ModulePath  string
	Package     string
	Exclude     []string
	Parallelism int
	Debug       bool
}

func defaultConfig() config {
	return config{
		SchemaDir: "abi/schemas",
		OutDir:    "abi",
	}
}

type fileConfig struct {
	SchemaDir   string   `toml:"schema_dir"`
	OutDir      string   `toml:"out_dir"`
	ModulePath  string   `toml:"module_path"`
	Package     string   `toml:"package"`
	Exclude     []string `toml:"exclude"`
	Parallelism int      `toml:"parallelism"`
	LogLevel    string   `toml:"log_level"`
}

// loadConfig applies the keys present in the TOML file at path on top of
// cfg. Absent keys keep their current value.
func loadConfig(path string, cfg config) (config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load tlbgen config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load tlbgen config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("schema_dir") {
		cfg.SchemaDir = strings.TrimSpace(raw.SchemaDir)
	}
	if meta.IsDefined("out_dir") {
		cfg.OutDir = strings.TrimSpace(raw.OutDir)
	}
	if meta.IsDefined("module_path") {
		cfg.ModulePath = strings.TrimSpace(raw.ModulePath)
	}
	if meta.IsDefined("package") {
		cfg.Package = strings.TrimSpace(raw.Package)
	}
	if meta.IsDefined("exclude") {
		cfg.Exclude = normalizeList(raw.Exclude)
	}
	if meta.IsDefined("parallelism") {
		if raw.Parallelism < 0 {
			return config{}, fmt.Errorf("parse parallelism: %d is negative", raw.Parallelism)
		}
		cfg.Parallelism = raw.Parallelism
	}
	if meta.IsDefined("log_level") {
		switch level := strings.ToLower(strings.TrimSpace(raw.LogLevel)); level {
		case "debug":
			cfg.Debug = true
		case "info", "":
			cfg.Debug = false
		default:
			return config{}, fmt.Errorf("parse log_level: unknown level %q", level)
		}
	}
	return cfg, nil
}

// normalizeList splits comma-separated items and drops blanks.
func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, v := range strings.Split(item, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
