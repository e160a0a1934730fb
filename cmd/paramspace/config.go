// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/katalvlaran/paramspace/params"
	"github.com/rs/zerolog"
)

// Config is the resolved paramspace run configuration.
type Config struct {
	// Schema is the defaults file, .json or .hcl.
	Schema string
	// Adjustments are applied in order, each as one Adjust call.
	Adjustments []string
	// State narrows the output to a specification of matching entries.
	State params.State
	// Operator overrides; nil keeps the schema's value.
	LabelToExtend  *string
	UsesExtendFunc *bool
	ArrayFirst     *bool
	IndexRates     map[string]float64

	SortValues       bool
	WarningsAsErrors bool
	LogLevel         string
	// Output is a file path, "-" for stdout.
	Output string
}

// DefaultConfig returns the settings used when no file or flag overrides them.
func DefaultConfig() Config {
	return Config{
		SortValues: true,
		LogLevel:   "info",
		Output:     "-",
	}
}

// paramspace.toml key mapping to Config.
type fileConfig struct {
	Schema           string             `toml:"schema"`
	Adjustments      []string           `toml:"adjustments"`
	State            map[string][]any   `toml:"state"`
	LabelToExtend    string             `toml:"label_to_extend"`
	UsesExtendFunc   bool               `toml:"uses_extend_func"`
	ArrayFirst       bool               `toml:"array_first"`
	IndexRates       map[string]float64 `toml:"index_rates"`
	SortValues       bool               `toml:"sort_values"`
	WarningsAsErrors bool               `toml:"warnings_as_errors"`
	LogLevel         string             `toml:"log_level"`
	Output           string             `toml:"output"`
}

// loadConfig overlays the TOML file at path on DefaultConfig. Relative file
// paths inside it resolve against the file's directory.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load paramspace config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load paramspace config: unknown key %q", undecoded[0].String())
	}
	base := filepath.Dir(path)

	if meta.IsDefined("schema") {
		cfg.Schema = resolvePath(base, raw.Schema)
	}
	if meta.IsDefined("adjustments") {
		cfg.Adjustments = nil
		for _, a := range raw.Adjustments {
			cfg.Adjustments = append(cfg.Adjustments, resolvePath(base, a))
		}
	}
	if meta.IsDefined("state") {
		cfg.State = params.State(raw.State)
	}
	if meta.IsDefined("label_to_extend") {
		label := strings.TrimSpace(raw.LabelToExtend)
		cfg.LabelToExtend = &label
	}
	if meta.IsDefined("uses_extend_func") {
		cfg.UsesExtendFunc = &raw.UsesExtendFunc
	}
	if meta.IsDefined("array_first") {
		cfg.ArrayFirst = &raw.ArrayFirst
	}
	if meta.IsDefined("index_rates") {
		cfg.IndexRates = raw.IndexRates
	}
	if meta.IsDefined("sort_values") {
		cfg.SortValues = raw.SortValues
	}
	if meta.IsDefined("warnings_as_errors") {
		cfg.WarningsAsErrors = raw.WarningsAsErrors
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}
	if meta.IsDefined("output") {
		cfg.Output = strings.TrimSpace(raw.Output)
		if cfg.Output != "-" {
			cfg.Output = resolvePath(base, cfg.Output)
		}
	}

	return cfg, nil
}

func resolvePath(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(base, p)
}

// validate checks the settings that loaders and flags cannot.
func (c Config) validate() error {
	if strings.TrimSpace(c.Schema) == "" {
		return fmt.Errorf("config: schema path is required")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	if c.IndexRates != nil && len(c.IndexRates) == 0 {
		return fmt.Errorf("config: index_rates is empty")
	}
	for k, r := range c.IndexRates {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("config: index rate %s=%v is not finite", k, r)
		}
	}

	return nil
}

// options maps the configuration onto params options.
func (c Config) options(log zerolog.Logger) []params.Option {
	opts := []params.Option{
		params.WithLogger(log),
		params.WithSortValues(c.SortValues),
	}
	if c.LabelToExtend != nil {
		opts = append(opts, params.WithLabelToExtend(*c.LabelToExtend))
	}
	if c.UsesExtendFunc != nil {
		opts = append(opts, params.WithUsesExtendFunc(*c.UsesExtendFunc))
	}
	if c.ArrayFirst != nil {
		opts = append(opts, params.WithArrayFirst(*c.ArrayFirst))
	}
	if len(c.IndexRates) > 0 {
		rates := make(map[any]float64, len(c.IndexRates))
		for k, r := range c.IndexRates {
			rates[k] = r
		}
		opts = append(opts, params.WithIndexRates(rates))
	}

	return opts
}

// adjustOptions maps the configuration onto per-adjustment options.
func (c Config) adjustOptions() []params.AdjustOption {
	if c.WarningsAsErrors {
		return []params.AdjustOption{params.WarningsAsErrors()}
	}

	return nil
}
