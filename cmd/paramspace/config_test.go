package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "paramspace.toml", `
schema = "defaults.json"
adjustments = ["reform.json", "/srv/extra.json"]
label_to_extend = " year "
uses_extend_func = true
log_level = "DEBUG"
output = "out.json"
warnings_as_errors = true

[index_rates]
2018 = 0.02
2019 = 0.03

[state]
year = [2019, 2020]
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "defaults.json"), cfg.Schema)
	assert.Equal(t, []string{filepath.Join(dir, "reform.json"), "/srv/extra.json"}, cfg.Adjustments)
	require.NotNil(t, cfg.LabelToExtend)
	assert.Equal(t, "year", *cfg.LabelToExtend)
	require.NotNil(t, cfg.UsesExtendFunc)
	assert.True(t, *cfg.UsesExtendFunc)
	assert.Nil(t, cfg.ArrayFirst)
	assert.Equal(t, map[string]float64{"2018": 0.02, "2019": 0.03}, cfg.IndexRates)
	assert.Equal(t, []any{int64(2019), int64(2020)}, cfg.State["year"])
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "out.json"), cfg.Output)
	assert.True(t, cfg.WarningsAsErrors)
	assert.True(t, cfg.SortValues, "default kept")

	require.NoError(t, cfg.validate())
	// logger, sort values, label to extend, extend func, rates
	assert.Len(t, cfg.options(zerolog.Nop()), 5)
	assert.Len(t, cfg.adjustOptions(), 1)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "paramspace.toml", `schema = "/abs/defaults.hcl"`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	want := DefaultConfig()
	want.Schema = "/abs/defaults.hcl"
	assert.Equal(t, want, cfg)
	assert.Len(t, cfg.options(zerolog.Nop()), 2)
	assert.Empty(t, cfg.adjustOptions())
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadConfig(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)

	bad := writeFile(t, dir, "bad.toml", `schema = `)
	_, err = loadConfig(bad)
	require.Error(t, err)

	unknown := writeFile(t, dir, "unknown.toml", "schema = \"a.json\"\nlabel_to_extnd = \"year\"\n")
	_, err = loadConfig(unknown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label_to_extnd")
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"no schema", func(c *Config) { c.Schema = " " }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"empty rates", func(c *Config) { c.IndexRates = map[string]float64{} }, true},
		{"nan rate", func(c *Config) { c.IndexRates = map[string]float64{"2018": math.NaN()} }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Schema = "defaults.json"
			tc.mutate(&cfg)
			if tc.wantErr {
				require.Error(t, cfg.validate())

				return
			}
			require.NoError(t, cfg.validate())
		})
	}
}
