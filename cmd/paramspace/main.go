// SPDX-License-Identifier: MIT

// Command paramspace loads a parameter schema, applies adjustment files in
// order and writes the resulting values as JSON.
//
// Usage:
//
//	paramspace [options] [SCHEMA_PATH]
//	paramspace -config paramspace.toml -adjust reform.json -state year=2019
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/katalvlaran/paramspace/params"
	"github.com/katalvlaran/paramspace/schema"
	"github.com/rs/zerolog"
)

// exitError carries a process exit code.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run is main without the process exit, for tests.
func run(stdout, stderr io.Writer, args []string) error {
	cfg, exit, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	if exit {
		return nil
	}
	log := initLogger(stderr, cfg.LogLevel)

	sch, err := loadSchema(cfg.Schema)
	if err != nil {
		return err
	}
	p, err := params.New(sch, cfg.options(log)...)
	if err != nil {
		return fmt.Errorf("paramspace: %s: %w", cfg.Schema, err)
	}
	logWarnings(log, cfg.Schema, p)

	for _, path := range cfg.Adjustments {
		if err = applyAdjustment(p, path, cfg.adjustOptions()); err != nil {
			return err
		}
		logWarnings(log, path, p)
		log.Info().Str("file", path).Msg("adjustment applied")
	}

	w, closeFn, err := openOutput(stdout, cfg.Output)
	if err != nil {
		return err
	}
	if err = write(w, p, cfg.State); err != nil {
		_ = closeFn()

		return err
	}

	return closeFn()
}

// parseArgs resolves the configuration: defaults, then the -config file,
// then every flag given on the command line.
func parseArgs(args []string, output io.Writer) (Config, bool, error) {
	fs := flag.NewFlagSet("paramspace", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
paramspace - validate, adjust and extend labeled parameter sets.

Usage:
  paramspace [options] [SCHEMA_PATH]

Arguments:
  SCHEMA_PATH
    Defaults file, .json or .hcl. Overrides "schema" of the config file.

Options:
`)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Path to a paramspace.toml file.")
	schemaPath := fs.String("schema", "", "Path to the defaults file.")
	outPath := fs.String("o", "", "Output file; '-' writes to stdout.")
	logLevel := fs.String("log-level", "", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	labelToExtend := fs.String("label-to-extend", "", "Label to extend along; overrides the schema operator.")
	strict := fs.Bool("warnings-as-errors", false, "Reject adjustments that raise warnings.")
	var adjustments []string
	fs.Func("adjust", "Adjustment file to apply (repeatable).", func(v string) error {
		adjustments = append(adjustments, v)

		return nil
	})
	state := params.State{}
	fs.Func("state", "Restrict output to label=value[,value...] (repeatable).", func(v string) error {
		label, vals, ok := strings.Cut(v, "=")
		if !ok || label == "" || vals == "" {
			return fmt.Errorf("want label=value[,value...], got %q", v)
		}
		for _, s := range strings.Split(vals, ",") {
			state[label] = append(state[label], s)
		}

		return nil
	})

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, true, nil
		}

		return Config{}, false, usageError("%s", err.Error())
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			return Config{}, false, err
		}
		cfg = loaded
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["schema"] {
		cfg.Schema = *schemaPath
	} else if fs.NArg() > 0 {
		cfg.Schema = fs.Arg(0)
	}
	if set["adjust"] {
		cfg.Adjustments = adjustments
	}
	if set["state"] {
		cfg.State = state
	}
	if set["o"] {
		cfg.Output = *outPath
	}
	if set["log-level"] {
		cfg.LogLevel = strings.ToLower(*logLevel)
	}
	if set["label-to-extend"] {
		cfg.LabelToExtend = labelToExtend
	}
	if set["warnings-as-errors"] {
		cfg.WarningsAsErrors = *strict
	}

	if cfg.Schema == "" && *configPath == "" {
		fs.Usage()

		return Config{}, true, nil
	}
	if err := cfg.validate(); err != nil {
		return Config{}, false, usageError("%s", err.Error())
	}

	return cfg, false, nil
}

// initLogger builds the console logger the command reports progress on.
func initLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "paramspace").Logger()
}

func loadSchema(path string) (*schema.Schema, error) {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("paramspace: %w", err)
		}
		sch, err := schema.LoadHCL(path, src)
		if err != nil {
			return nil, fmt.Errorf("paramspace: %s: %w", path, err)
		}

		return sch, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("paramspace: %w", err)
	}
	defer f.Close()
	sch, err := schema.LoadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("paramspace: %s: %w", path, err)
	}

	return sch, nil
}

func applyAdjustment(p *params.Parameters, path string, opts []params.AdjustOption) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("paramspace: %w", err)
	}
	defer f.Close()
	adj, err := schema.LoadAdjustment(f)
	if err != nil {
		return fmt.Errorf("paramspace: %s: %w", path, err)
	}
	if _, err = p.Adjust(adj, opts...); err != nil {
		return fmt.Errorf("paramspace: %s: %w", path, err)
	}

	return nil
}

// logWarnings reports the warnings of the last mutation of p.
func logWarnings(log zerolog.Logger, source string, p *params.Parameters) {
	for name, msgs := range p.Warnings() {
		for _, m := range msgs {
			log.Warn().Str("file", source).Str("param", name).Msg(m)
		}
	}
}

func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("paramspace: %w", err)
	}

	return f, f.Close, nil
}

// write dumps the full instance, or only the specification matching st when
// a state is given.
func write(w io.Writer, p *params.Parameters, st params.State) error {
	if len(st) == 0 {
		return p.Dump(w)
	}
	spec, err := p.Specification(st, params.Sorted())
	if err != nil {
		return fmt.Errorf("paramspace: %w", err)
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("paramspace: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)

	return err
}
