// Package config reads rescale defaults from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Fepozopo/rescale/pkg/batch"
	"github.com/Fepozopo/rescale/pkg/resample"
)

// Environment variables understood by Load.
const (
	EnvScales    = "RESCALE_SCALES"
	EnvMethods   = "RESCALE_METHODS"
	EnvOutputDir = "RESCALE_OUTPUT_DIR"
	EnvFormat    = "RESCALE_FORMAT"
	EnvWorkers   = "RESCALE_WORKERS"
	EnvDebug     = "RESCALE_DEBUG"
	EnvPreview   = "RESCALE_PREVIEW"
	EnvLogFormat = "RESCALE_LOG_FORMAT"
)

// ErrInvalidValue is wrapped by every parse error Load returns.
var ErrInvalidValue = errors.New("config: invalid value")

// Config holds the defaults the CLI starts from before applying flags.
type Config struct {
	Scales    []float64
	Methods   []resample.Method
	OutputDir string
	// Format forces an output format; empty keeps each input's own.
	Format  string
	Workers int
	Debug   bool
	Preview bool
	// LogFormat is "text" or "json".
	LogFormat string
}

// Default returns the built-in configuration.
func Default() Config {
	methods := make([]resample.Method, len(resample.Methods))
	for i, s := range resample.Methods {
		methods[i] = s.Method
	}
	return Config{
		Scales:    append([]float64(nil), batch.DefaultScales...),
		Methods:   methods,
		OutputDir: ".",
		Workers:   runtime.NumCPU(),
		LogFormat: "text",
	}
}

// Load applies the given .env files (".env" when none are given) and then
// reads the RESCALE_* variables over the defaults. Missing .env files are
// ignored; variables already set in the environment win over .env contents.
func Load(paths ...string) (Config, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, typically os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var err error

	if v, ok := lookup(EnvScales); ok && strings.TrimSpace(v) != "" {
		if cfg.Scales, err = ParseScales(v); err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvScales, err)
		}
	}
	if v, ok := lookup(EnvMethods); ok && strings.TrimSpace(v) != "" {
		if cfg.Methods, err = ParseMethods(v); err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvMethods, err)
		}
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		cfg.OutputDir = v
	}
	if v, ok := lookup(EnvFormat); ok {
		cfg.Format = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, perr := strconv.Atoi(strings.TrimSpace(v))
		if perr != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s: %w: %q", EnvWorkers, ErrInvalidValue, v)
		}
		cfg.Workers = n
	}
	if cfg.Debug, err = boolEnv(lookup, EnvDebug); err != nil {
		return Config{}, err
	}
	if cfg.Preview, err = boolEnv(lookup, EnvPreview); err != nil {
		return Config{}, err
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		f, perr := ParseLogFormat(v)
		if perr != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogFormat, perr)
		}
		cfg.LogFormat = f
	}
	return cfg, nil
}

// boolEnv reads key as a strconv.ParseBool value. Unset or blank is false.
func boolEnv(lookup func(string) (string, bool), key string) (bool, error) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%s: %w: %q", key, ErrInvalidValue, v)
	}
	return b, nil
}

// ParseScales parses a comma separated list of positive scale factors.
func ParseScales(s string) ([]float64, error) {
	var out []float64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: scale %q", ErrInvalidValue, f)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no scales in %q", ErrInvalidValue, s)
	}
	return out, nil
}

// ParseMethods parses a comma separated list of method names or aliases.
// Duplicates are dropped, first occurrence wins.
func ParseMethods(s string) ([]resample.Method, error) {
	var out []resample.Method
	seen := make(map[resample.Method]bool)
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		m, err := resample.ParseMethod(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no methods in %q", ErrInvalidValue, s)
	}
	return out, nil
}

// ParseLogFormat accepts "text" or "json".
func ParseLogFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "text", "json":
		return f, nil
	default:
		return "", fmt.Errorf("%w: log format %q", ErrInvalidValue, s)
	}
}
