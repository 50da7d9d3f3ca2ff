package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type appConfig struct {
	serialize     bool
	deserialize   bool
	inputPath     string
	outputPath    string
	logFormat     string
	logLevel      string
	metricsAddr   string
	writerVersion int
	strictTrailer bool
}

func parseFlags(args []string) (*appConfig, bool, error) {
	fs := flag.NewFlagSet("grph", flag.ContinueOnError)
	cfg := &appConfig{}
	serializeMode := fs.Bool("s", false, "Serialize mode: TSV edge list -> binary")
	deserializeMode := fs.Bool("d", false, "Deserialize mode: binary -> TSV edge list")
	inputPath := fs.String("i", "", "Input file path (required)")
	outputPath := fs.String("o", "", "Output file path (required)")
	logFormat := fs.String("log-format", "text", "Log format: text|json")
	logLevel := fs.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := fs.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	writerVersion := fs.Int("writer-version", 2, "Binary header version to emit when serializing: 1|2")
	strictTrailer := fs.Bool("strict-trailer", false, "Deserialize: reject trailing bytes after the loop section")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	setFlags := map[string]struct{}{}
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.serialize = *serializeMode
	cfg.deserialize = *deserializeMode
	cfg.inputPath = *inputPath
	cfg.outputPath = *outputPath
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.writerVersion = *writerVersion
	cfg.strictTrailer = *strictTrailer

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		return nil, *showVersion, err
	}
	if *showVersion {
		return cfg, true, nil
	}
	if err := cfg.validate(); err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

// validate performs semantic validation of the parsed configuration. It
// does not touch the filesystem.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.serialize == c.deserialize {
		return errors.New("exactly one of -s or -d must be given")
	}
	if c.inputPath == "" {
		return errors.New("-i is required")
	}
	if c.outputPath == "" {
		return errors.New("-o is required")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.writerVersion != 1 && c.writerVersion != 2 {
		return fmt.Errorf("invalid writer-version: %d", c.writerVersion)
	}
	return nil
}

// applyEnvOverrides maps GRPH_* environment variables onto config fields
// unless the corresponding flag was explicitly set.
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }

	if _, ok := set["log-format"]; !ok {
		if v, ok := get("GRPH_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("GRPH_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("GRPH_METRICS_ADDR"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["writer-version"]; !ok {
		if v, ok := get("GRPH_WRITER_VERSION"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.writerVersion = n
			} else {
				firstErr = fmt.Errorf("invalid GRPH_WRITER_VERSION: %w", err)
			}
		}
	}
	return firstErr
}
