package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/kstaniek/grph/internal/graphcodec"
	"github.com/kstaniek/grph/internal/metrics"
	"github.com/kstaniek/grph/internal/mmapio"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, showVersion, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}
	if showVersion {
		fmt.Printf("grph %s (commit %s, built %s)\n", version, commit, date)
		return 0
	}

	l := setupLogger(cfg.logFormat, cfg.logLevel)

	var metricsSrv *http.Server
	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		metrics.SetReadinessFunc(func() bool { return true })
		metricsSrv = metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = metricsSrv.Shutdown(context.Background()) }()
	}

	in, err := mmapio.Open(cfg.inputPath)
	if err != nil {
		l.Error("input_open_error", "path", cfg.inputPath, "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(cfg.outputPath)
	if err != nil {
		l.Error("output_open_error", "path", cfg.outputPath, "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	defer func() { _ = out.Close() }()

	if cfg.serialize {
		s := graphcodec.NewSerializer(
			graphcodec.WithWriterVersion(cfg.writerVersion),
			graphcodec.WithSerializerMetrics(cfg.metricsAddr != ""),
			graphcodec.WithSerializerLogger(l),
		)
		if err := s.Serialize(in.Data, out); err != nil {
			l.Error("serialize_error", "error", err)
			fmt.Fprintln(os.Stderr, "Error:", err)
			return classifyExit(err)
		}
	} else {
		d := graphcodec.NewDeserializer(
			graphcodec.WithDeserializerMetrics(cfg.metricsAddr != ""),
			graphcodec.WithDeserializerLogger(l),
			graphcodec.WithStrictTrailer(cfg.strictTrailer),
		)
		if err := d.Deserialize(in.Data, out); err != nil {
			l.Error("deserialize_error", "error", err)
			fmt.Fprintln(os.Stderr, "Error:", err)
			return classifyExit(err)
		}
	}

	if err := out.Sync(); err != nil {
		l.Error("output_sync_error", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// classifyExit maps a codec error to a process exit code: 3 for host or
// internal faults that are not the caller's fault, 1 for everything else
// (malformed/invalid input and output write failures).
func classifyExit(err error) int {
	switch {
	case errors.Is(err, graphcodec.ErrHostEndianness), errors.Is(err, graphcodec.ErrInternal):
		return 3
	default:
		return 1
	}
}
