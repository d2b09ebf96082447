// Command romgo builds POD bases and applies them to snapshot data.
//
//	romgo --root ./run build --mesh-dir mesh --data-dir fom --data-root state \
//	    --nvars 4 --basis-dir trial --center init_cond --norm one --modes 20
//	romgo --root ./run energy --basis-dir trial
//	romgo run job.yaml
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/hupe1980/romgo"
	"github.com/hupe1980/romgo/artifact"
	rompro "github.com/hupe1980/romgo/metrics/prometheus"
)

// env is the state shared by all commands of one invocation.
type env struct {
	rom      *romgo.ROM
	registry *prometheus.Registry
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "romgo:", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{}
	return &cli.App{
		Name:      "romgo",
		Usage:     "POD reduced-order bases for snapshot data",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "storage", Value: "local", Usage: "blob store backend: local, minio or s3", EnvVars: []string{"ROMGO_STORAGE"}},
			&cli.StringFlag{Name: "root", Value: ".", Usage: "root directory of the local backend"},
			&cli.StringFlag{Name: "endpoint", Usage: "endpoint of the minio or s3 backend", EnvVars: []string{"ROMGO_ENDPOINT"}},
			&cli.StringFlag{Name: "bucket", Usage: "bucket of the minio or s3 backend", EnvVars: []string{"ROMGO_BUCKET"}},
			&cli.StringFlag{Name: "prefix", Usage: "key prefix inside the bucket"},
			&cli.StringFlag{Name: "region", Usage: "bucket region"},
			&cli.BoolFlag{Name: "secure", Usage: "use TLS for the minio backend"},
			&cli.StringFlag{Name: "access-key", EnvVars: []string{"MINIO_ACCESS_KEY"}},
			&cli.StringFlag{Name: "secret-key", EnvVars: []string{"MINIO_SECRET_KEY"}},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: "log-json", Usage: "log in JSON"},
			&cli.IntFlag{Name: "concurrency", Value: 1, Usage: "domains processed at once"},
			&cli.StringFlag{Name: "compression", Value: "none", Usage: "compression of written files: none, lz4 or zstd"},
			&cli.StringFlag{Name: "metrics-file", Usage: "write Prometheus metrics to this file on exit"},
		},
		Before: func(c *cli.Context) error {
			if c.Args().First() == "run" {
				return nil
			}
			return e.setup(c.Context, globalConfig(c), c.Bool("log-json"), stderr)
		},
		After: func(c *cli.Context) error {
			path := c.String("metrics-file")
			if path == "" || e.registry == nil {
				return nil
			}
			return prometheus.WriteToTextfile(path, e.registry)
		},
		Commands: []*cli.Command{
			buildCommand(e),
			reconstructCommand(e),
			projectCommand(e),
			energyCommand(e),
			runCommand(e, stderr),
		},
	}
}

// globalConfig collects the global flags into a job config without steps.
func globalConfig(c *cli.Context) *romgo.JobConfig {
	return &romgo.JobConfig{
		Storage: romgo.StorageConfig{
			Backend:   c.String("storage"),
			Root:      c.String("root"),
			Endpoint:  c.String("endpoint"),
			Bucket:    c.String("bucket"),
			Prefix:    c.String("prefix"),
			Region:    c.String("region"),
			Secure:    c.Bool("secure"),
			AccessKey: c.String("access-key"),
			SecretKey: c.String("secret-key"),
		},
		LogLevel:    c.String("log-level"),
		Concurrency: c.Int("concurrency"),
		Compression: c.String("compression"),
	}
}

// setup opens the blob store and creates the ROM handle.
func (e *env) setup(ctx context.Context, cfg *romgo.JobConfig, logJSON bool, stderr io.Writer) error {
	var level slog.Level
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(stderr, opts)
	if logJSON {
		handler = slog.NewJSONHandler(stderr, opts)
	}

	compression, err := artifact.ParseCompression(cfg.Compression)
	if err != nil {
		return err
	}

	blobs, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	e.registry = prometheus.NewRegistry()
	collector, err := rompro.NewCollector(e.registry)
	if err != nil {
		return err
	}

	e.rom = romgo.New(blobs,
		romgo.WithLogger(romgo.NewLogger(handler)),
		romgo.WithMetricsCollector(collector),
		romgo.WithConcurrency(cfg.Concurrency),
		romgo.WithCompression(compression),
	)
	return nil
}
