// Package tracing installs the OpenTelemetry tracer provider. Spans are
// written as JSON lines to a file.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/zjrosen/eartrainer/internal/log"
)

// ServiceName identifies eartrainer spans.
const ServiceName = "eartrainer"

// Config configures Init.
type Config struct {
	Enabled bool
	File    string
	Version string
}

// Init installs a global tracer provider exporting to cfg.File. When
// tracing is disabled it installs nothing and the returned shutdown is a
// no-op.
func Init(cfg Config) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0750); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // path comes from config
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}

	tp, err := NewProvider(f, cfg.Version)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	otel.SetTracerProvider(tp)
	log.Debug(log.CatConfig, "Tracing enabled", "file", cfg.File)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}

// NewProvider builds a provider that batches spans to w.
func NewProvider(w io.Writer, version string) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}
