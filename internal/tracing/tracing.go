// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package tracing installs the OpenTelemetry tracer provider used when
// tracing is enabled from the command line.
package tracing

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Config
type Config struct {
	ServiceName string
	Out         io.Writer
}

// Option
type Option func(*Config)

// ServiceName
func ServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// Out sets where finished spans are written. Defaults to os.Stderr.
func Out(w io.Writer) Option {
	return func(c *Config) {
		c.Out = w
	}
}

// Local installs a global tracer provider which exports spans, as pretty
// printed JSON, to the configured writer. The returned func flushes any
// pending spans and must be called before exiting.
func Local(ctx context.Context, opts ...Option) (func(context.Context) error, error) {
	cfg := Config{
		ServiceName: "propedit",
		Out:         os.Stderr,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(cfg.Out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
