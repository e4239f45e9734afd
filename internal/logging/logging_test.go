// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type record struct {
	Message string `json:"msg"`
	OTel    struct {
		TraceID string `json:"trace_id"`
		SpanID  string `json:"span_id"`
	} `json:"otel"`
}

func TestHandler_Handle(t *testing.T) {
	t.Run("will not add trace id and span id", func(t *testing.T) {
		t.Run("if the span context is invalid", func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&buf, slog.LevelInfo, true)

			log.InfoContext(context.Background(), "test")

			var r record
			err := json.Unmarshal(buf.Bytes(), &r)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "test", r.Message) {
				return
			}
			assert.Empty(t, r.OTel.TraceID)
		})
	})

	t.Run("will add trace id and span id", func(t *testing.T) {
		t.Run("if the span context is valid", func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&buf, slog.LevelInfo, true)

			exporter, err := stdouttrace.New(stdouttrace.WithWriter(io.Discard))
			if !assert.Nil(t, err) {
				return
			}
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			defer tp.Shutdown(context.Background())

			ctx, span := tp.Tracer("logging").Start(context.Background(), "test")
			defer span.End()

			log.InfoContext(ctx, "test")

			var r record
			err = json.Unmarshal(buf.Bytes(), &r)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, span.SpanContext().TraceID().String(), r.OTel.TraceID) {
				t.Log(buf.String())
				return
			}
			assert.Equal(t, span.SpanContext().SpanID().String(), r.OTel.SpanID)
		})
	})
}

func TestNew(t *testing.T) {
	t.Run("will drop records below the level", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(&buf, slog.LevelWarn, false)

		log.Info("hidden")
		log.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestDiscard(t *testing.T) {
	log := Discard()

	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in    string
		level slog.Level
	}{
		{in: "debug", level: slog.LevelDebug},
		{in: "", level: slog.LevelInfo},
		{in: "INFO", level: slog.LevelInfo},
		{in: "warn", level: slog.LevelWarn},
		{in: "error", level: slog.LevelError},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			level, err := ParseLevel(tc.in)
			if !assert.Nil(t, err) {
				return
			}
			assert.Equal(t, tc.level, level)
		})
	}

	t.Run("will return an UnknownLevelError", func(t *testing.T) {
		_, err := ParseLevel("loud")

		var uerr UnknownLevelError
		if !assert.ErrorAs(t, err, &uerr) {
			return
		}
		assert.Equal(t, "loud", uerr.Level)
	})
}
