// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/z5labs/propedit/internal/slogfield"
)

// Masked replaces the value of a sensitive property in log records.
const Masked = "****"

var secretWords = []string{"password", "passwd", "secret", "token", "credential", "apikey", "api_key", "private"}

// SecretKey reports whether a property key looks like it holds a secret.
func SecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, w := range secretWords {
		if strings.Contains(key, w) {
			return true
		}
	}
	return false
}

// MaskHandler is an slog.Handler which masks the property value of any
// record whose property key is matched by its secret func.
type MaskHandler struct {
	slog   slog.Handler
	secret func(string) bool

	// set once WithAttrs was given a secret property key
	masking bool
}

// NewMaskHandler wraps h. A nil secret defaults to [SecretKey].
func NewMaskHandler(h slog.Handler, secret func(string) bool) *MaskHandler {
	if secret == nil {
		secret = SecretKey
	}
	return &MaskHandler{slog: h, secret: secret}
}

// Enabled implements the slog.Handler interface.
func (h *MaskHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the slog.Handler interface.
func (h *MaskHandler) Handle(ctx context.Context, record slog.Record) error {
	mask := h.masking
	record.Attrs(func(a slog.Attr) bool {
		if a.Key == slogfield.KeyName && h.secret(a.Value.String()) {
			mask = true
			return false
		}
		return true
	})
	if !mask {
		return h.slog.Handle(ctx, record)
	}

	r := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(h.mask(a))
		return true
	})
	return h.slog.Handle(ctx, r)
}

func (h *MaskHandler) mask(a slog.Attr) slog.Attr {
	if a.Key != slogfield.ValueName {
		return a
	}
	return slog.String(a.Key, Masked)
}

// WithAttrs implements the slog.Handler interface.
func (h *MaskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masking := h.masking
	for _, a := range attrs {
		if a.Key == slogfield.KeyName && h.secret(a.Value.String()) {
			masking = true
		}
	}

	nattrs := attrs
	if masking {
		nattrs = make([]slog.Attr, len(attrs))
		for i, a := range attrs {
			nattrs[i] = h.mask(a)
		}
	}
	return &MaskHandler{
		slog:    h.slog.WithAttrs(nattrs),
		secret:  h.secret,
		masking: masking,
	}
}

// WithGroup implements the slog.Handler interface.
func (h *MaskHandler) WithGroup(name string) slog.Handler {
	return &MaskHandler{
		slog:    h.slog.WithGroup(name),
		secret:  h.secret,
		masking: h.masking,
	}
}
