package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
)

type ctxKey struct{}

func ContextWithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext falls back to the slog default when ctx carries no logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// WithOperation tags every record logged through ctx with the command name
// and a short run id.
func WithOperation(ctx context.Context, operation string) context.Context {
	return withAttrs(ctx, "operation", operation, "op_id", runID())
}

func WithDomain(ctx context.Context, domain string) context.Context {
	return withAttrs(ctx, "domain", domain)
}

func withAttrs(ctx context.Context, args ...any) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With(args...))
}

func runID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
