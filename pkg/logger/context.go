package logger

import (
	"context"
	"maps"
	"slices"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// from returns the logger bound to ctx, or the root logger.
func (l *Logger) from(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if bound, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return bound
		}
	}
	return &l.root
}

func (l *Logger) bind(ctx context.Context, zc zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	bound := zc.Logger()
	return context.WithValue(ctx, ctxKey{}, &bound)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.bind(ctx, l.from(ctx).With().Interface(key, value))
}

// WithFields attaches fields in key order so entries are stable across runs.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	zc := l.from(ctx).With()
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		zc = zc.Interface(key, fields[key])
	}
	return l.bind(ctx, zc)
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.bind(ctx, l.from(ctx).With().Str("request_id", requestID))
}

// WithAccountID tags entries with the telegram id of the acting end user.
func (l *Logger) WithAccountID(ctx context.Context, accountID int64) context.Context {
	return l.bind(ctx, l.from(ctx).With().Int64("account_id", accountID))
}

func (l *Logger) WithActorRole(ctx context.Context, role string) context.Context {
	return l.bind(ctx, l.from(ctx).With().Str("actor_role", role))
}
