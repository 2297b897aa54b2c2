package logging

import (
	"context"

	"github.com/charmbracelet/log"
)

// WithLogger attaches logger to ctx under charmbracelet/log's context key,
// so log.FromContext finds it too.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return log.WithContext(ctx, logger)
}

// FromContext returns the logger attached to ctx. Unlike log.FromContext it
// falls back to this package's default logger.
func FromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(log.ContextKey).(*log.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

// WithFields derives a child of the context's logger carrying keyvals and
// attaches it to the returned context.
func WithFields(ctx context.Context, keyvals ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(keyvals...))
}
