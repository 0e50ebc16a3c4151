package llog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/invocation"
	"go.uber.org/zap"
)

type loggerKey struct{}

const (
	requestIdKeyName = "X-Request-ID"
)

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or the package default.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
		return logger
	}
	return log
}

// RequestIDHandler makes sure every call carries a request id header and
// binds a logger tagged with it into the context. An id already set by the
// caller is kept.
func RequestIDHandler(requestIdKey string) invocation.Handler {
	if requestIdKey == "" {
		requestIdKey = requestIdKeyName
	}

	return invocation.HandlerFunc(func(ctx context.Context, inv *invocation.Invocation) (any, error) {
		rid := inv.Header().Get(requestIdKey)
		if rid == "" {
			rid = uuid.New().String()
			inv = inv.WithHeader(requestIdKey, rid)
		}

		requestLogger := FromContext(ctx).With("requestId", rid)

		return inv.Proceed(WithLogger(ctx, requestLogger))
	})
}

// RequestLoggingHandler logs every call with its latency and, on failure,
// the error details. Results pass through unchanged.
func RequestLoggingHandler() invocation.Handler {
	return invocation.HandlerFunc(func(ctx context.Context, inv *invocation.Invocation) (any, error) {
		logger := FromContext(ctx)
		md := inv.Metadata()

		start := time.Now()
		resp, err := inv.Proceed(ctx)
		latency := time.Since(start)

		fields := []interface{}{
			"call", inv.Method(),
			"method", md.HTTPMethod(),
			"template", md.URLTemplate(),
			"latency", latency,
		}

		if err != nil {
			var e errors.Error
			if errors.As(err, &e) {
				fields = append(fields, "status", e.HttpStatus())
				fields = append(fields, "errCode", e.Code())
				fields = append(fields, "reason", e.Reason())
				fields = append(fields, "errMsg", e.Message())
			} else {
				fields = append(fields, "error", err.Error())
			}
			logger.Errorw("Call failed", fields...)
		} else {
			logger.Infow("Call", fields...)
		}

		return resp, err
	})
}
