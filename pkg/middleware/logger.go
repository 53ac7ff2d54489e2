package middleware

import (
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appcontext "github.com/Ramsey-B/sage/pkg/context"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Logger emits one structured line per request once the handler has
// run. The request id and remote ip come from the Context middleware,
// so it must be mounted first.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			ctx := req.Context()

			entry := logger.WithContext(ctx).WithFields(map[string]any{
				"request_id": appcontext.GetRequestID(ctx),
				"trace_id":   tracing.GetTraceID(ctx),
				"method":     req.Method,
				"route":      c.Path(),
				"uri":        req.RequestURI,
				"status":     res.Status,
				"remote_ip":  appcontext.GetRemoteIP(ctx),
				"latency_ms": time.Since(start).Milliseconds(),
				"bytes_out":  res.Size,
			})

			switch {
			case res.Status >= 500:
				entry.Error("request failed")
			case res.Status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request served")
			}

			return nil
		}
	}
}
