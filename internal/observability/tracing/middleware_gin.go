package tracing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/kiosk/internal/auditcontext"
	obscontext "github.com/smallbiznis/kiosk/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "kiosk/http"

// GinMiddleware opens a server span per request, named after the matched route.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)
	return func(c *gin.Context) {
		method := strings.ToUpper(c.Request.Method)
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName(method + " " + route)

		attrs := []attribute.KeyValue{
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.String("kiosk.surface", surfaceOf(route)),
		}
		reqCtx := c.Request.Context()
		if requestID := obscontext.RequestIDFromContext(reqCtx); requestID != "" {
			attrs = append(attrs, attribute.String("request_id", requestID))
		}
		if actor, ok := auditcontext.ActorFromContext(reqCtx); ok {
			attrs = append(attrs, attribute.String("kiosk.actor_type", actor.Type))
		}
		span.SetAttributes(SafeAttributes(attrs...)...)

		lastErr := c.Errors.Last()
		switch {
		case status >= http.StatusInternalServerError:
			if lastErr != nil {
				span.RecordError(SafeError(lastErr.Err))
			}
			span.SetStatus(codes.Error, "request error")
		case status >= http.StatusBadRequest && lastErr != nil:
			// client errors (stock, price, closure conflicts) are expected outcomes
			span.AddEvent("request.rejected", trace.WithAttributes(
				attribute.Int("http.status_code", status),
			))
		}
	}
}

func surfaceOf(route string) string {
	switch {
	case strings.HasPrefix(route, "/api/admin"):
		return "admin"
	case strings.HasPrefix(route, "/api/kiosk"):
		return "kiosk"
	default:
		return "ops"
	}
}
