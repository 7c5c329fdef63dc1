package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/disaforms-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
	headerFormType  = "X-Form-Type"

	formTypeParam = "formType"
)

// AttachTraceContext tags every request with a trace id, a request id and,
// on per-form routes, the check sheet it addresses. Report and export
// downloads echo X-Form-Type so the shop-floor client can match a file to
// the sheet that produced it.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		span := trace.SpanFromContext(c.Request.Context())
		traceID := strings.TrimSpace(c.GetHeader(headerTraceID))
		if traceID == "" && span.SpanContext().HasTraceID() {
			traceID = span.SpanContext().TraceID().String()
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}
		form := strings.TrimSpace(c.Param(formTypeParam))

		td := &ctxutil.TraceData{TraceID: traceID, RequestID: reqID, FormType: form}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		if form != "" {
			c.Set("form_type", form)
			c.Writer.Header().Set(headerFormType, form)
			span.SetAttributes(attribute.String("disaforms.form_type", form))
		}
		c.Next()
	}
}
