package ctxutil

import "context"

type traceDataKey struct{}

// TraceData identifies a request across logs, spans and the response
// headers. FormType is empty outside the /api/forms/:formType routes.
type TraceData struct {
	TraceID   string
	RequestID string
	FormType  string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// FormTypeFrom is the check sheet the request addresses, or "".
func FormTypeFrom(ctx context.Context) string {
	if td := GetTraceData(ctx); td != nil {
		return td.FormType
	}
	return ""
}
