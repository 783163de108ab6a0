package http

import "context"

type contextKey string

const (
	requestIDContextKey contextKey = "newsrecs/request-id"
	editorContextKey    contextKey = "newsrecs/editor"
)

// RequestIDFromContext extracts the request identifier from the context when available.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDContextKey).(string); ok {
		return value
	}
	return ""
}

func withEditor(ctx context.Context, editor string) context.Context {
	return context.WithValue(ctx, editorContextKey, editor)
}

// EditorFromContext returns the authenticated editor of the request, if any.
func EditorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(editorContextKey).(string); ok {
		return value
	}
	return ""
}
