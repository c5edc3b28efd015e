package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData carries the authenticated caller for the lifetime of a request.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
