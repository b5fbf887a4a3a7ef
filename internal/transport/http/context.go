package http

import (
	"context"

	"identity/internal/domain"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

func withIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFrom returns the identity resolved for this request, or nil when
// the pipeline degraded to anonymous mode.
func IdentityFrom(ctx context.Context) *domain.Identity {
	if id, ok := ctx.Value(ctxKeyIdentity).(*domain.Identity); ok {
		return id
	}
	return nil
}

// DeviceIDFrom returns the resolved device ID, or "" when unresolved.
func DeviceIDFrom(ctx context.Context) string {
	if id := IdentityFrom(ctx); id != nil {
		return id.DeviceID
	}
	return ""
}
