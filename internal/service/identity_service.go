package service

import (
	"context"
	"encoding/json"

	"identity/internal/domain"
	"identity/internal/fingerprint"
)

// Resolution is the typed outcome of identity resolution. Callers handle
// the degraded "no identity" case through the error return instead of a
// thrown exception; a Resolution always carries an identity.
type Resolution struct {
	Identity *domain.Identity
	New      bool
	// Source records how the identity was found: "cookie", "fingerprint"
	// or "created".
	Source string
}

// Stats is the aggregate identity report.
type Stats struct {
	TotalIdentities  int64 `json:"totalIdentities"`
	ActiveLast24h    int64 `json:"activeLast24h"`
	CreatedLast24h   int64 `json:"createdLast24h"`
	CreatedLastNDays int64 `json:"createdLastNDays"`
	Days             int   `json:"days"`
}

// IdentityService resolves anonymous principals and owns every durable
// per-identity operation.
type IdentityService interface {
	// Resolve applies the cookie → fingerprint → create chain. Any store
	// failure is surfaced as an error; the caller decides whether to
	// degrade or reject.
	Resolve(ctx context.Context, cookieValue string, feats fingerprint.Features) (Resolution, error)

	Get(ctx context.Context, deviceID string) (*domain.Identity, error)
	TrackAction(ctx context.Context, deviceID, name string, data map[string]any) error

	// SetPreferences upserts every key and reports which succeeded; a
	// non-nil error means the report is partial, never silent.
	SetPreferences(ctx context.Context, deviceID string, prefs map[string]json.RawMessage) ([]string, error)
	GetPreference(ctx context.Context, deviceID, key string) (json.RawMessage, error)
	AllPreferences(ctx context.Context, deviceID string) (map[string]json.RawMessage, error)
	DeletePreference(ctx context.Context, deviceID, key string) error

	Stats(ctx context.Context, days int) (Stats, error)
}
