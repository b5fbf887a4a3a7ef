package dto

import "encoding/json"

// MeResponse describes the resolved identity to its owner.
type MeResponse struct {
	DeviceID     string `json:"deviceId"`
	CreatedAt    int64  `json:"createdAt"`
	LastSeen     int64  `json:"lastSeen"`
	SessionCount int    `json:"sessionCount"`
}

// TrackActionRequest appends one entry to the identity's action log.
type TrackActionRequest struct {
	Action string         `json:"action"`
	Data   map[string]any `json:"data,omitempty"`
}

// SetPreferencesRequest carries preference upserts keyed by name.
type SetPreferencesRequest struct {
	Preferences map[string]json.RawMessage `json:"preferences"`
}

// SetPreferencesResponse reports which keys were written. On a partial
// failure Saved lists what did land.
type SetPreferencesResponse struct {
	Saved []string `json:"saved"`
}

// PreferencesResponse returns every preference for the identity.
type PreferencesResponse struct {
	Preferences map[string]json.RawMessage `json:"preferences"`
}
