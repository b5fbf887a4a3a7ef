package domain

import "encoding/json"

// Identity is a durable anonymous principal addressed by its device ID.
// The device ID never changes once minted; the fingerprint is a weak
// heuristic and is intentionally not unique.
type Identity struct {
	DeviceID     string `gorm:"type:text;primaryKey" db:"device_id" json:"deviceId"`
	Fingerprint  string `gorm:"type:text;not null;index" db:"fingerprint" json:"fingerprint"`
	Metadata     []byte `gorm:"type:jsonb" db:"metadata" json:"-"`
	CreatedAt    int64  `gorm:"not null;index" db:"created_at" json:"createdAt"`
	LastSeen     int64  `gorm:"not null;index" db:"last_seen" json:"lastSeen"`
	SessionCount int    `gorm:"not null;default:1" db:"session_count" json:"sessionCount"`
}

func (Identity) TableName() string { return "anonymous_identities" }

// MaxActionLog caps the per-identity action log kept inside Metadata.
const MaxActionLog = 100

// Metadata is the open-ended attribute blob attached to an identity,
// stored as JSON alongside the row.
type Metadata struct {
	DeviceInfo DeviceInfo `json:"device_info"`
	Actions    []Action   `json:"actions,omitempty"`
}

// DeviceInfo is the first-seen snapshot of client-supplied request metadata.
type DeviceInfo struct {
	Browser   string `json:"browser"`
	OS        string `json:"os"`
	UserAgent string `json:"user_agent"`
	Language  string `json:"language"`
}

// Action is one timestamped entry in the identity's action log.
type Action struct {
	ID        string         `json:"id"`
	Name      string         `json:"action"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// DecodeMetadata unmarshals the stored metadata blob. A missing or empty
// blob decodes to the zero value rather than an error.
func (i *Identity) DecodeMetadata() (Metadata, error) {
	var m Metadata
	if len(i.Metadata) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(i.Metadata, &m); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// SetMetadata marshals m into the stored blob.
func (i *Identity) SetMetadata(m Metadata) error {
	buf, err := json.Marshal(m)
	if err != nil {
		return err
	}
	i.Metadata = buf
	return nil
}
