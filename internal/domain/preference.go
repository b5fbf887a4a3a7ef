package domain

// Preference is a single key/value pair attached to an identity.
// (device_id, key) is unique; writes are upserts.
type Preference struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" db:"id" json:"-"`
	DeviceID  string `gorm:"type:text;not null;uniqueIndex:idx_device_preference,priority:1" db:"device_id" json:"deviceId"`
	Key       string `gorm:"type:text;not null;uniqueIndex:idx_device_preference,priority:2" db:"key" json:"key"`
	Value     []byte `gorm:"type:jsonb" db:"value" json:"-"`
	UpdatedAt int64  `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Preference) TableName() string { return "identity_preferences" }
