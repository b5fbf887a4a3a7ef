package store

import (
	"context"
	"errors"

	"identity/internal/domain"

	"gorm.io/gorm"
)

type IdentityStore struct{ db *gorm.DB }

func (s *Store) Identities() *IdentityStore { return &IdentityStore{db: s.DB} }

// Create inserts a new identity row. The device_id primary key is
// authoritative; the fingerprint index is deliberately non-unique, so two
// racing first-requests may both insert and both succeed.
func (i *IdentityStore) Create(ctx context.Context, id *domain.Identity) error {
	if id.SessionCount == 0 {
		id.SessionCount = 1
	}
	return i.db.WithContext(ctx).Create(id).Error
}

func (i *IdentityStore) GetByDeviceID(ctx context.Context, deviceID string) (*domain.Identity, error) {
	var id domain.Identity
	if err := i.db.WithContext(ctx).First(&id, "device_id = ?", deviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	return &id, nil
}

// MostRecentByFingerprint returns the identity sharing fp that was seen
// last. Models a returning visitor who cleared cookies but kept the same
// device and network.
func (i *IdentityStore) MostRecentByFingerprint(ctx context.Context, fp string) (*domain.Identity, error) {
	var id domain.Identity
	err := i.db.WithContext(ctx).
		Where("fingerprint = ?", fp).
		Order("last_seen DESC").
		First(&id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	return &id, nil
}

// Touch bumps last_seen and increments session_count in one atomic UPDATE.
func (i *IdentityStore) Touch(ctx context.Context, deviceID string, now int64) error {
	tx := i.db.WithContext(ctx).
		Model(&domain.Identity{}).
		Where("device_id = ?", deviceID).
		Updates(map[string]any{
			"last_seen":     now,
			"session_count": gorm.Expr("session_count + 1"),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// UpdateMetadata replaces the metadata blob for a device.
func (i *IdentityStore) UpdateMetadata(ctx context.Context, deviceID string, metadata []byte) error {
	tx := i.db.WithContext(ctx).
		Model(&domain.Identity{}).
		Where("device_id = ?", deviceID).
		Update("metadata", metadata)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (i *IdentityStore) CountTotal(ctx context.Context) (int64, error) {
	var n int64
	err := i.db.WithContext(ctx).Model(&domain.Identity{}).Count(&n).Error
	return n, err
}

func (i *IdentityStore) CountActiveSince(ctx context.Context, ts int64) (int64, error) {
	var n int64
	err := i.db.WithContext(ctx).
		Model(&domain.Identity{}).
		Where("last_seen >= ?", ts).
		Count(&n).Error
	return n, err
}

func (i *IdentityStore) CountCreatedSince(ctx context.Context, ts int64) (int64, error) {
	var n int64
	err := i.db.WithContext(ctx).
		Model(&domain.Identity{}).
		Where("created_at >= ?", ts).
		Count(&n).Error
	return n, err
}

// DeleteOlderThan removes identities whose last_seen predates cutoff,
// cascading their preferences in the same transaction, and returns the ids
// it removed so in-process state can be swept too.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff int64) ([]string, error) {
	var ids []string
	err := s.WithTx(ctx, func(tx *Store) error {
		db := tx.DB.WithContext(ctx)
		if err := db.Model(&domain.Identity{}).
			Where("last_seen < ?", cutoff).
			Pluck("device_id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := db.Where("device_id IN ?", ids).Delete(&domain.Preference{}).Error; err != nil {
			return err
		}
		return db.Where("device_id IN ?", ids).Delete(&domain.Identity{}).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
