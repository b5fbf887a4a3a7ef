package store

import (
	"context"
	"errors"

	"identity/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceStore struct{ db *gorm.DB }

func (s *Store) Preferences() *PreferenceStore { return &PreferenceStore{db: s.DB} }

// Upsert writes a preference keyed on (device_id, key), replacing the value
// and timestamp on conflict.
func (p *PreferenceStore) Upsert(ctx context.Context, pref *domain.Preference) error {
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(pref).Error
}

func (p *PreferenceStore) Get(ctx context.Context, deviceID, key string) (*domain.Preference, error) {
	var pref domain.Preference
	err := p.db.WithContext(ctx).
		First(&pref, "device_id = ? AND key = ?", deviceID, key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPreferenceNotFound
		}
		return nil, err
	}
	return &pref, nil
}

func (p *PreferenceStore) All(ctx context.Context, deviceID string) ([]*domain.Preference, error) {
	var prefs []*domain.Preference
	err := p.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("key ASC").
		Find(&prefs).Error
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

func (p *PreferenceStore) Delete(ctx context.Context, deviceID, key string) error {
	tx := p.db.WithContext(ctx).
		Where("device_id = ? AND key = ?", deviceID, key).
		Delete(&domain.Preference{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrPreferenceNotFound
	}
	return nil
}
