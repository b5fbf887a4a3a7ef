package impl

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"identity/internal/domain"
	"identity/internal/fingerprint"
	"identity/internal/service"
	"identity/internal/store"

	"github.com/google/uuid"
)

var _ service.IdentityService = (*IdentityServiceImpl)(nil)

type IdentityServiceImpl struct {
	store *store.Store
	now   func() time.Time
}

func NewIdentityServiceImpl(st *store.Store) *IdentityServiceImpl {
	return &IdentityServiceImpl{
		store: st,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Resolve finds the request's identity: a well-formed cookie that matches a
// stored row wins; otherwise the freshest identity sharing the request's
// fingerprint; otherwise a brand-new identity is minted. A malformed cookie
// is recovered locally and never surfaced.
func (s *IdentityServiceImpl) Resolve(ctx context.Context, cookieValue string, feats fingerprint.Features) (service.Resolution, error) {
	now := s.now().Unix()

	if fingerprint.IsValidDeviceID(cookieValue) {
		id, err := s.store.Identities().GetByDeviceID(ctx, cookieValue)
		switch {
		case err == nil:
			if err := s.touch(ctx, id, now); err != nil {
				return service.Resolution{}, err
			}
			return service.Resolution{Identity: id, Source: "cookie"}, nil
		case errors.Is(err, domain.ErrIdentityNotFound):
			// Stale cookie; fall through to the fingerprint path.
		default:
			return service.Resolution{}, err
		}
	}

	fp := fingerprint.Generate(feats)

	id, err := s.store.Identities().MostRecentByFingerprint(ctx, fp)
	switch {
	case err == nil:
		if err := s.touch(ctx, id, now); err != nil {
			return service.Resolution{}, err
		}
		return service.Resolution{Identity: id, Source: "fingerprint"}, nil
	case errors.Is(err, domain.ErrIdentityNotFound):
		// First visit; create below.
	default:
		return service.Resolution{}, err
	}

	deviceID, err := fingerprint.NewDeviceID(fp)
	if err != nil {
		return service.Resolution{}, err
	}

	ua := fingerprint.ParseUserAgent(feats.UserAgent)
	created := &domain.Identity{
		DeviceID:     deviceID,
		Fingerprint:  fp,
		CreatedAt:    now,
		LastSeen:     now,
		SessionCount: 1,
	}
	if err := created.SetMetadata(domain.Metadata{
		DeviceInfo: domain.DeviceInfo{
			Browser:   ua.Browser,
			OS:        ua.OS,
			UserAgent: feats.UserAgent,
			Language:  feats.AcceptLanguage,
		},
	}); err != nil {
		return service.Resolution{}, err
	}

	// Two first-requests from the same device can race past the fingerprint
	// lookup and both insert. The device_id key keeps each insert valid;
	// two identities is acceptable, a corrupted store is not.
	if err := s.store.Identities().Create(ctx, created); err != nil {
		return service.Resolution{}, err
	}
	return service.Resolution{Identity: created, New: true, Source: "created"}, nil
}

// touch bumps the row atomically and mirrors the bump onto the in-memory
// struct so callers see the fresh counters without a re-read.
func (s *IdentityServiceImpl) touch(ctx context.Context, id *domain.Identity, now int64) error {
	if err := s.store.Identities().Touch(ctx, id.DeviceID, now); err != nil {
		return err
	}
	id.LastSeen = now
	id.SessionCount++
	return nil
}

func (s *IdentityServiceImpl) Get(ctx context.Context, deviceID string) (*domain.Identity, error) {
	return s.store.Identities().GetByDeviceID(ctx, deviceID)
}

// TrackAction appends one entry to the identity's action log, keeping only
// the most recent MaxActionLog entries.
func (s *IdentityServiceImpl) TrackAction(ctx context.Context, deviceID, name string, data map[string]any) error {
	now := s.now().Unix()
	return s.store.WithTx(ctx, func(tx *store.Store) error {
		id, err := tx.Identities().GetByDeviceID(ctx, deviceID)
		if err != nil {
			return err
		}
		meta, err := id.DecodeMetadata()
		if err != nil {
			return err
		}
		meta.Actions = append(meta.Actions, domain.Action{
			ID:        uuid.NewString(),
			Name:      name,
			Timestamp: now,
			Data:      data,
		})
		if len(meta.Actions) > domain.MaxActionLog {
			meta.Actions = meta.Actions[len(meta.Actions)-domain.MaxActionLog:]
		}
		if err := id.SetMetadata(meta); err != nil {
			return err
		}
		return tx.Identities().UpdateMetadata(ctx, deviceID, id.Metadata)
	})
}

func (s *IdentityServiceImpl) SetPreferences(ctx context.Context, deviceID string, prefs map[string]json.RawMessage) ([]string, error) {
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := s.now().Unix()
	succeeded := make([]string, 0, len(keys))
	for _, k := range keys {
		err := s.store.Preferences().Upsert(ctx, &domain.Preference{
			DeviceID:  deviceID,
			Key:       k,
			Value:     prefs[k],
			UpdatedAt: now,
		})
		if err != nil {
			return succeeded, err
		}
		succeeded = append(succeeded, k)
	}
	return succeeded, nil
}

func (s *IdentityServiceImpl) GetPreference(ctx context.Context, deviceID, key string) (json.RawMessage, error) {
	pref, err := s.store.Preferences().Get(ctx, deviceID, key)
	if err != nil {
		return nil, err
	}
	return pref.Value, nil
}

func (s *IdentityServiceImpl) AllPreferences(ctx context.Context, deviceID string) (map[string]json.RawMessage, error) {
	prefs, err := s.store.Preferences().All(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(prefs))
	for _, p := range prefs {
		out[p.Key] = p.Value
	}
	return out, nil
}

func (s *IdentityServiceImpl) DeletePreference(ctx context.Context, deviceID, key string) error {
	return s.store.Preferences().Delete(ctx, deviceID, key)
}

func (s *IdentityServiceImpl) Stats(ctx context.Context, days int) (service.Stats, error) {
	if days <= 0 {
		days = 7
	}
	now := s.now().Unix()
	ids := s.store.Identities()

	total, err := ids.CountTotal(ctx)
	if err != nil {
		return service.Stats{}, err
	}
	active, err := ids.CountActiveSince(ctx, now-86400)
	if err != nil {
		return service.Stats{}, err
	}
	createdToday, err := ids.CountCreatedSince(ctx, now-86400)
	if err != nil {
		return service.Stats{}, err
	}
	createdPeriod, err := ids.CountCreatedSince(ctx, now-int64(days)*86400)
	if err != nil {
		return service.Stats{}, err
	}

	return service.Stats{
		TotalIdentities:  total,
		ActiveLast24h:    active,
		CreatedLast24h:   createdToday,
		CreatedLastNDays: createdPeriod,
		Days:             days,
	}, nil
}
