package client

import (
	"context"

	"nirala/internal/dbmysql"
	"nirala/internal/notif"
)

// PreferenceCache is a local copy of the caller's preference matrix whose
// toggles show up before the server has answered.
type PreferenceCache struct {
	api   *Client
	state *Optimistic[[]*dbmysql.NotificationPreference]
}

func NewPreferenceCache(api *Client) *PreferenceCache {
	return &PreferenceCache{
		api:   api,
		state: NewOptimistic[[]*dbmysql.NotificationPreference](nil),
	}
}

// Load replaces the cache with the server's matrix.
func (p *PreferenceCache) Load(ctx context.Context) error {
	prefs, err := p.api.Preferences(ctx)
	if err != nil {
		return err
	}
	p.state.Set(prefs)
	return nil
}

func (p *PreferenceCache) Snapshot() []*dbmysql.NotificationPreference {
	return p.state.Get()
}

// Apply shows updates locally, sends them, and merges the stored rows on
// success. On failure the cache goes back to what it was and onRollback is
// called with the error.
func (p *PreferenceCache) Apply(ctx context.Context, updates []notif.PreferenceUpdateRequest, onRollback func(error)) error {
	_, err := p.state.Update(ctx,
		func(current []*dbmysql.NotificationPreference) []*dbmysql.NotificationPreference {
			return applyLocal(current, updates)
		},
		func(ctx context.Context, proposed []*dbmysql.NotificationPreference) ([]*dbmysql.NotificationPreference, error) {
			stored, err := p.api.UpdatePreferences(ctx, updates)
			if err != nil {
				return nil, err
			}
			return merge(proposed, stored), nil
		},
		func(_ []*dbmysql.NotificationPreference, err error) {
			if onRollback != nil {
				onRollback(err)
			}
		},
	)
	return err
}

func applyLocal(current []*dbmysql.NotificationPreference, updates []notif.PreferenceUpdateRequest) []*dbmysql.NotificationPreference {
	byID := make(map[uint]notif.PreferenceUpdateRequest, len(updates))
	for _, u := range updates {
		byID[u.ID] = u
	}

	out := make([]*dbmysql.NotificationPreference, len(current))
	for i, row := range current {
		u, ok := byID[row.ID]
		if !ok {
			out[i] = row
			continue
		}
		cp := *row
		if u.InAppEnabled != nil {
			cp.InAppEnabled = *u.InAppEnabled
		}
		if u.EmailEnabled != nil {
			cp.EmailEnabled = *u.EmailEnabled
		}
		if u.EmailFrequency != nil {
			cp.EmailFrequency = *u.EmailFrequency
		}
		out[i] = &cp
	}
	return out
}

// merge swaps in the server's version of every returned row.
func merge(local, stored []*dbmysql.NotificationPreference) []*dbmysql.NotificationPreference {
	byID := make(map[uint]*dbmysql.NotificationPreference, len(stored))
	for _, row := range stored {
		byID[row.ID] = row
	}
	out := make([]*dbmysql.NotificationPreference, len(local))
	for i, row := range local {
		if s, ok := byID[row.ID]; ok {
			out[i] = s
		} else {
			out[i] = row
		}
	}
	return out
}
