// Package twofactor keeps a user's two-factor seed in step with their
// enrollment flag and notification preference.
package twofactor

import (
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Preferences is a partial update; nil fields are left unchanged.
type Preferences struct {
	TwoFactorEnabled    *bool
	NotificationChannel *string
}

// Manager applies preference changes and regenerates or clears the seed.
type Manager struct {
	newSeed func() (string, error)
}

func NewManager() *Manager {
	return &Manager{newSeed: func() (string, error) { return cryptox.RandomBase32(cryptox.SeedBytes) }}
}

// Apply mutates user according to p and reports whether the seed changed.
//
//   - enabled false -> true: new seed
//   - channel changed while enabled: new seed
//   - explicitly disabled: seed cleared
//   - anything else: seed untouched
func (m *Manager) Apply(user *models.User, p Preferences) (bool, error) {
	wasEnabled := user.TwoFactorEnabled

	channelChanged := false
	if p.NotificationChannel != nil && *p.NotificationChannel != user.NotificationChannel {
		user.NotificationChannel = *p.NotificationChannel
		channelChanged = true
	}

	if p.TwoFactorEnabled != nil {
		user.TwoFactorEnabled = *p.TwoFactorEnabled
		if !user.TwoFactorEnabled {
			cleared := user.TwoFactorSeed != ""
			user.TwoFactorSeed = ""
			return cleared, nil
		}
	}

	if user.TwoFactorEnabled && (!wasEnabled || channelChanged) {
		seed, err := m.newSeed()
		if err != nil {
			return false, fmt.Errorf("generate two-factor seed: %w", err)
		}
		user.TwoFactorSeed = seed
		return true, nil
	}
	return false, nil
}
