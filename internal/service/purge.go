package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"eshop/internal/models"
	"eshop/internal/repository"
)

const purgeBatch = 100

type PendingStore interface {
	ListInactiveBefore(ctx context.Context, cutoff time.Time, limit int64) ([]models.User, error)
	DeleteInactive(ctx context.Context, id string) error
}

// Purger removes accounts that were never activated.
type Purger struct {
	users   PendingStore
	avatars AvatarStore
	log     zerolog.Logger
	now     func() time.Time
}

func NewPurger(users PendingStore, avatars AvatarStore, log zerolog.Logger) *Purger {
	return &Purger{users: users, avatars: avatars, log: log, now: time.Now}
}

// PurgePending deletes accounts that stayed unactivated for longer than
// retention, together with their avatars.
func (p *Purger) PurgePending(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := p.now().UTC().Add(-retention)
	purged := 0

	for {
		batch, err := p.users.ListInactiveBefore(ctx, cutoff, purgeBatch)
		if err != nil {
			return purged, err
		}
		if len(batch) == 0 {
			return purged, nil
		}

		removed := 0
		for _, user := range batch {
			if err := p.users.DeleteInactive(ctx, user.IDHex()); err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					continue
				}
				return purged, err
			}
			removeAvatar(ctx, p.avatars, p.log, user.Avatar.PublicID)
			p.log.Debug().Str("user_id", user.IDHex()).Str("email", user.Email).Msg("pending account purged")
			removed++
			purged++
		}

		if len(batch) < purgeBatch || removed == 0 {
			return purged, nil
		}
	}
}
