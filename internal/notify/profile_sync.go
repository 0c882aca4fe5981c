package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/recipher/administrato-notify/internal/event"
	"github.com/recipher/administrato-notify/internal/provider"
)

// ProfileSync pushes recipient contact data to the provider before any
// message referencing those recipients is sent. Each call fully replaces
// the stored profiles, so repeated syncs with identical data are no-ops
// and the operation is safe to run unconditionally before every send.
type ProfileSync struct {
	provider    provider.Provider
	log         zerolog.Logger
	concurrency int
}

// NewProfileSync creates a ProfileSync with the given fan-out bound.
// A concurrency of zero or less falls back to serial syncing.
func NewProfileSync(p provider.Provider, log zerolog.Logger, concurrency int) *ProfileSync {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ProfileSync{provider: p, log: log, concurrency: concurrency}
}

// Sync upserts {email, name} keyed by recipient id for every identity.
// Identities are deduplicated by id within one call; order between syncs is
// irrelevant, but Sync returns only once every upsert has completed, which
// gives callers the sync-before-send ordering guarantee.
//
// Callers filter unresolvable recipients before this call; zero-value
// entries are skipped rather than treated as errors.
func (s *ProfileSync) Sync(ctx context.Context, recipients []event.Identity) error {
	seen := make(map[string]struct{}, len(recipients))
	var unique []event.Identity
	for _, r := range recipients {
		if r.ID == "" || r.Email == "" {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		unique = append(unique, r)
	}

	if len(unique) == 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, s.concurrency)

	for _, r := range unique {
		wg.Add(1)
		sem <- struct{}{}
		go func(r event.Identity) {
			defer wg.Done()
			defer func() { <-sem }()

			err := s.provider.ReplaceProfile(ctx, r.ID, provider.Profile{
				Email: r.Email,
				Name:  r.Name,
			})
			if err != nil {
				s.log.Error().Err(err).Str("recipient_id", r.ID).Msg("profile sync failed")
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("sync profile %s: %w", r.ID, err)
				}
				mu.Unlock()
				return
			}
			s.log.Debug().Str("recipient_id", r.ID).Msg("profile synced")
		}(r)
	}

	wg.Wait()
	return firstErr
}
