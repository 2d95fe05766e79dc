package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"

	"teacha/internal/common"
	"teacha/internal/domain/offer"
)

type offerRepository interface {
	ListActive(ctx context.Context) ([]offer.Offer, error)
	SetStatusIf(ctx context.Context, id common.UUID, next, prev offer.Status) (bool, error)
}

// Sweeper persists expirations the read path only derives. It runs on a
// fixed interval, applies the same offer.Resolve the live reads use, and
// expires qualifying offers one conditional write at a time. Filled
// offers are never touched; a partially failed sweep is picked up again
// on the next run.
type Sweeper struct {
	offers   offerRepository
	interval time.Duration
	strategy retry.Strategy
	logger   zerolog.Logger
	now      func() time.Time
}

func NewSweeper(offers offerRepository, interval time.Duration, strategy retry.Strategy, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{offers: offers, interval: interval, strategy: strategy, logger: logger, now: time.Now}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("expiry sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("expiry sweeper stopped")
			return
		case <-ticker.C:
			expired, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("sweep failed")
				continue
			}
			if expired > 0 {
				s.logger.Info().Int("expired", expired).Msg("offers expired")
			}
		}
	}
}

// Sweep runs one pass and returns how many offers it expired. The pass
// only acts on currently-active offers, so repeating it is harmless.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	var items []offer.Offer
	err := retry.Do(func() error {
		var lerr error
		items, lerr = s.offers.ListActive(ctx)
		return lerr
	}, s.strategy)
	if err != nil {
		return 0, err
	}

	now := s.now()
	expired := 0
	for _, off := range items {
		if offer.Resolve(off.Status, off.EndDate, now) != offer.StatusExpired {
			continue
		}
		swapped, serr := s.offers.SetStatusIf(ctx, off.ID, offer.StatusExpired, offer.StatusActive)
		if serr != nil {
			// leave the rest for the next run; the scan is idempotent
			s.logger.Warn().Err(serr).Str("offer_id", off.ID.String()).Msg("expire offer")
			continue
		}
		if swapped {
			expired++
		}
	}
	return expired, nil
}
