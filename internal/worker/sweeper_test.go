package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"

	"teacha/internal/common"
	"teacha/internal/domain/offer"
)

type sweepRepo struct {
	mu       sync.Mutex
	offers   map[common.UUID]*offer.Offer
	listErrs int
}

func newSweepRepo() *sweepRepo {
	return &sweepRepo{offers: make(map[common.UUID]*offer.Offer)}
}

func (r *sweepRepo) add(endDate time.Time, status offer.Status) common.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := common.NewUUID()
	r.offers[id] = &offer.Offer{ID: id, EndDate: offer.DateOnly(endDate), Status: status}
	return id
}

func (r *sweepRepo) ListActive(ctx context.Context) ([]offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErrs > 0 {
		r.listErrs--
		return nil, errors.New("connection reset")
	}
	out := make([]offer.Offer, 0)
	for _, o := range r.offers {
		if o.Status == offer.StatusActive {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *sweepRepo) SetStatusIf(ctx context.Context, id common.UUID, next, prev offer.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.offers[id]
	if o == nil {
		return false, common.NewError(common.CodeNotFound, "offer not found", nil)
	}
	if o.Status != prev {
		return false, nil
	}
	o.Status = next
	return true, nil
}

func (r *sweepRepo) status(id common.UUID) offer.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offers[id].Status
}

func newTestSweeper(repo *sweepRepo, now time.Time) *Sweeper {
	s := NewSweeper(repo, time.Hour, retry.Strategy{Attempts: 3, Delay: time.Millisecond}, zerolog.Nop())
	s.now = func() time.Time { return now }
	return s
}

func TestSweeperExpiresDueOffers(t *testing.T) {
	now := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	repo := newSweepRepo()
	due := repo.add(now.AddDate(0, 0, -1), offer.StatusActive)
	endingToday := repo.add(now, offer.StatusActive)
	future := repo.add(now.AddDate(0, 0, 7), offer.StatusActive)
	filled := repo.add(now.AddDate(0, 0, -7), offer.StatusFilled)

	expired, err := newTestSweeper(repo, now).Sweep(context.Background())
	if err != nil {
		t.Fatalf("expected sweep, got %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expiry, got %d", expired)
	}
	if got := repo.status(due); got != offer.StatusExpired {
		t.Fatalf("expected due offer expired, got %s", got)
	}
	if got := repo.status(endingToday); got != offer.StatusActive {
		t.Fatalf("an offer ending today must stay active, got %s", got)
	}
	if got := repo.status(future); got != offer.StatusActive {
		t.Fatalf("expected future offer untouched, got %s", got)
	}
	if got := repo.status(filled); got != offer.StatusFilled {
		t.Fatalf("filled is terminal, got %s", got)
	}
}

func TestSweeperSecondRunIsNoop(t *testing.T) {
	now := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	repo := newSweepRepo()
	repo.add(now.AddDate(0, 0, -1), offer.StatusActive)
	sweeper := newTestSweeper(repo, now)

	if expired, err := sweeper.Sweep(context.Background()); err != nil || expired != 1 {
		t.Fatalf("expected 1 expiry on the first run, got %d (%v)", expired, err)
	}
	if expired, err := sweeper.Sweep(context.Background()); err != nil || expired != 0 {
		t.Fatalf("expected a no-op second run, got %d (%v)", expired, err)
	}
}

func TestSweeperRetriesListing(t *testing.T) {
	now := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	repo := newSweepRepo()
	repo.add(now.AddDate(0, 0, -1), offer.StatusActive)
	repo.listErrs = 2

	expired, err := newTestSweeper(repo, now).Sweep(context.Background())
	if err != nil {
		t.Fatalf("expected the listing to be retried, got %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expiry, got %d", expired)
	}
}
