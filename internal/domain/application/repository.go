package application

import (
	"context"

	"teacha/internal/common"
)

type Repository interface {
	Create(ctx context.Context, app Application) (*Application, error)
	GetByID(ctx context.Context, id common.UUID) (*Application, error)
	FindByOfferAndCandidate(ctx context.Context, offerID, candidateID common.UUID) (*Application, error)
	ListByOffer(ctx context.Context, offerID common.UUID) ([]Application, error)
	ListPendingByOffer(ctx context.Context, offerID common.UUID) ([]Application, error)
	ListByCandidate(ctx context.Context, candidateID common.UUID) ([]Application, error)
	ListByInstitution(ctx context.Context, institutionID common.UUID) ([]Application, error)
	// UpdateStatusIf writes next only when the status still equals prev
	// and reports whether the swap took effect. Accepted and rejected are
	// terminal; the conditional write keeps them so under concurrent
	// cascades.
	UpdateStatusIf(ctx context.Context, id common.UUID, next, prev Status) (bool, error)
	Delete(ctx context.Context, id common.UUID) error
}
