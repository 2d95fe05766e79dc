package offer

import (
	"context"

	"teacha/internal/common"
)

type Repository interface {
	Create(ctx context.Context, o Offer) (*Offer, error)
	GetByID(ctx context.Context, id common.UUID) (*Offer, error)
	ListOpen(ctx context.Context, limit, offset int) ([]Offer, error)
	ListByInstitution(ctx context.Context, institutionID common.UUID) ([]Offer, error)
	ListActive(ctx context.Context) ([]Offer, error)
	// SetStatusIf writes next only when the persisted status still equals
	// prev and reports whether the swap took effect. All status
	// transitions go through this conditional write so a terminal status
	// is never overwritten.
	SetStatusIf(ctx context.Context, id common.UUID, next, prev Status) (bool, error)
	// Fill flips an active offer to filled and stamps the winning
	// application id in one conditional write. At most one caller can
	// ever win.
	Fill(ctx context.Context, id, applicationID common.UUID) (bool, error)
}
