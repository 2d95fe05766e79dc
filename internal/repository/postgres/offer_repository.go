package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"teacha/internal/common"
	"teacha/internal/domain/offer"
)

type OfferRepository struct {
	db *sql.DB
}

func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `id, institution_id, subjects, location, teaching_level, start_date, end_date, total_lessons, periods, status, filled_by, is_urgent, created_at, updated_at`

func (r *OfferRepository) Create(ctx context.Context, o offer.Offer) (*offer.Offer, error) {
	o.ID = common.NewUUID()
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO offers (id, institution_id, subjects, location, teaching_level, start_date, end_date, total_lessons, periods, status, is_urgent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, o.InstitutionID, pq.Array(o.Subjects), o.Location, o.TeachingLevel, o.StartDate, o.EndDate, o.TotalLessons, pq.Array(o.Periods), o.Status, o.IsUrgent, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to create offer", err)
	}
	return &o, nil
}

func (r *OfferRepository) GetByID(ctx context.Context, id common.UUID) (*offer.Offer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	return scanOffer(row)
}

func (r *OfferRepository) ListOpen(ctx context.Context, limit, offset int) ([]offer.Offer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+offerColumns+` FROM offers
		WHERE status = $1 ORDER BY is_urgent DESC, created_at DESC LIMIT $2 OFFSET $3`, offer.StatusActive, limit, offset)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list offers", err)
	}
	return collectOffers(rows)
}

func (r *OfferRepository) ListByInstitution(ctx context.Context, institutionID common.UUID) ([]offer.Offer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+offerColumns+` FROM offers
		WHERE institution_id = $1 ORDER BY created_at DESC`, institutionID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list institution offers", err)
	}
	return collectOffers(rows)
}

func (r *OfferRepository) ListActive(ctx context.Context) ([]offer.Offer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE status = $1`, offer.StatusActive)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list active offers", err)
	}
	return collectOffers(rows)
}

func (r *OfferRepository) SetStatusIf(ctx context.Context, id common.UUID, next, prev offer.Status) (bool, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE offers SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		next, time.Now().UTC(), id, prev)
	if err != nil {
		return false, common.NewError(common.CodeInternal, "failed to update offer status", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, common.NewError(common.CodeInternal, "failed to update offer status", err)
	}
	return rows > 0, nil
}

func (r *OfferRepository) Fill(ctx context.Context, id, applicationID common.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE offers SET status = $1, filled_by = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
		offer.StatusFilled, applicationID, time.Now().UTC(), id, offer.StatusActive)
	if err != nil {
		return false, common.NewError(common.CodeInternal, "failed to fill offer", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, common.NewError(common.CodeInternal, "failed to fill offer", err)
	}
	return rows > 0, nil
}

func scanOffer(row *sql.Row) (*offer.Offer, error) {
	var o offer.Offer
	var filledBy sql.NullString
	if err := row.Scan(&o.ID, &o.InstitutionID, pq.Array(&o.Subjects), &o.Location, &o.TeachingLevel, &o.StartDate, &o.EndDate, &o.TotalLessons, pq.Array(&o.Periods), &o.Status, &filledBy, &o.IsUrgent, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "offer not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load offer", err)
	}
	if filledBy.Valid {
		id := common.UUID(filledBy.String)
		o.FilledBy = &id
	}
	return &o, nil
}

func collectOffers(rows *sql.Rows) ([]offer.Offer, error) {
	defer rows.Close()
	var items []offer.Offer
	for rows.Next() {
		var o offer.Offer
		var filledBy sql.NullString
		if err := rows.Scan(&o.ID, &o.InstitutionID, pq.Array(&o.Subjects), &o.Location, &o.TeachingLevel, &o.StartDate, &o.EndDate, &o.TotalLessons, pq.Array(&o.Periods), &o.Status, &filledBy, &o.IsUrgent, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan offer", err)
		}
		if filledBy.Valid {
			id := common.UUID(filledBy.String)
			o.FilledBy = &id
		}
		items = append(items, o)
	}
	return items, rows.Err()
}
