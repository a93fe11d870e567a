package postgres

import (
	"context"

	"tradepost/internal/domain"

	"github.com/google/uuid"
)

// RatingRepository

// AddRating upserts on the (rater, subject) pair: one row per pair, a second
// rating from the same rater replaces the first.
func (db *DB) AddRating(ctx context.Context, r *domain.Rating) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO ratings (id, rater_id, subject_kind, subject_id, value)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (rater_id, subject_kind, subject_id) DO UPDATE SET value = EXCLUDED.value
    `, r.ID, r.RaterID, string(r.Subject.Kind), r.Subject.ID, r.Value)
	return err
}

func (db *DB) AddReview(ctx context.Context, r *domain.Review) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO reviews (id, company_id, author_id, order_ref, value, body, is_hidden)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, r.ID, r.CompanyID, r.AuthorID, r.OrderRef, r.Value, r.Body, r.IsHidden)
	return err
}

func (db *DB) SetReviewHidden(ctx context.Context, id uuid.UUID, hidden bool) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE reviews SET is_hidden = $2 WHERE id = $1`, id, hidden)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RatingValues feeds the on-demand aggregate: rating rows for individuals,
// visible review rows for companies.
func (db *DB) RatingValues(ctx context.Context, subject domain.PrincipalRef) ([]int, error) {
	var query string
	switch subject.Kind {
	case domain.KindIndividual:
		query = `SELECT value FROM ratings WHERE subject_kind = 'individual' AND subject_id = $1`
	case domain.KindCompany:
		query = `SELECT value FROM reviews WHERE company_id = $1 AND NOT is_hidden`
	default:
		return nil, domain.ErrValidation
	}
	rows, err := db.Pool.Query(ctx, query, subject.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
