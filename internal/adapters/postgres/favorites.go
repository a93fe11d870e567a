package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FavoriteRepository

// ToggleFavorite is a single atomic read-modify-write on one individual's
// set. The advisory lock is keyed on the individual, so concurrent toggles
// for the same user serialize while different users never contend.
func (db *DB) ToggleFavorite(ctx context.Context, individualID, listingID uuid.UUID) (nowFavorited bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, individualID); err != nil {
		return false, err
	}
	var exists bool
	err = tx.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM favorites WHERE individual_id = $1 AND listing_id = $2)
    `, individualID, listingID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists {
		_, err = tx.Exec(ctx, `DELETE FROM favorites WHERE individual_id = $1 AND listing_id = $2`, individualID, listingID)
		return false, err
	}
	_, err = tx.Exec(ctx, `INSERT INTO favorites (individual_id, listing_id) VALUES ($1, $2)`, individualID, listingID)
	return true, err
}

func (db *DB) ListFavorites(ctx context.Context, individualID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT listing_id FROM favorites WHERE individual_id = $1
    `, individualID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
