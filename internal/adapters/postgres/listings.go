package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tradepost/internal/domain"
)

// ListingRepository

func (db *DB) CreateListing(ctx context.Context, l *domain.Listing) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO listings (id, company_id, company_name, created_by_id, title, description,
                              price, category, subcategory, location, status, featured, clicks)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, false, 0)
    `, l.ID, l.CompanyID, l.CompanyName, l.CreatedByID, l.Title, l.Description,
		l.Price, l.Category, l.Subcategory, l.Location, string(l.Status))
	return err
}

func (db *DB) GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	l, err := scanListing(db.Pool.QueryRow(ctx, `
        SELECT id, company_id, company_name, created_by_id, title, description, price,
               category, subcategory, location, status, featured, clicks, created_at, updated_at
        FROM listings WHERE id = $1
    `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (db *DB) UpdateListing(ctx context.Context, l *domain.Listing) error {
	tag, err := db.Pool.Exec(ctx, `
        UPDATE listings
        SET title=$2, description=$3, price=$4, category=$5, subcategory=$6, location=$7, updated_at=now()
        WHERE id=$1
    `, l.ID, l.Title, l.Description, l.Price, l.Category, l.Subcategory, l.Location)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) SetListingStatus(ctx context.Context, id uuid.UUID, status domain.ListingStatus) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE listings SET status=$2, updated_at=now() WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) IncrementClicks(ctx context.Context, id uuid.UUID) (int64, error) {
	var clicks int64
	err := db.Pool.QueryRow(ctx, `
        UPDATE listings SET clicks = clicks + 1 WHERE id = $1 RETURNING clicks
    `, id).Scan(&clicks)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	return clicks, err
}

func (db *DB) ListListingsByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.Listing, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, company_id, company_name, created_by_id, title, description, price,
               category, subcategory, location, status, featured, clicks, created_at, updated_at
        FROM listings WHERE company_id = $1
        ORDER BY created_at DESC
    `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// featuredSlotsLockKey serializes every featured turn-on attempt. The cap is
// a count over many rows, so row locks alone cannot keep two transactions
// from both counting below the cap and both writing.
const featuredSlotsLockKey = int64(0x7e617475)

// ToggleFeatured flips the featured flag inside one transaction. Turning off
// always succeeds; turning on takes the advisory lock, re-reads the counts
// and writes the flag as a single atomic unit, so the cap can never be
// jointly overshot. A met cap rolls back with domain.ErrCapExceeded.
func (db *DB) ToggleFeatured(ctx context.Context, id uuid.UUID, globalCap, companyCap int, skipCompanyCap bool) (nowFeatured bool, err error) {
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

	var companyID uuid.UUID
	var featured bool
	err = tx.QueryRow(ctx, `
        SELECT company_id, featured FROM listings WHERE id = $1 FOR UPDATE
    `, id).Scan(&companyID, &featured)
	if errors.Is(err, pgx.ErrNoRows) {
		err = domain.ErrNotFound
		return false, err
	}
	if err != nil {
		return false, err
	}

	if featured {
		_, err = tx.Exec(ctx, `UPDATE listings SET featured=false, updated_at=now() WHERE id=$1`, id)
		return false, err
	}

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, featuredSlotsLockKey); err != nil {
		return false, err
	}
	var global, company int
	err = tx.QueryRow(ctx, `
        SELECT count(*), count(*) FILTER (WHERE company_id = $1)
        FROM listings WHERE featured
    `, companyID).Scan(&global, &company)
	if err != nil {
		return false, err
	}
	if global >= globalCap || (!skipCompanyCap && company >= companyCap) {
		err = domain.ErrCapExceeded
		return false, err
	}
	if _, err = tx.Exec(ctx, `UPDATE listings SET featured=true, updated_at=now() WHERE id=$1`, id); err != nil {
		return false, err
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	var l domain.Listing
	var status string
	err := row.Scan(&l.ID, &l.CompanyID, &l.CompanyName, &l.CreatedByID, &l.Title, &l.Description,
		&l.Price, &l.Category, &l.Subcategory, &l.Location, &status, &l.Featured, &l.Clicks,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Status = domain.ListingStatus(status)
	return &l, nil
}
