package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tradepost/internal/domain"
)

// ModerationRepository

func (db *DB) InsertItem(ctx context.Context, item *domain.ModeratedItem) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO moderated_items (id, kind, listing_id, company_id, sender_id, sender_name,
                                     sender_email, sender_phone, body, rating, status, is_read, is_urgent, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `, item.ID, string(item.Kind), item.ListingID, item.CompanyID, item.SenderID, item.SenderName,
		item.SenderEmail, item.SenderPhone, item.Body, item.Rating, string(item.Status),
		item.IsRead, item.IsUrgent, item.CreatedAt)
	return err
}

func (db *DB) GetItem(ctx context.Context, id uuid.UUID) (*domain.ModeratedItem, error) {
	item, err := scanItem(db.Pool.QueryRow(ctx, selectItem+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemStatus reads the current status and writes the new one in the
// same transaction, locking the row so two conflicting moderators cannot
// both succeed silently.
func (db *DB) UpdateItemStatus(ctx context.Context, id uuid.UUID, to domain.ItemStatus, allowedFrom []domain.ItemStatus) (changed bool, current domain.ItemStatus, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	var cur string
	err = tx.QueryRow(ctx, `SELECT status FROM moderated_items WHERE id = $1 FOR UPDATE`, id).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		err = domain.ErrNotFound
		return false, "", err
	}
	if err != nil {
		return false, "", err
	}
	current = domain.ItemStatus(cur)
	if !statusIn(current, allowedFrom) {
		return false, current, nil
	}
	if _, err = tx.Exec(ctx, `UPDATE moderated_items SET status = $2 WHERE id = $1`, id, string(to)); err != nil {
		return false, current, err
	}
	return true, current, nil
}

// SetReply records the reply, moves the item to replied and marks it read,
// under the same row lock and edge check as UpdateItemStatus.
func (db *DB) SetReply(ctx context.Context, id uuid.UUID, reply domain.Reply, allowedFrom []domain.ItemStatus) (changed bool, current domain.ItemStatus, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	var cur string
	err = tx.QueryRow(ctx, `SELECT status FROM moderated_items WHERE id = $1 FOR UPDATE`, id).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		err = domain.ErrNotFound
		return false, "", err
	}
	if err != nil {
		return false, "", err
	}
	current = domain.ItemStatus(cur)
	if !statusIn(current, allowedFrom) {
		return false, current, nil
	}
	_, err = tx.Exec(ctx, `
        UPDATE moderated_items
        SET status = 'replied', is_read = true,
            reply_text = $2, replied_at = $3, replied_by = $4, replier_id = $5
        WHERE id = $1
    `, id, reply.Text, reply.RepliedAt, string(reply.RepliedBy), reply.ReplierID)
	if err != nil {
		return false, current, err
	}
	return true, current, nil
}

func (db *DB) SetItemFlags(ctx context.Context, id uuid.UUID, isRead, isUrgent *bool) error {
	tag, err := db.Pool.Exec(ctx, `
        UPDATE moderated_items
        SET is_read = COALESCE($2, is_read), is_urgent = COALESCE($3, is_urgent)
        WHERE id = $1
    `, id, isRead, isUrgent)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM moderated_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) ListApprovedByListing(ctx context.Context, listingID uuid.UUID) ([]domain.ModeratedItem, error) {
	rows, err := db.Pool.Query(ctx, selectItem+`
        WHERE listing_id = $1 AND status = 'approved'
        ORDER BY created_at DESC
    `, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func (db *DB) ListItemsByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.ModeratedItem, error) {
	rows, err := db.Pool.Query(ctx, selectItem+`
        WHERE company_id = $1
        ORDER BY created_at DESC
    `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

const selectItem = `
    SELECT id, kind, listing_id, company_id, sender_id, sender_name, sender_email, sender_phone,
           body, rating, status, is_read, is_urgent, reply_text, replied_at, replied_by, replier_id, created_at
    FROM moderated_items`

func scanItem(row rowScanner) (*domain.ModeratedItem, error) {
	var item domain.ModeratedItem
	var kind, status string
	var replyText, repliedBy *string
	var repliedAt *time.Time
	var replierID *uuid.UUID
	err := row.Scan(&item.ID, &kind, &item.ListingID, &item.CompanyID, &item.SenderID,
		&item.SenderName, &item.SenderEmail, &item.SenderPhone, &item.Body, &item.Rating,
		&status, &item.IsRead, &item.IsUrgent, &replyText, &repliedAt, &repliedBy, &replierID,
		&item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Kind = domain.ItemKind(kind)
	item.Status = domain.ItemStatus(status)
	if replyText != nil && repliedAt != nil && repliedBy != nil && replierID != nil {
		item.Reply = &domain.Reply{
			Text:      *replyText,
			RepliedAt: *repliedAt,
			RepliedBy: domain.ReplierRole(*repliedBy),
			ReplierID: *replierID,
		}
	}
	return &item, nil
}

func collectItems(rows pgx.Rows) ([]domain.ModeratedItem, error) {
	var out []domain.ModeratedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func statusIn(s domain.ItemStatus, set []domain.ItemStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
