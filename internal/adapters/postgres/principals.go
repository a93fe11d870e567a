package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"tradepost/internal/domain"
	"tradepost/internal/ports"
)

// PrincipalRepository. Individuals and companies live in separate tables;
// the kind on the ref picks the table, so the two id spaces never mix.

func (db *DB) CreatePrincipal(ctx context.Context, p *domain.Principal) error {
	switch p.Kind {
	case domain.KindIndividual:
		_, err := db.Pool.Exec(ctx, `
            INSERT INTO individuals (id, name, email, password_hash, is_admin, settings, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
        `, p.ID, p.Name, p.Email, p.PasswordHash, p.IsAdmin, p.Settings, p.CreatedAt)
		return err
	case domain.KindCompany:
		_, err := db.Pool.Exec(ctx, `
            INSERT INTO companies (id, name, email, password_hash, settings, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, p.ID, p.Name, p.Email, p.PasswordHash, p.Settings, p.CreatedAt)
		return err
	}
	return domain.ErrValidation
}

func (db *DB) GetPrincipal(ctx context.Context, ref domain.PrincipalRef) (*domain.Principal, error) {
	p := domain.Principal{Kind: ref.Kind}
	var err error
	switch ref.Kind {
	case domain.KindIndividual:
		err = db.Pool.QueryRow(ctx, `
            SELECT id, name, email, password_hash, is_admin, settings, created_at
            FROM individuals WHERE id = $1
        `, ref.ID).Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.IsAdmin, &p.Settings, &p.CreatedAt)
	case domain.KindCompany:
		err = db.Pool.QueryRow(ctx, `
            SELECT id, name, email, password_hash, settings, created_at
            FROM companies WHERE id = $1
        `, ref.ID).Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Settings, &p.CreatedAt)
	default:
		return nil, domain.ErrValidation
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) GetPrincipalByEmail(ctx context.Context, kind domain.PrincipalKind, email string) (*domain.Principal, error) {
	p := domain.Principal{Kind: kind}
	var err error
	switch kind {
	case domain.KindIndividual:
		err = db.Pool.QueryRow(ctx, `
            SELECT id, name, email, password_hash, is_admin, settings, created_at
            FROM individuals WHERE email = $1
        `, email).Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.IsAdmin, &p.Settings, &p.CreatedAt)
	case domain.KindCompany:
		err = db.Pool.QueryRow(ctx, `
            SELECT id, name, email, password_hash, settings, created_at
            FROM companies WHERE email = $1
        `, email).Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Settings, &p.CreatedAt)
	default:
		return nil, domain.ErrValidation
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) UpdatePassword(ctx context.Context, ref domain.PrincipalRef, hash string) error {
	table := "individuals"
	if ref.Kind == domain.KindCompany {
		table = "companies"
	}
	tag, err := db.Pool.Exec(ctx, `UPDATE `+table+` SET password_hash = $2 WHERE id = $1`, ref.ID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TokenRepository

func (db *DB) InsertToken(ctx context.Context, rec ports.TokenRecord) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO auth_tokens (token_hash, principal_kind, principal_id, expires_at)
        VALUES ($1, $2, $3, $4)
    `, rec.Hash, string(rec.Principal.Kind), rec.Principal.ID, rec.ExpiresAt)
	return err
}

func (db *DB) LookupToken(ctx context.Context, hash string) (ports.TokenRecord, bool, error) {
	var rec ports.TokenRecord
	var kind string
	err := db.Pool.QueryRow(ctx, `
        SELECT token_hash, principal_kind, principal_id, expires_at, revoked_at
        FROM auth_tokens WHERE token_hash = $1
    `, hash).Scan(&rec.Hash, &kind, &rec.Principal.ID, &rec.ExpiresAt, &rec.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	rec.Principal.Kind = domain.PrincipalKind(kind)
	return rec, true, nil
}

func (db *DB) RevokeToken(ctx context.Context, hash string) error {
	tag, err := db.Pool.Exec(ctx, `
        UPDATE auth_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL
    `, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) RevokeOtherTokens(ctx context.Context, principal domain.PrincipalRef, keepHash string) error {
	_, err := db.Pool.Exec(ctx, `
        UPDATE auth_tokens SET revoked_at = now()
        WHERE principal_kind = $1 AND principal_id = $2 AND token_hash != $3 AND revoked_at IS NULL
    `, string(principal.Kind), principal.ID, keepHash)
	return err
}

func (db *DB) PurgeExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
        DELETE FROM auth_tokens WHERE expires_at < $1 OR revoked_at < $1
    `, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
