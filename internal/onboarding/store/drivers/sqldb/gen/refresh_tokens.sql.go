package gen

import (
	"context"
	"time"
)

const createRefreshToken = `-- name: CreateRefreshToken :exec
INSERT INTO refresh_tokens (
    id, identity_id, user_id, fund_id, token_hash, session_id, scopes, expires_at, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateRefreshTokenParams struct {
	ID         string
	IdentityID string
	UserID     string
	FundID     string
	TokenHash  string
	SessionID  string
	Scopes     string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

func (q *Queries) CreateRefreshToken(ctx context.Context, arg CreateRefreshTokenParams) error {
	_, err := q.db.ExecContext(ctx, createRefreshToken,
		arg.ID,
		arg.IdentityID,
		arg.UserID,
		arg.FundID,
		arg.TokenHash,
		arg.SessionID,
		arg.Scopes,
		arg.ExpiresAt,
		arg.CreatedAt,
	)
	return err
}

const deleteExpiredRefreshTokens = `-- name: DeleteExpiredRefreshTokens :execrows
DELETE FROM refresh_tokens
WHERE expires_at < ? OR revoked_at IS NOT NULL
`

func (q *Queries) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredRefreshTokens, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getRefreshTokenByHash = `-- name: GetRefreshTokenByHash :one
SELECT id, identity_id, user_id, fund_id, token_hash, session_id, scopes, expires_at, revoked_at, created_at
FROM refresh_tokens
WHERE token_hash = ?
`

func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (RefreshToken, error) {
	row := q.db.QueryRowContext(ctx, getRefreshTokenByHash, tokenHash)
	var i RefreshToken
	err := row.Scan(
		&i.ID,
		&i.IdentityID,
		&i.UserID,
		&i.FundID,
		&i.TokenHash,
		&i.SessionID,
		&i.Scopes,
		&i.ExpiresAt,
		&i.RevokedAt,
		&i.CreatedAt,
	)
	return i, err
}

const revokeRefreshToken = `-- name: RevokeRefreshToken :exec
UPDATE refresh_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL
`

type RevokeRefreshTokenParams struct {
	RevokedAt time.Time
	TokenHash string
}

func (q *Queries) RevokeRefreshToken(ctx context.Context, arg RevokeRefreshTokenParams) error {
	_, err := q.db.ExecContext(ctx, revokeRefreshToken, arg.RevokedAt, arg.TokenHash)
	return err
}

const revokeSession = `-- name: RevokeSession :exec
UPDATE refresh_tokens SET revoked_at = ? WHERE session_id = ? AND revoked_at IS NULL
`

type RevokeSessionParams struct {
	RevokedAt time.Time
	SessionID string
}

func (q *Queries) RevokeSession(ctx context.Context, arg RevokeSessionParams) error {
	_, err := q.db.ExecContext(ctx, revokeSession, arg.RevokedAt, arg.SessionID)
	return err
}
