package gen

import (
	"context"
	"time"
)

const createAccountToken = `-- name: CreateAccountToken :exec
INSERT INTO account_creation_tokens (
    id, token_hash, application_id, fund_id, email, created_at, expires_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateAccountTokenParams struct {
	ID            string
	TokenHash     string
	ApplicationID string
	FundID        string
	Email         string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

func (q *Queries) CreateAccountToken(ctx context.Context, arg CreateAccountTokenParams) error {
	_, err := q.db.ExecContext(ctx, createAccountToken,
		arg.ID,
		arg.TokenHash,
		arg.ApplicationID,
		arg.FundID,
		arg.Email,
		arg.CreatedAt,
		arg.ExpiresAt,
	)
	return err
}

const getAccountTokenByHash = `-- name: GetAccountTokenByHash :one
SELECT id, token_hash, application_id, fund_id, email, created_at, expires_at, used_at
FROM account_creation_tokens
WHERE token_hash = ?
`

func (q *Queries) GetAccountTokenByHash(ctx context.Context, tokenHash string) (AccountCreationToken, error) {
	row := q.db.QueryRowContext(ctx, getAccountTokenByHash, tokenHash)
	var i AccountCreationToken
	err := row.Scan(
		&i.ID,
		&i.TokenHash,
		&i.ApplicationID,
		&i.FundID,
		&i.Email,
		&i.CreatedAt,
		&i.ExpiresAt,
		&i.UsedAt,
	)
	return i, err
}

const markAccountTokenUsed = `-- name: MarkAccountTokenUsed :execrows
UPDATE account_creation_tokens
SET used_at = ?
WHERE token_hash = ? AND used_at IS NULL
`

type MarkAccountTokenUsedParams struct {
	UsedAt    time.Time
	TokenHash string
}

func (q *Queries) MarkAccountTokenUsed(ctx context.Context, arg MarkAccountTokenUsedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markAccountTokenUsed, arg.UsedAt, arg.TokenHash)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
