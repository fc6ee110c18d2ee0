package gen

import (
	"context"
	"database/sql"
	"time"
)

const createVerificationCode = `-- name: CreateVerificationCode :exec
INSERT INTO verification_codes (id, email, purpose, code, created_at, expires_at, attempts)
VALUES (?, ?, ?, ?, ?, ?, 0)
`

type CreateVerificationCodeParams struct {
	ID        string
	Email     string
	Purpose   string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (q *Queries) CreateVerificationCode(ctx context.Context, arg CreateVerificationCodeParams) error {
	_, err := q.db.ExecContext(ctx, createVerificationCode,
		arg.ID,
		arg.Email,
		arg.Purpose,
		arg.Code,
		arg.CreatedAt,
		arg.ExpiresAt,
	)
	return err
}

const deleteUnverifiedCodes = `-- name: DeleteUnverifiedCodes :execrows
DELETE FROM verification_codes
WHERE email = ? AND purpose = ? AND verified_at IS NULL
`

type DeleteUnverifiedCodesParams struct {
	Email   string
	Purpose string
}

func (q *Queries) DeleteUnverifiedCodes(ctx context.Context, arg DeleteUnverifiedCodesParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUnverifiedCodes, arg.Email, arg.Purpose)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getLatestUnverifiedCode = `-- name: GetLatestUnverifiedCode :one
SELECT id, email, purpose, code, created_at, expires_at, attempts, verified_at
FROM verification_codes
WHERE email = ? AND purpose = ? AND verified_at IS NULL
ORDER BY created_at DESC, id DESC
LIMIT 1
`

type GetLatestUnverifiedCodeParams struct {
	Email   string
	Purpose string
}

func (q *Queries) GetLatestUnverifiedCode(ctx context.Context, arg GetLatestUnverifiedCodeParams) (VerificationCode, error) {
	row := q.db.QueryRowContext(ctx, getLatestUnverifiedCode, arg.Email, arg.Purpose)
	return scanVerificationCode(row)
}

const getLatestVerifiedCode = `-- name: GetLatestVerifiedCode :one
SELECT id, email, purpose, code, created_at, expires_at, attempts, verified_at
FROM verification_codes
WHERE email = ? AND purpose = ? AND verified_at IS NOT NULL
ORDER BY verified_at DESC, id DESC
LIMIT 1
`

type GetLatestVerifiedCodeParams struct {
	Email   string
	Purpose string
}

func (q *Queries) GetLatestVerifiedCode(ctx context.Context, arg GetLatestVerifiedCodeParams) (VerificationCode, error) {
	row := q.db.QueryRowContext(ctx, getLatestVerifiedCode, arg.Email, arg.Purpose)
	return scanVerificationCode(row)
}

const incrementCodeAttempts = `-- name: IncrementCodeAttempts :one
UPDATE verification_codes
SET attempts = attempts + 1
WHERE id = ?
RETURNING id, email, purpose, code, created_at, expires_at, attempts, verified_at
`

func (q *Queries) IncrementCodeAttempts(ctx context.Context, id string) (VerificationCode, error) {
	row := q.db.QueryRowContext(ctx, incrementCodeAttempts, id)
	return scanVerificationCode(row)
}

const markCodeVerified = `-- name: MarkCodeVerified :execrows
UPDATE verification_codes
SET verified_at = ?
WHERE id = ? AND verified_at IS NULL
`

type MarkCodeVerifiedParams struct {
	VerifiedAt time.Time
	ID         string
}

func (q *Queries) MarkCodeVerified(ctx context.Context, arg MarkCodeVerifiedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markCodeVerified, arg.VerifiedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteExpiredCodes = `-- name: DeleteExpiredCodes :execrows
DELETE FROM verification_codes
WHERE verified_at IS NULL AND expires_at < ?
`

func (q *Queries) DeleteExpiredCodes(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredCodes, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteVerifiedCodesBefore = `-- name: DeleteVerifiedCodesBefore :execrows
DELETE FROM verification_codes
WHERE verified_at IS NOT NULL AND verified_at < ?
`

func (q *Queries) DeleteVerifiedCodesBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteVerifiedCodesBefore, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanVerificationCode(row *sql.Row) (VerificationCode, error) {
	var i VerificationCode
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Purpose,
		&i.Code,
		&i.CreatedAt,
		&i.ExpiresAt,
		&i.Attempts,
		&i.VerifiedAt,
	)
	return i, err
}
