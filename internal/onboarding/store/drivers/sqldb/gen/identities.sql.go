package gen

import (
	"context"
	"database/sql"
	"time"
)

const createIdentity = `-- name: CreateIdentity :exec
INSERT INTO identities (id, email, password_hash, email_confirmed_at, created_at)
VALUES (?, ?, ?, ?, ?)
`

type CreateIdentityParams struct {
	ID               string
	Email            string
	PasswordHash     string
	EmailConfirmedAt sql.NullTime
	CreatedAt        time.Time
}

func (q *Queries) CreateIdentity(ctx context.Context, arg CreateIdentityParams) error {
	_, err := q.db.ExecContext(ctx, createIdentity,
		arg.ID,
		arg.Email,
		arg.PasswordHash,
		arg.EmailConfirmedAt,
		arg.CreatedAt,
	)
	return err
}

const deleteIdentity = `-- name: DeleteIdentity :execrows
DELETE FROM identities WHERE id = ?
`

func (q *Queries) DeleteIdentity(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteIdentity, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getIdentityByEmail = `-- name: GetIdentityByEmail :one
SELECT id, email, password_hash, email_confirmed_at, created_at
FROM identities
WHERE email = ?
`

func (q *Queries) GetIdentityByEmail(ctx context.Context, email string) (Identity, error) {
	row := q.db.QueryRowContext(ctx, getIdentityByEmail, email)
	var i Identity
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.EmailConfirmedAt,
		&i.CreatedAt,
	)
	return i, err
}

const getIdentityByID = `-- name: GetIdentityByID :one
SELECT id, email, password_hash, email_confirmed_at, created_at
FROM identities
WHERE id = ?
`

func (q *Queries) GetIdentityByID(ctx context.Context, id string) (Identity, error) {
	row := q.db.QueryRowContext(ctx, getIdentityByID, id)
	var i Identity
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.EmailConfirmedAt,
		&i.CreatedAt,
	)
	return i, err
}
