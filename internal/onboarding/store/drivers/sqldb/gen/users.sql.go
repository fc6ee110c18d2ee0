package gen

import (
	"context"
	"time"
)

const createUser = `-- name: CreateUser :exec
INSERT INTO users (id, identity_id, fund_id, email, role, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateUserParams struct {
	ID         string
	IdentityID string
	FundID     string
	Email      string
	Role       string
	CreatedAt  time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, createUser,
		arg.ID,
		arg.IdentityID,
		arg.FundID,
		arg.Email,
		arg.Role,
		arg.CreatedAt,
	)
	return err
}

const deleteUser = `-- name: DeleteUser :execrows
DELETE FROM users WHERE id = ?
`

func (q *Queries) DeleteUser(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, identity_id, fund_id, email, role, created_at
FROM users
WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.IdentityID,
		&i.FundID,
		&i.Email,
		&i.Role,
		&i.CreatedAt,
	)
	return i, err
}

const getUserByIdentityAndFund = `-- name: GetUserByIdentityAndFund :one
SELECT id, identity_id, fund_id, email, role, created_at
FROM users
WHERE identity_id = ? AND fund_id = ?
`

type GetUserByIdentityAndFundParams struct {
	IdentityID string
	FundID     string
}

func (q *Queries) GetUserByIdentityAndFund(ctx context.Context, arg GetUserByIdentityAndFundParams) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByIdentityAndFund, arg.IdentityID, arg.FundID)
	var i User
	err := row.Scan(
		&i.ID,
		&i.IdentityID,
		&i.FundID,
		&i.Email,
		&i.Role,
		&i.CreatedAt,
	)
	return i, err
}

const listUsersByIdentity = `-- name: ListUsersByIdentity :many
SELECT id, identity_id, fund_id, email, role, created_at
FROM users
WHERE identity_id = ?
ORDER BY created_at, id
`

func (q *Queries) ListUsersByIdentity(ctx context.Context, identityID string) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsersByIdentity, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(
			&i.ID,
			&i.IdentityID,
			&i.FundID,
			&i.Email,
			&i.Role,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
