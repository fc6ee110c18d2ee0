package gen

import (
	"context"
	"time"
)

const countFunds = `-- name: CountFunds :one
SELECT COUNT(*) FROM funds
`

func (q *Queries) CountFunds(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countFunds)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createFund = `-- name: CreateFund :exec
INSERT INTO funds (id, name, created_at) VALUES (?, ?, ?)
`

type CreateFundParams struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

func (q *Queries) CreateFund(ctx context.Context, arg CreateFundParams) error {
	_, err := q.db.ExecContext(ctx, createFund, arg.ID, arg.Name, arg.CreatedAt)
	return err
}

const getFundByID = `-- name: GetFundByID :one
SELECT id, name, created_at FROM funds WHERE id = ?
`

func (q *Queries) GetFundByID(ctx context.Context, id string) (Fund, error) {
	row := q.db.QueryRowContext(ctx, getFundByID, id)
	var i Fund
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}
