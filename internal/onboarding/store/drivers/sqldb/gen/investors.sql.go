package gen

import (
	"context"
	"database/sql"
	"time"
)

const createInvestor = `-- name: CreateInvestor :exec
INSERT INTO investors (
    id, fund_id, user_id, application_id, first_name, last_name, email, phone,
    investor_type, entity_name, status, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateInvestorParams struct {
	ID            string
	FundID        string
	UserID        string
	ApplicationID string
	FirstName     string
	LastName      string
	Email         string
	Phone         sql.NullString
	InvestorType  string
	EntityName    sql.NullString
	Status        string
	CreatedAt     time.Time
}

func (q *Queries) CreateInvestor(ctx context.Context, arg CreateInvestorParams) error {
	_, err := q.db.ExecContext(ctx, createInvestor,
		arg.ID,
		arg.FundID,
		arg.UserID,
		arg.ApplicationID,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.Phone,
		arg.InvestorType,
		arg.EntityName,
		arg.Status,
		arg.CreatedAt,
	)
	return err
}

const getInvestorByApplicationID = `-- name: GetInvestorByApplicationID :one
SELECT id, fund_id, user_id, application_id, first_name, last_name, email, phone,
       investor_type, entity_name, status, created_at
FROM investors
WHERE application_id = ?
`

func (q *Queries) GetInvestorByApplicationID(ctx context.Context, applicationID string) (Investor, error) {
	row := q.db.QueryRowContext(ctx, getInvestorByApplicationID, applicationID)
	return scanInvestor(row)
}

const getInvestorByID = `-- name: GetInvestorByID :one
SELECT id, fund_id, user_id, application_id, first_name, last_name, email, phone,
       investor_type, entity_name, status, created_at
FROM investors
WHERE id = ?
`

func (q *Queries) GetInvestorByID(ctx context.Context, id string) (Investor, error) {
	row := q.db.QueryRowContext(ctx, getInvestorByID, id)
	return scanInvestor(row)
}

func scanInvestor(row *sql.Row) (Investor, error) {
	var i Investor
	err := row.Scan(
		&i.ID,
		&i.FundID,
		&i.UserID,
		&i.ApplicationID,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.Phone,
		&i.InvestorType,
		&i.EntityName,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}
