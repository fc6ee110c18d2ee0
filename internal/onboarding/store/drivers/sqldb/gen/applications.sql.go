package gen

import (
	"context"
	"database/sql"
	"time"
)

const createApplication = `-- name: CreateApplication :exec
INSERT INTO kyc_applications (
    id, fund_id, applicant_type, first_name, last_name, email, phone,
    entity_name, signer_first_name, signer_last_name, status, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateApplicationParams struct {
	ID              string
	FundID          string
	ApplicantType   string
	FirstName       string
	LastName        string
	Email           string
	Phone           sql.NullString
	EntityName      sql.NullString
	SignerFirstName sql.NullString
	SignerLastName  sql.NullString
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (q *Queries) CreateApplication(ctx context.Context, arg CreateApplicationParams) error {
	_, err := q.db.ExecContext(ctx, createApplication,
		arg.ID,
		arg.FundID,
		arg.ApplicantType,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.Phone,
		arg.EntityName,
		arg.SignerFirstName,
		arg.SignerLastName,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getApplicationByID = `-- name: GetApplicationByID :one
SELECT id, fund_id, applicant_type, first_name, last_name, email, phone,
       entity_name, signer_first_name, signer_last_name, status, created_at, updated_at
FROM kyc_applications
WHERE id = ?
`

func (q *Queries) GetApplicationByID(ctx context.Context, id string) (KycApplication, error) {
	row := q.db.QueryRowContext(ctx, getApplicationByID, id)
	var i KycApplication
	err := row.Scan(
		&i.ID,
		&i.FundID,
		&i.ApplicantType,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.Phone,
		&i.EntityName,
		&i.SignerFirstName,
		&i.SignerLastName,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateApplicationStatus = `-- name: UpdateApplicationStatus :execrows
UPDATE kyc_applications SET status = ?, updated_at = ? WHERE id = ?
`

type UpdateApplicationStatusParams struct {
	Status    string
	UpdatedAt time.Time
	ID        string
}

func (q *Queries) UpdateApplicationStatus(ctx context.Context, arg UpdateApplicationStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateApplicationStatus, arg.Status, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
