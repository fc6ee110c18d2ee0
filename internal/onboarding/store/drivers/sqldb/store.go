package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/internal/onboarding/store/drivers/sqldb/gen"
)

type Store struct {
	db      *sql.DB
	q       *gen.Queries
	dialect Dialect
}

// New wraps an open database. The caller hands over ownership of db.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{
		db:      db,
		q:       d.queries(db),
		dialect: d,
	}
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ApplyMigrations runs the dialect's embedded migrations.
func (s *Store) ApplyMigrations() error {
	if s.dialect.Migrate == nil {
		return errors.New("sqldb: dialect has no migrations")
	}
	return s.dialect.Migrate(s.db)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx, s.dialect), nil
}

// WithTx executes fn within a transaction, committing when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Funds() store.Funds               { return &fundsRepo{repo{s.q, s.dialect}} }
func (s *Store) Applications() store.Applications { return &applicationsRepo{repo{s.q, s.dialect}} }
func (s *Store) AccountTokens() store.AccountTokens {
	return &accountTokensRepo{repo{s.q, s.dialect}}
}
func (s *Store) VerificationCodes() store.VerificationCodes {
	return &verificationCodesRepo{repo{s.q, s.dialect}}
}
func (s *Store) Identities() store.Identities       { return &identitiesRepo{repo{s.q, s.dialect}} }
func (s *Store) Users() store.Users                 { return &usersRepo{repo{s.q, s.dialect}} }
func (s *Store) Investors() store.Investors         { return &investorsRepo{repo{s.q, s.dialect}} }
func (s *Store) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{repo{s.q, s.dialect}} }
