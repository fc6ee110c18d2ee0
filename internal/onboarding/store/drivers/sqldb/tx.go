package sqldb

import (
	"context"
	"database/sql"

	"github.com/harborfund/portal/internal/onboarding/store"
	"github.com/harborfund/portal/internal/onboarding/store/drivers/sqldb/gen"
)

type txStore struct {
	tx      *sql.Tx
	q       *gen.Queries
	dialect Dialect
}

func newTx(tx *sql.Tx, d Dialect) *txStore {
	return &txStore{
		tx:      tx,
		q:       d.queries(tx),
		dialect: d,
	}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // the outer DB stays open

func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx

func (t *txStore) Funds() store.Funds               { return &fundsRepo{repo{t.q, t.dialect}} }
func (t *txStore) Applications() store.Applications { return &applicationsRepo{repo{t.q, t.dialect}} }
func (t *txStore) AccountTokens() store.AccountTokens {
	return &accountTokensRepo{repo{t.q, t.dialect}}
}
func (t *txStore) VerificationCodes() store.VerificationCodes {
	return &verificationCodesRepo{repo{t.q, t.dialect}}
}
func (t *txStore) Identities() store.Identities       { return &identitiesRepo{repo{t.q, t.dialect}} }
func (t *txStore) Users() store.Users                 { return &usersRepo{repo{t.q, t.dialect}} }
func (t *txStore) Investors() store.Investors         { return &investorsRepo{repo{t.q, t.dialect}} }
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{repo{t.q, t.dialect}} }
