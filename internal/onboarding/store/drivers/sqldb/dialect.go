// Package sqldb implements store.Store over database/sql. The sqlite and
// postgres drivers open the connection and supply a Dialect.
package sqldb

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/harborfund/portal/internal/onboarding/store/drivers/sqldb/gen"
)

// Dialect captures what differs between SQL backends.
type Dialect struct {
	Name string

	// Rebind rewrites ? placeholders for backends that number them.
	// Nil leaves statements untouched.
	Rebind func(query string) string

	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation func(err error) bool

	// Migrate applies the backend's embedded migrations.
	Migrate func(db *sql.DB) error
}

// DollarPlaceholders rewrites each ? to $1, $2, ... skipping quoted literals.
func DollarPlaceholders(query string) string {
	var (
		b      strings.Builder
		n      int
		quoted bool
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// rebindDB rewrites statements before handing them to the underlying DBTX.
type rebindDB struct {
	db     gen.DBTX
	rebind func(string) string
}

func (r rebindDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.rebind(query), args...)
}

func (r rebindDB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return r.db.PrepareContext(ctx, r.rebind(query))
}

func (r rebindDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.rebind(query), args...)
}

func (r rebindDB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.db.QueryRowContext(ctx, r.rebind(query), args...)
}

func (d Dialect) queries(db gen.DBTX) *gen.Queries {
	if d.Rebind == nil {
		return gen.New(db)
	}
	return gen.New(rebindDB{db: db, rebind: d.Rebind})
}
