package repository

import (
    "context"
    "database/sql"
)

// Querier is the subset of database operations the ...Tx repository
// methods need.  Both *sql.Tx and *sql.DB satisfy it: normal
// operation passes the transaction owned by the booking coordinator,
// while the explicit degraded (non-transactional) mode passes the
// bare handle.
type Querier interface {
    ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
