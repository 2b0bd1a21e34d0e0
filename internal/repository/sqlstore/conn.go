package sqlstore

import (
	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/user-service/internal/repository"
)

// querier is what the repositories need from a connection. Both *sqlx.Conn
// and *sqlx.DB satisfy it.
type querier interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// Conn is one leased database connection.
//
// ID is a short, sortable identifier (xid) for correlating the acquire and
// release log lines of a single lease.
type Conn struct {
	ID      xid.ID
	conn    *sqlx.Conn
	dialect dialect
}

// Users returns a UserRepository bound to this connection.
func (c *Conn) Users() repository.UserRepository {
	return newUserStore(c.conn, c.dialect)
}

// APIKeys returns an APIKeyRepository bound to this connection.
func (c *Conn) APIKeys() repository.APIKeyRepository {
	return newAPIKeyStore(c.conn, c.dialect)
}

// Close returns the connection to the pool.
func (c *Conn) Close() error {
	return c.conn.Close()
}
