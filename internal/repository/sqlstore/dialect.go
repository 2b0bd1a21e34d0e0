package sqlstore

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// dialect captures the handful of places where the supported databases
// disagree: driver name, identifier quoting, how a new row's id is read
// back, and DSN tweaks the store relies on.
type dialect struct {
	name   string // config value: "sqlite", "postgres", "mysql"
	driver string // database/sql driver name registered by the blank imports

	quote func(ident string) string

	// returningID is true when INSERT ... RETURNING id is used instead of
	// sql.Result.LastInsertId (pgx does not implement LastInsertId).
	returningID bool

	normalizeDSN func(dsn string) (string, error)
}

var dialects = map[string]dialect{
	"sqlite": {
		name:         "sqlite",
		driver:       "sqlite",
		quote:        doubleQuote,
		normalizeDSN: sqliteDSN,
	},
	"postgres": {
		name:         "postgres",
		driver:       "pgx",
		quote:        doubleQuote,
		returningID:  true,
		normalizeDSN: passthroughDSN,
	},
	"mysql": {
		name:         "mysql",
		driver:       "mysql",
		quote:        backtickQuote,
		normalizeDSN: mysqlDSN,
	},
}

// Drivers lists the accepted values for the database driver setting.
func Drivers() []string {
	return []string{"sqlite", "postgres", "mysql"}
}

func lookupDialect(name string) (dialect, error) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return dialect{}, fmt.Errorf("sqlstore: unsupported driver %q (want one of %s)",
			name, strings.Join(Drivers(), ", "))
	}
	return d, nil
}

func doubleQuote(ident string) string { return `"` + ident + `"` }

func backtickQuote(ident string) string { return "`" + ident + "`" }

func passthroughDSN(dsn string) (string, error) { return dsn, nil }

// sqliteDSN appends the per-connection pragmas the store depends on.
//
// PRAGMAS IN THE DSN, NOT IN Exec:
// database/sql hands out many connections from its pool. A PRAGMA run
// through db.Exec only configures whichever connection happened to serve
// that call. modernc.org/sqlite applies every _pragma query parameter to
// each new connection, so the setting holds for every lease.
//
// busy_timeout makes concurrent writers wait for the file lock instead of
// failing immediately with SQLITE_BUSY. WAL lets readers proceed during a
// write; it is meaningless for in-memory databases, so it is skipped there.
func sqliteDSN(dsn string) (string, error) {
	if strings.Contains(dsn, "_pragma=") {
		return dsn, nil
	}

	params := url.Values{}
	params.Add("_pragma", "busy_timeout(5000)")
	if !isMemoryDSN(dsn) {
		params.Add("_pragma", "journal_mode(WAL)")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + params.Encode(), nil
}

// mysqlDSN forces ClientFoundRows so UPDATE reports matched rows, not
// changed rows. Without it, replacing a user with identical values would
// affect zero rows and be reported as not found.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("sqlstore: parsing mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" ||
		strings.HasPrefix(dsn, ":memory:?") ||
		strings.Contains(dsn, "mode=memory")
}
