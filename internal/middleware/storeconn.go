package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/user-service/internal/repository/sqlstore"
)

type connKey struct{}

// Acquirer hands out one leased store connection. *sqlstore.Store
// implements it.
type Acquirer interface {
	Acquire(ctx context.Context) (*sqlstore.Conn, error)
}

// StoreConn leases a database connection for the lifetime of the request.
//
// CONNECTION PER REQUEST:
//
//	request in  → store.Acquire → conn in ctx → handler → conn.Close
//
// The release sits in a defer, so it runs whatever the handler does:
// returns normally, writes an error, or panics (Recoverer sits outside
// this middleware and sees the panic only after the conn is back in the
// pool).
//
// If no connection can be acquired the handler never runs and the client
// gets 503 {"detail":"Database unavailable."}.
func StoreConn(store Acquirer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := store.Acquire(r.Context())
			if err != nil {
				logger.Error("failed to acquire database connection",
					slog.String("error", err.Error()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"detail":"Database unavailable."}` + "\n"))
				return
			}

			logger.Debug("connection acquired", slog.String("lease", conn.ID.String()))
			defer func() {
				if err := conn.Close(); err != nil {
					logger.Warn("failed to release connection",
						slog.String("lease", conn.ID.String()),
						slog.String("error", err.Error()),
					)
					return
				}
				logger.Debug("connection released", slog.String("lease", conn.ID.String()))
			}()

			ctx := context.WithValue(r.Context(), connKey{}, conn)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ConnFromContext returns the connection leased by StoreConn, if any.
func ConnFromContext(ctx context.Context) (*sqlstore.Conn, bool) {
	conn, ok := ctx.Value(connKey{}).(*sqlstore.Conn)
	return conn, ok
}
