package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/repository"
)

var _ repository.APIKeyRepository = (*apiKeyStore)(nil)

type apiKeyStore struct {
	q querier

	insertSQL string
	getSQL    string
}

func newAPIKeyStore(q querier, d dialect) *apiKeyStore {
	bind := sqlx.BindType(d.driver)
	return &apiKeyStore{
		q: q,
		insertSQL: sqlx.Rebind(bind,
			`INSERT INTO apikeys (api_key, user_id, title) VALUES (?, ?, ?)`),
		getSQL: sqlx.Rebind(bind,
			`SELECT api_key, user_id, title FROM apikeys WHERE api_key = ?`),
	}
}

// Create stores a key. A zero key.Key is replaced with a random (v4) UUID
// before the insert. key.UserID is stored as given; it is not checked
// against the user table.
func (s *apiKeyStore) Create(ctx context.Context, key *model.APIKey) error {
	if key.Key == uuid.Nil {
		key.Key = uuid.New()
	}

	_, err := s.q.ExecContext(ctx, s.insertSQL, key.Key.String(), key.UserID, key.Title)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting api key: %w", err)
	}
	return nil
}

// GetByKey looks a key up by its UUID.
func (s *apiKeyStore) GetByKey(ctx context.Context, key uuid.UUID) (*model.APIKey, error) {
	var k model.APIKey

	err := sqlx.GetContext(ctx, s.q, &k, s.getSQL, key.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("API key")
		}
		return nil, fmt.Errorf("sqlstore: getting api key %s: %w", key, err)
	}

	return &k, nil
}
