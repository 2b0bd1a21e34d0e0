package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sakif/user-service/internal/model"
)

// ListOptions is plain offset/limit paging. Both are taken as given:
// callers reject negatives before they reach a repository.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository is the persistence contract for users.
//
// Update and Delete return apperror.ErrNotFound (wrapped) when no row has the
// given id, so callers never need a separate existence check.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
}

// APIKeyRepository stores issued API keys. No HTTP route uses it yet.
type APIKeyRepository interface {
	Create(ctx context.Context, key *model.APIKey) error
	GetByKey(ctx context.Context, key uuid.UUID) (*model.APIKey, error)
}
