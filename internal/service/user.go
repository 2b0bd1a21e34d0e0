// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// For users the "business logic" is thin: check required fields are
// present, reject negative paging, and read a user back before deleting it
// so the caller gets the removed record.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/repository"
)

// Paging defaults applied by the HTTP layer when skip/limit are absent.
// No upper bound is applied to limit.
const (
	DefaultListSkip  = 0
	DefaultListLimit = 10
)

// UserService handles the user operations.
//
// A UserService is cheap to build. The HTTP layer creates one per request
// around the repository bound to that request's leased connection.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates the payload and inserts a new user. Any id in the
// payload is ignored; the store assigns one.
func (s *UserService) Create(ctx context.Context, in model.UserInput) (*model.User, error) {
	if err := ValidateUserInput(in); err != nil {
		return nil, err
	}

	user := in.ToUser()
	if err := s.repo.Create(ctx, &user); err != nil {
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created", slog.Int64("id", user.ID))

	return &user, nil
}

// List returns up to limit users starting at skip, in id order.
func (s *UserService) List(ctx context.Context, skip, limit int) ([]model.User, error) {
	var errs apperror.ValidationErrors
	if skip < 0 {
		errs = append(errs, apperror.ValidationFailed([]string{"query", "skip"},
			"value_error.number.not_ge", "ensure this value is greater than or equal to 0"))
	}
	if limit < 0 {
		errs = append(errs, apperror.ValidationFailed([]string{"query", "limit"},
			"value_error.number.not_ge", "ensure this value is greater than or equal to 0"))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	users, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: skip,
	})
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}

	return users, nil
}

// Get retrieves a user by id. Returns apperror.ErrNotFound if absent.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Replace overwrites every field of user id with the payload.
//
// FULL REPLACE, NOT MERGE:
// Fields missing from the payload do not keep their stored value. Optional
// ones take their default (age → null). Required ones must be present, so
// validation rejects a payload that leaves them out.
//
// Existence is checked by the UPDATE itself: zero matched rows comes back
// from the repository as NotFound. The result is re-read from the store so
// the caller sees the row as persisted, not the payload.
func (s *UserService) Replace(ctx context.Context, id int64, in model.UserInput) (*model.User, error) {
	if err := ValidateUserInput(in); err != nil {
		return nil, err
	}

	user := in.ToUser()
	user.ID = id

	if err := s.repo.Update(ctx, &user); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to replace user",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("replacing user: %w", err)
	}

	stored, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user replaced", slog.Int64("id", id))

	return stored, nil
}

// Delete removes user id and returns the record as it was just before.
func (s *UserService) Delete(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("deleting user: %w", err)
	}

	s.logger.Info("user deleted", slog.Int64("id", id))

	return user, nil
}
