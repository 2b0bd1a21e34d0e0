package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/middleware"
	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/repository"
	"github.com/sakif/user-service/internal/service"
)

// UserIDParam is the chi URL parameter that carries the user id.
const UserIDParam = "user_id"

// RepoFunc returns the UserRepository a request should use.
type RepoFunc func(r *http.Request) (repository.UserRepository, error)

var errNoConn = errors.New("no database connection in request context")

// ConnRepo is the production RepoFunc: the repository bound to the
// connection leased by middleware.StoreConn.
func ConnRepo(r *http.Request) (repository.UserRepository, error) {
	conn, ok := middleware.ConnFromContext(r.Context())
	if !ok {
		return nil, apperror.Unavailable("Database unavailable.", errNoConn)
	}
	return conn.Users(), nil
}

// UserHandler serves the /users endpoints.
//
// PER-REQUEST SERVICE:
// The repository is bound to one leased connection, and that lease only
// lives as long as the request. So the handler keeps a RepoFunc, not a
// service, and builds a UserService for each request around whatever
// repository RepoFunc returns. Tests pass a RepoFunc that returns an
// in-memory repository.
type UserHandler struct {
	repo   RepoFunc
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(repo RepoFunc, logger *slog.Logger) *UserHandler {
	return &UserHandler{repo: repo, logger: logger}
}

func (h *UserHandler) service(r *http.Request) (*service.UserService, error) {
	repo, err := h.repo(r)
	if err != nil {
		return nil, err
	}
	return service.NewUserService(repo, h.logger), nil
}

// HandleCreate inserts a user and returns it with its new id.
//
// HTTP: POST /users/
// REQUEST BODY: {"role": "admin", "first_name": "Ada", ..., "age": 36}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.UserInput
	if err := decodeJSONBody(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	svc, err := h.service(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, user)
}

// HandleList returns a page of users.
//
// HTTP: GET /users/?skip=0&limit=10
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	params, err := queryInts(r, []string{"skip", "limit"}, map[string]int{
		"skip":  service.DefaultListSkip,
		"limit": service.DefaultListLimit,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	svc, err := h.service(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	users, err := svc.List(r.Context(), params["skip"], params["limit"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, users)
}

// HandleGet returns one user.
//
// HTTP: GET /users/{user_id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, UserIDParam)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	svc, err := h.service(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, user)
}

// HandleReplace overwrites every field of a user.
//
// HTTP: PUT /users/{user_id}
//
// This is PUT semantics, not PATCH: a field left out of the body is not
// kept. Omitting "age" sets it to null.
func (h *UserHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, UserIDParam)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in model.UserInput
	if err := decodeJSONBody(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	svc, err := h.service(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := svc.Replace(r.Context(), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, user)
}

// HandleDelete removes a user and returns the record that was removed.
//
// HTTP: DELETE /users/{user_id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, UserIDParam)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	svc, err := h.service(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := svc.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, user)
}
