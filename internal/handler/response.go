package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError so that status
// codes and body shapes are decided in one place.
//
// ERROR FORMAT:
// Every error body has a single "detail" key. For most errors it is a
// string:
//
//	{"detail": "User not found."}
//
// For validation errors it is a list, one entry per bad input, so a client
// can point at the exact field:
//
//	{"detail": [{"loc": ["body", "email"], "msg": "field required", "type": "value_error.missing"}]}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"github.com/sakif/user-service/internal/apperror"
)

// ErrorResponse is the body of every non-2xx response.
// Detail is a string or a []ValidationDetail.
type ErrorResponse struct {
	Detail any `json:"detail"`
}

// ValidationDetail describes one rejected input value.
type ValidationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// writeJSON sends data as JSON with the given status.
// Headers and status must go out before the body; Encode writes the body.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and body.
//
//	apperror.ErrNotFound    → 404 {"detail": "<message>"}
//	apperror.ErrValidation  → 422 {"detail": [ ... ]}
//	apperror.ErrUnavailable → 503 {"detail": "<message>"}
//	anything else           → 500 {"detail": "Internal Server Error"}
//
// The last case logs the real error. Its text is never sent to the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		writeJSON(w, logger, http.StatusUnprocessableEntity, ErrorResponse{Detail: validationDetails(err)})

	case errors.Is(err, apperror.ErrNotFound):
		writeJSON(w, logger, http.StatusNotFound, ErrorResponse{Detail: messageOf(err)})

	case errors.Is(err, apperror.ErrUnavailable):
		logger.Error("backing store unavailable", slog.String("error", err.Error()))
		writeJSON(w, logger, http.StatusServiceUnavailable, ErrorResponse{Detail: messageOf(err)})

	default:
		logger.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{Detail: "Internal Server Error"})
	}
}

// messageOf returns the client-facing message of the first *AppError in
// the chain.
func messageOf(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// validationDetails flattens a validation error into detail entries.
// It accepts a ValidationErrors list or a single *AppError.
func validationDetails(err error) []ValidationDetail {
	var list apperror.ValidationErrors
	if errors.As(err, &list) {
		return lo.Map(list, func(e *apperror.AppError, _ int) ValidationDetail {
			return toDetail(e)
		})
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return []ValidationDetail{toDetail(appErr)}
	}

	return []ValidationDetail{{Loc: []string{}, Msg: err.Error(), Type: "value_error"}}
}

func toDetail(e *apperror.AppError) ValidationDetail {
	loc := e.Loc
	if loc == nil {
		loc = []string{}
	}
	kind := e.Type
	if kind == "" {
		kind = "value_error"
	}
	return ValidationDetail{Loc: loc, Msg: e.Message, Type: kind}
}
