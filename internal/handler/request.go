package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/user-service/internal/apperror"
)

// maxBodyBytes caps request bodies. A user record is a handful of short
// strings; anything near this size is not a user.
const maxBodyBytes = 1 << 20

// decodeJSONBody reads the request body into dst.
//
// Failures come back as validation errors located in the body, so they
// reach the client as 422 like every other bad input:
//
//	empty body          → ["body"]        value_error.missing
//	malformed JSON      → ["body"]        value_error.jsondecode
//	wrong value type    → ["body", field] type_error.<kind>
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		return nil
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		sizeErr   *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return apperror.ValidationFailed([]string{"body"}, "value_error.missing", "field required")

	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperror.ValidationFailed([]string{"body"}, "value_error.jsondecode", "Invalid JSON body")

	case errors.As(err, &typeErr):
		return typeError(typeErr)

	case errors.As(err, &sizeErr):
		return apperror.ValidationFailed([]string{"body"}, "value_error",
			fmt.Sprintf("request body must not be larger than %d bytes", sizeErr.Limit))

	default:
		return err
	}
}

// typeError reports a JSON value whose type does not fit the field.
func typeError(e *json.UnmarshalTypeError) error {
	if e.Field == "" {
		// The whole body had the wrong type: a list or a scalar instead of
		// an object.
		return apperror.ValidationFailed([]string{"body"}, "type_error.dict", "value is not a valid dict")
	}

	loc := []string{"body", e.Field}
	kind := e.Type.Kind()
	if kind == reflect.Pointer {
		kind = e.Type.Elem().Kind()
	}

	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return apperror.ValidationFailed(loc, "type_error.integer", "value is not a valid integer")
	case reflect.String:
		return apperror.ValidationFailed(loc, "type_error.str", "str type expected")
	default:
		return apperror.ValidationFailed(loc, "type_error", fmt.Sprintf("value is not a valid %s", kind))
	}
}

// pathInt64 parses a path parameter as an int64.
func pathInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed([]string{"path", name},
			"type_error.integer", "value is not a valid integer")
	}
	return v, nil
}

// queryInts reads optional integer query parameters. Absent parameters
// keep their value in defaults. Every parameter that is present but not an
// integer is reported, not just the first.
func queryInts(r *http.Request, names []string, defaults map[string]int) (map[string]int, error) {
	q := r.URL.Query()
	out := make(map[string]int, len(names))
	var errs apperror.ValidationErrors

	for _, name := range names {
		out[name] = defaults[name]
		if !q.Has(name) {
			continue
		}
		v, err := strconv.Atoi(q.Get(name))
		if err != nil {
			errs = append(errs, apperror.ValidationFailed([]string{"query", name},
				"type_error.integer", "value is not a valid integer"))
			continue
		}
		out[name] = v
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}
