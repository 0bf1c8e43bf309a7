package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/datefmt/pkg/datefmt"
)

var (
	errBadRequest       = errors.New("invalid request")
	errNotFound         = errors.New("not found")
	errMethodNotAllowed = errors.New("method not allowed")
	errInternal         = errors.New("internal error")
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// isClientError reports errors caused by the request itself.
func isClientError(err error) bool {
	for _, target := range []error{
		errBadRequest,
		datefmt.ErrInvalidDate,
		datefmt.ErrInvalidLocale,
		datefmt.ErrInvalidOption,
		datefmt.ErrInvalidTimeZone,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// publicError maps err to a status and a message safe to return.
func publicError(err error) (int, error) {
	if isClientError(err) {
		return http.StatusBadRequest, err
	}
	return http.StatusInternalServerError, errInternal
}
