package httpapi

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"nnrunner/internal/offload"
	"nnrunner/internal/wire"
	"nnrunner/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// classify maps a service error to a status code and error kind.
func classify(err error) (int, string) {
	kind := offload.ErrorKind(err)
	switch {
	case offload.IsSessionBusy(err):
		return http.StatusTooManyRequests, kind
	case offload.IsInvalidDepth(err), offload.IsInputSizeMismatch(err):
		return http.StatusBadRequest, kind
	case wire.IsInvalidInput(err):
		return http.StatusBadRequest, "invalid_input"
	case offload.IsUnknownLayer(err):
		return http.StatusNotFound, kind
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode(), kind
	}
	return http.StatusInternalServerError, kind
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status, Kind: kind})
}
