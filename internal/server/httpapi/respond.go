package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/services"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the failure shape shared by every endpoint.
type errorBody struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details []auth.FieldError `json:"details,omitempty"`
}

// apiError is one row of the error taxonomy as seen by clients.
type apiError struct {
	status  int
	code    string
	message string
}

var (
	errBadJSON      = apiError{http.StatusBadRequest, "invalid_json", "Request body must be valid JSON"}
	errNoToken      = apiError{http.StatusUnauthorized, "unauthorized", "No token provided"}
	errRouteMissing = apiError{http.StatusNotFound, "not_found", "Route not found"}
	errMethod       = apiError{http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed"}
	errInternal     = apiError{http.StatusInternalServerError, "internal_error", "Internal server error"}
)

// taxonomy maps service sentinels to responses. Order matters: the more
// specific sentinels come first.
var taxonomy = []struct {
	target error
	resp   apiError
}{
	{common.ErrDuplicateEmail, apiError{http.StatusBadRequest, "duplicate_email", "An account with this email already exists"}},
	{services.ErrAlreadyReviewed, apiError{http.StatusBadRequest, "duplicate", "You have already reviewed this business"}},
	{common.ErrDuplicate, apiError{http.StatusBadRequest, "duplicate", "Resource already exists"}},
	{common.ErrInvalidCredentials, apiError{http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"}},
	{common.ErrTokenExpired, apiError{http.StatusUnauthorized, "token_expired", "Token has expired, please log in again"}},
	{common.ErrInvalidToken, apiError{http.StatusUnauthorized, "invalid_token", "Invalid token"}},
	{common.ErrorUnauthorized, errNoToken},
	{common.ErrRateLimited, apiError{http.StatusTooManyRequests, "rate_limited", "Too many requests, please try again later"}},
	{common.ErrForbidden, apiError{http.StatusForbidden, "forbidden", "You are not allowed to perform this action"}},
	{common.ErrorNotFound, apiError{http.StatusNotFound, "not_found", "Resource not found"}},
	{common.ErrStorageDisabled, apiError{http.StatusServiceUnavailable, "storage_disabled", "Image uploads are not configured"}},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, e apiError) {
	writeJSON(w, e.status, errorBody{Error: e.code, Message: e.message})
}

// writeError translates err into the public taxonomy. Unknown errors are
// logged and answered with a generic 500.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "validation_error",
			Message: verr.Error(),
			Details: verr.Fields,
		})
		return
	}

	for _, row := range taxonomy {
		if errors.Is(err, row.target) {
			writeAPIError(w, row.resp)
			return
		}
	}

	if !errors.Is(err, common.ErrorInternal) {
		s.logger.Error(r.Context(), "unmapped error", "path", r.URL.Path, "error", err)
	}
	writeAPIError(w, errInternal)
}

// decodeJSON reads a single JSON object from the request body. An empty
// body decodes as the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
