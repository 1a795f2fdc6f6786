package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/densify/pkg/errors"
)

// errorResponse is the JSON body of every error response.
type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
	Field string      `json:"field,omitempty"` // Set for INVALID_CONFIG
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeDecode, errors.ErrCodeResize, errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)

	resp := errorResponse{Error: errors.UserMessage(err), Code: code}
	var cfgErr *errors.ConfigError
	if stderrors.As(err, &cfgErr) {
		resp.Error = cfgErr.Reason
		resp.Field = cfgErr.Field
	}
	if status == http.StatusInternalServerError {
		s.loggerFromRequest(r).Error("request failed", "error", err)
		if code == "" {
			resp.Code = errors.ErrCodeInternal
		}
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
