package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/sirupsen/logrus"
)

// writeJSON encodes payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps a domain error onto its HTTP status. Internal causes are
// logged, never returned.
func writeError(w http.ResponseWriter, logger *logrus.Logger, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeInternal {
		logger.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).WithError(err).Error("request failed")
	}
	writeJSON(w, code.HTTPStatus(), map[string]any{
		"success": false,
		"code":    code,
		"message": apperrors.PublicMessage(err),
	})
}

// decodeJSON reads a JSON request body into target.
func decodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return apperrors.InvalidInput("invalid request body: %v", err)
	}
	return nil
}
