package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/refresh-agent/refresh-api/internal/utils"
)

// respondJSON writes a success envelope. Keys in data are emitted alongside
// "success": true.
func respondJSON(w http.ResponseWriter, logger *utils.Logger, status int, data map[string]any) {
	payload := map[string]any{"success": true}
	for k, v := range data {
		payload[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError maps the failure taxonomy onto HTTP statuses and writes an
// error envelope.
func respondError(w http.ResponseWriter, logger *utils.Logger, err error) {
	status := http.StatusInternalServerError
	code := utils.CodeInternal
	message := "Internal server error"

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode
		code = appErr.Code
		message = appErr.Message
	}

	logger.Error("Request error", "status", status, "code", code, "error", err.Error())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// decodeJSON rejects malformed bodies with a 400 instead of a 500.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.NewBadRequestError("Invalid JSON body")
	}
	return nil
}
