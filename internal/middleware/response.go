package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"entauth/pkg/errors"
	"entauth/pkg/logger"
)

// writeErrorResponse writes an AppError as the standard JSON error envelope
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if appErr.Type == errors.ErrorTypeRateLimit {
		if retryAfter := appErr.RetryAfter(); retryAfter > 0 {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		}
	}
	w.WriteHeader(appErr.StatusCode)

	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":    string(appErr.Type),
			"message": appErr.Message,
		},
	}
	if appErr.Details != nil {
		response["error"].(map[string]interface{})["details"] = appErr.Details
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.WithError(err).Error("Failed to encode error response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
