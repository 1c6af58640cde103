package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"entauth/pkg/errors"
	"entauth/pkg/logger"
)

// writeJSON writes a success payload
func writeJSON(w http.ResponseWriter, status int, payload interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// writeError writes an error as the standard JSON error envelope. Unknown
// error values collapse to a generic internal error so nothing internal
// leaks to callers.
func writeError(w http.ResponseWriter, err error, log *logger.Logger) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		log.WithError(err).Error("Unhandled error type")
		appErr = errors.NewInternalError("Internal server error", err)
	}

	if appErr.Type == errors.ErrorTypeInternal || appErr.Type == errors.ErrorTypeExternal {
		log.WithError(appErr).Error("Request error")
	}

	w.Header().Set("Content-Type", "application/json")
	if appErr.Type == errors.ErrorTypeRateLimit {
		if retryAfter := appErr.RetryAfter(); retryAfter > 0 {
			w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
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

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		log.WithError(encodeErr).Error("Failed to encode error response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// clientIP extracts the client address; chi's RealIP middleware has already
// resolved forwarding headers into RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
