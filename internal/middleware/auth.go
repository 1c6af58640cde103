package middleware

import (
	"context"
	"net/http"
	"strings"

	"entauth/internal/domain"
	"entauth/internal/token"
	"entauth/pkg/errors"
	"entauth/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// SubjectContextKey holds the normalized email extracted from a verified
	// identity token. Handlers must take the subject from here, never from
	// the request body.
	SubjectContextKey ContextKey = "subject"
)

const genericTokenRejection = "Invalid or expired token"

// Auth requires a valid identity token in the Authorization header
func Auth(verifier *token.Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Authorization header is required"), log)
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid authorization header format"), log)
				return
			}

			raw := strings.TrimPrefix(authHeader, "Bearer ")
			if raw == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Token is required"), log)
				return
			}

			verified, err := verifier.Verify(raw, domain.PurposeIdentity)
			if err != nil {
				// The precise reason stays in logs; the caller sees one
				// generic rejection
				log.WithError(err).Warn("Identity token rejected")
				writeErrorResponse(w, errors.NewAuthenticationError(genericTokenRejection), log)
				return
			}

			ctx := context.WithValue(r.Context(), SubjectContextKey, verified.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext returns the authenticated subject set by Auth
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectContextKey).(string)
	return subject, ok && subject != ""
}
