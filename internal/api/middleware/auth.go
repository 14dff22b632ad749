package middleware

import (
	"context"
	"net/http"
	"strings"

	"kindklick/internal/services"
)

type contextKey string

const (
	CredentialsContextKey contextKey = "credentials"

	// PinHeader carries the parent PIN on gated requests
	PinHeader = "X-Parent-Pin"
)

// Credentials collects the parent PIN header and any bearer unlock token
// into the request context. It never rejects a request; the services
// decide whether the credentials are required.
func Credentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := services.Credentials{
			PIN:   strings.TrimSpace(r.Header.Get(PinHeader)),
			Token: bearerToken(r.Header.Get("Authorization")),
		}
		ctx := context.WithValue(r.Context(), CredentialsContextKey, creds)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCredentials extracts credentials from request context
func GetCredentials(r *http.Request) services.Credentials {
	creds, _ := r.Context().Value(CredentialsContextKey).(services.Credentials)
	return creds
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
