package identity

import (
	"context"
	"net/http"
	"strings"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Provider resolves a session token to the current user. A nil user with a
// nil error means the session does not exist or has expired.
type Provider interface {
	CurrentUser(ctx context.Context, token string) (*User, error)
}

// TokenFromRequest extracts the bearer token from the Authorization
// header. Returns "" when no token is present.
func TokenFromRequest(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return ""
}
