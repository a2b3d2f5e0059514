package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenFromRequest(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer token", "Bearer abc-123", "abc-123"},
		{"no header", "", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"bare token without scheme", "abc-123", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			if got := TokenFromRequest(req); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
