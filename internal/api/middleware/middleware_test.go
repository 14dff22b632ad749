package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"kindklick/internal/services"
)

func TestCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pin  string
		auth string
		want services.Credentials
	}{
		{"none", "", "", services.Credentials{}},
		{"pin header", " 1234 ", "", services.Credentials{PIN: "1234"}},
		{"bearer", "", "Bearer abc.def", services.Credentials{Token: "abc.def"}},
		{"lowercase scheme", "", "bearer xyz", services.Credentials{Token: "xyz"}},
		{"basic ignored", "", "Basic Zm9vOmJhcg==", services.Credentials{}},
		{"both", "1234", "Bearer t", services.Credentials{PIN: "1234", Token: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got services.Credentials
			h := Credentials(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = GetCredentials(r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.pin != "" {
				req.Header.Set(PinHeader, tt.pin)
			}
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("credentials = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGetCredentials_Missing(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetCredentials(req); !got.Empty() {
		t.Errorf("expected empty credentials, got %+v", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	called := false
	h := CORS(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/settings", nil))

	if rec.Code != http.StatusOK || called {
		t.Errorf("preflight: status %d, called %v", rec.Code, called)
	}
	if rec.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Error("missing allow headers")
	}
}
