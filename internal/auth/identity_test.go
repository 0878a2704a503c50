package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOptionalIdentity(t *testing.T) {
	svc := NewJWTService(testSecret, "")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mentorToken, err := svc.GenerateAccessToken(RoleMentor, 3)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		header   string
		wantOK   bool
		wantRole Role
		wantID   int64
	}{
		{"no header", "", false, "", 0},
		{"valid bearer", "Bearer " + mentorToken, true, RoleMentor, 3},
		{"lowercase scheme", "bearer " + mentorToken, true, RoleMentor, 3},
		{"basic auth", "Basic dXNlcjpwYXNz", false, "", 0},
		{"empty bearer", "Bearer ", false, "", 0},
		{"invalid token", "Bearer not-a-token", false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got    Identity
				gotOK  bool
				called bool
			)
			handler := OptionalIdentity(svc, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got, gotOK = IdentityFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/feed/mentors", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if !called || rr.Code != http.StatusOK {
				t.Fatalf("request was not passed through (status %d)", rr.Code)
			}
			if gotOK != tt.wantOK {
				t.Fatalf("identity present = %v, want %v", gotOK, tt.wantOK)
			}
			if gotOK && (got.Role != tt.wantRole || got.ProfileID != tt.wantID) {
				t.Errorf("identity = %+v, want %s/%d", got, tt.wantRole, tt.wantID)
			}
		})
	}
}
