package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/comparator/comparatortest"
)

func TestUserStatus(t *testing.T) {
	env := newTestEnv(t, comparatortest.New(nil))
	env.register(t, "alice@x.com", 3)

	tests := []struct {
		name       string
		param      string
		email      string
		registered bool
		images     int
	}{
		{"registered", "alice@x.com", "alice@x.com", true, 3},
		{"escaped", "alice%40x.com", "alice@x.com", true, 3},
		{"unknown", "bob@x.com", "bob@x.com", false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/users/x", nil), map[string]string{"email": tc.param})
			recorder := httptest.NewRecorder()
			env.handler.UserStatus(recorder, req)

			assertStatusCode(t, recorder, http.StatusOK)

			var result userStatusResponse
			parseJSONResponse(t, recorder, &result)
			if result.Email != tc.email || result.Registered != tc.registered || result.Images != tc.images {
				t.Errorf("unexpected status: %+v", result)
			}
		})
	}
}

func TestUserStatus_InvalidEmail(t *testing.T) {
	env := newTestEnv(t, comparatortest.New(nil))

	tests := []struct {
		name    string
		param   string
		message string
	}{
		{"bad escape", "alice%zz", "invalid email"},
		{"traversal", "..", "invalid email"},
		{"empty", "", "no email"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/users/x", nil), map[string]string{"email": tc.param})
			recorder := httptest.NewRecorder()
			env.handler.UserStatus(recorder, req)

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tc.message)
		})
	}
}
