package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func resetAuth() {
	auth = nil
}

func testAccounts() *authConfig {
	return &authConfig{
		accounts: []credentials{
			{user: "admin", pass: "secret", role: RoleAdmin},
			{user: "operator", pass: "opsecret", role: RoleOperator},
			{user: "kiosk", pass: "kiosksecret", role: RoleKiosk},
		},
		enabled: true,
	}
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthDisabledGrantsAdmin(t *testing.T) {
	auth = &authConfig{}
	defer resetAuth()

	w := httptest.NewRecorder()
	RequireRole(RoleAdmin, okHandler)(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with auth disabled, got %d", w.Code)
	}
}

func TestMissingCredentialsChallenge(t *testing.T) {
	auth = testAccounts()
	defer resetAuth()

	w := httptest.NewRecorder()
	RequireAnyRole(okHandler)(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected a basic auth challenge")
	}
}

func TestRoleHierarchy(t *testing.T) {
	auth = testAccounts()
	defer resetAuth()

	cases := []struct {
		min        Role
		user, pass string
		want       int
	}{
		{RoleAdmin, "admin", "secret", http.StatusOK},
		{RoleAdmin, "operator", "opsecret", http.StatusForbidden},
		{RoleOperator, "admin", "secret", http.StatusOK},
		{RoleOperator, "operator", "opsecret", http.StatusOK},
		{RoleOperator, "kiosk", "kiosksecret", http.StatusForbidden},
		{RoleKiosk, "kiosk", "kiosksecret", http.StatusOK},
		{RoleKiosk, "admin", "wrongpassword", http.StatusUnauthorized},
		{RoleKiosk, "nobody", "secret", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/control/play", nil)
		req.SetBasicAuth(tc.user, tc.pass)
		w := httptest.NewRecorder()
		RequireRole(tc.min, okHandler)(w, req)

		if w.Code != tc.want {
			t.Errorf("%s needing %s: expected %d, got %d", tc.user, tc.min, tc.want, w.Code)
		}
	}
}

func TestInitAuthFromEnv(t *testing.T) {
	defer resetAuth()
	t.Setenv("SENTIENT_ADMIN_USER", "admin")
	t.Setenv("SENTIENT_ADMIN_PASS", "secret")
	t.Setenv("SENTIENT_OPERATOR_USER", "")
	t.Setenv("SENTIENT_OPERATOR_PASS", "")
	t.Setenv("SENTIENT_KIOSK_USER", "kiosk")
	t.Setenv("SENTIENT_KIOSK_PASS", "k")

	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth: %v", err)
	}
	if !IsAuthEnabled() {
		t.Fatal("expected auth enabled with admin credentials")
	}
	if len(auth.accounts) != 2 {
		t.Errorf("expected admin and kiosk accounts, got %d", len(auth.accounts))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("kiosk", "k")
	if role := roleOf(req); role != RoleKiosk {
		t.Errorf("expected kiosk, got %s", role)
	}
}

func TestInitAuthWithoutAdmin(t *testing.T) {
	defer resetAuth()
	t.Setenv("SENTIENT_ADMIN_USER", "")
	t.Setenv("SENTIENT_ADMIN_PASS", "")
	t.Setenv("SENTIENT_KIOSK_USER", "")
	t.Setenv("SENTIENT_KIOSK_PASS", "")
	t.Setenv("SENTIENT_OPERATOR_USER", "operator")
	t.Setenv("SENTIENT_OPERATOR_PASS", "opsecret")

	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth: %v", err)
	}
	if IsAuthEnabled() {
		t.Error("auth should stay disabled without admin credentials")
	}
}

func TestInitAuthUnreadableSecret(t *testing.T) {
	defer resetAuth()
	t.Setenv("SENTIENT_ADMIN_USER_FILE", "/nonexistent/admin-user")

	if err := InitAuth(); err == nil {
		t.Fatal("expected an error for an unreadable secret file")
	}
}
