package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func doAuth(handler http.HandlerFunc, user, pass string) int {
	req := httptest.NewRequest(http.MethodGet, "/rounds", nil)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w.Code
}

func TestAuthDisabledWithoutCredentials(t *testing.T) {
	resetGlobals(t)
	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth failed: %v", err)
	}
	if IsAuthEnabled() {
		t.Fatal("auth should be disabled when no env vars are set")
	}
	if code := doAuth(RequireAdmin(okHandler), "", ""); code != http.StatusOK {
		t.Errorf("expected 200 with auth disabled, got %d", code)
	}
}

func TestAuthRoles(t *testing.T) {
	resetGlobals(t)
	t.Setenv(EnvAdminUser, "admin")
	t.Setenv(EnvAdminPass, "secret")
	t.Setenv(EnvObserverUser, "observer")
	t.Setenv(EnvObserverPass, "watch")
	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth failed: %v", err)
	}
	if !IsAuthEnabled() {
		t.Fatal("auth should be enabled")
	}

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		user     string
		pass     string
		wantCode int
	}{
		{"no credentials", RequireAnyRole(okHandler), "", "", http.StatusUnauthorized},
		{"admin on any-role", RequireAnyRole(okHandler), "admin", "secret", http.StatusOK},
		{"observer on any-role", RequireAnyRole(okHandler), "observer", "watch", http.StatusOK},
		{"wrong password", RequireAnyRole(okHandler), "admin", "nope", http.StatusUnauthorized},
		{"admin on admin-only", RequireAdmin(okHandler), "admin", "secret", http.StatusOK},
		{"observer on admin-only", RequireAdmin(okHandler), "observer", "watch", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := doAuth(tt.handler, tt.user, tt.pass); code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, code)
			}
		})
	}
	if got := AuthFailures(); got != 1 {
		t.Errorf("expected one rejected credential, got %d", got)
	}
}

func TestAuthObserverAloneStaysDisabled(t *testing.T) {
	resetGlobals(t)
	t.Setenv(EnvObserverUser, "observer")
	t.Setenv(EnvObserverPass, "watch")
	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth failed: %v", err)
	}
	if IsAuthEnabled() {
		t.Error("observer credentials without an admin must not enable auth")
	}
}

func TestAuthOnlyAdminConfigured(t *testing.T) {
	resetGlobals(t)
	t.Setenv(EnvAdminUser, "admin")
	t.Setenv(EnvAdminPass, "secret")
	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth failed: %v", err)
	}

	// Empty observer credentials must never match.
	if code := doAuth(RequireAnyRole(okHandler), "", ""); code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("", "")
	if role := authenticate(req); role != "" {
		t.Errorf("expected no role for empty credentials, got %q", role)
	}
}

func TestAuthFromSecretFile(t *testing.T) {
	resetGlobals(t)
	path := filepath.Join(t.TempDir(), "admin_pass")
	if err := os.WriteFile(path, []byte("from-file\n"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv(EnvAdminUser, "admin")
	t.Setenv(EnvAdminPass+"_FILE", path)
	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth failed: %v", err)
	}
	if code := doAuth(RequireAdmin(okHandler), "admin", "from-file"); code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}

	t.Setenv(EnvAdminPass+"_FILE", filepath.Join(t.TempDir(), "missing"))
	if err := InitAuth(); err == nil {
		t.Error("expected error for unreadable secret file")
	}
}

func TestSecureCompare(t *testing.T) {
	if !secureCompare("abc", "abc") {
		t.Error("equal strings should match")
	}
	if secureCompare("abc", "abd") || secureCompare("abc", "abcd") || secureCompare("", "a") {
		t.Error("different strings should not match")
	}
}
