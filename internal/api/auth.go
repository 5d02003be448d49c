package api

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"sync/atomic"

	"cosmossdk.io/errors"

	"github.com/AaronLay10/BlindEngine/internal/config"
)

// Role is what an authenticated caller may do. Admins may everything;
// observers read the ledger and follow the event stream.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleObserver Role = "observer"
)

const (
	EnvAdminUser    = "BLINDENGINE_ADMIN_USER"
	EnvAdminPass    = "BLINDENGINE_ADMIN_PASS"
	EnvObserverUser = "BLINDENGINE_OBSERVER_USER"
	EnvObserverPass = "BLINDENGINE_OBSERVER_PASS"
)

type credential struct {
	role       Role
	user, pass string
}

// auth is nil or empty when authentication is off.
var auth []credential

var authFailures atomic.Uint64

// InitAuth loads credentials from the environment, honouring the *_FILE
// convention. Without admin credentials authentication stays off; observer
// credentials alone are ignored.
func InitAuth() error {
	auth = nil
	var creds []credential
	for _, c := range []struct {
		role             Role
		userEnv, passEnv string
	}{
		{RoleAdmin, EnvAdminUser, EnvAdminPass},
		{RoleObserver, EnvObserverUser, EnvObserverPass},
	} {
		user, err := config.ResolveSecret(c.userEnv)
		if err != nil {
			return errors.Wrapf(err, "resolve %s", c.userEnv)
		}
		pass, err := config.ResolveSecret(c.passEnv)
		if err != nil {
			return errors.Wrapf(err, "resolve %s", c.passEnv)
		}
		if user != "" && pass != "" {
			creds = append(creds, credential{role: c.role, user: user, pass: pass})
		}
	}
	if len(creds) > 0 && creds[0].role == RoleAdmin {
		auth = creds
	}
	return nil
}

func IsAuthEnabled() bool { return len(auth) > 0 }

// AuthFailures counts rejected credentials since startup.
func AuthFailures() uint64 { return authFailures.Load() }

// authenticate returns the caller's role, or "" for missing or bad
// credentials. Every configured credential is compared so timing does not
// reveal which one matched.
func authenticate(r *http.Request) Role {
	if !IsAuthEnabled() {
		return RoleAdmin
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}
	var role Role
	for _, c := range auth {
		if secureCompare(user, c.user) && secureCompare(pass, c.pass) && role == "" {
			role = c.role
		}
	}
	if role == "" {
		authFailures.Add(1)
	}
	return role
}

// secureCompare is a constant-time string comparison.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// RequireRole admits callers holding one of roles.
func RequireRole(handler http.HandlerFunc, roles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := authenticate(r)
		switch {
		case role == "":
			w.Header().Set("WWW-Authenticate", `Basic realm="BlindEngine"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		case !slices.Contains(roles, role):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			handler(w, r)
		}
	}
}

func RequireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin, RoleObserver)
}

func RequireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin)
}
