package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/config"
)

// Role is an access level. Each role may do everything the lower ones can.
type Role int

const (
	roleNone Role = iota
	// RoleKiosk may only send audience input and watch events.
	RoleKiosk
	RoleOperator
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleKiosk:
		return "kiosk"
	case RoleOperator:
		return "operator"
	case RoleAdmin:
		return "admin"
	}
	return "none"
}

type credentials struct {
	user string
	pass string
	role Role
}

type authConfig struct {
	accounts []credentials
	enabled  bool
}

var auth *authConfig

// accountEnv maps each role to the prefix of its USER/PASS variables.
var accountEnv = []struct {
	prefix string
	role   Role
}{
	{"SENTIENT_ADMIN", RoleAdmin},
	{"SENTIENT_OPERATOR", RoleOperator},
	{"SENTIENT_KIOSK", RoleKiosk},
}

// InitAuth reads accounts from SENTIENT_{ADMIN,OPERATOR,KIOSK}_{USER,PASS},
// each of which may also come from a *_FILE. Without an admin account every
// request is treated as admin.
func InitAuth() error {
	cfg := &authConfig{}
	for _, acct := range accountEnv {
		user, err := config.ResolveSecret(acct.prefix + "_USER")
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
		pass, err := config.ResolveSecret(acct.prefix + "_PASS")
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
		if user == "" || pass == "" {
			continue
		}
		cfg.accounts = append(cfg.accounts, credentials{user: user, pass: pass, role: acct.role})
		cfg.enabled = cfg.enabled || acct.role == RoleAdmin
	}
	auth = cfg

	if cfg.enabled {
		log.WithField("accounts", len(cfg.accounts)).Info("api: basic auth enabled")
	} else {
		log.Warn("api: no admin credentials configured, authentication disabled")
	}
	return nil
}

// IsAuthEnabled reports whether requests must carry credentials.
func IsAuthEnabled() bool {
	return auth != nil && auth.enabled
}

// roleOf returns the caller's role, or roleNone for bad credentials.
func roleOf(r *http.Request) Role {
	if !IsAuthEnabled() {
		return RoleAdmin
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return roleNone
	}
	found := roleNone
	for _, c := range auth.accounts {
		// Check every account so timing does not reveal which one matched.
		if secureCompare(user, c.user) && secureCompare(pass, c.pass) && found == roleNone {
			found = c.role
		}
	}
	return found
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// RequireRole admits callers holding at least the given role.
func RequireRole(least Role, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch role := roleOf(r); {
		case role == roleNone:
			w.Header().Set("WWW-Authenticate", `Basic realm="Sentient Player"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		case role < least:
			log.WithFields(log.Fields{"path": r.URL.Path, "role": role}).Debug("api: role not permitted")
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			handler(w, r)
		}
	}
}

// RequireOperator admits operators and admins.
func RequireOperator(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(RoleOperator, handler)
}

// RequireAnyRole admits any authenticated caller.
func RequireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(RoleKiosk, handler)
}
