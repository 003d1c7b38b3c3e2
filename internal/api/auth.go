package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"carspa/internal/config"
)

const (
	defaultAPIKeyHeader = "x-api-key"
	defaultExtraHeader  = "x-api-extra"

	PermReadInquiries = "read:inquiries"
)

var (
	errPermissionDenied = errors.New("permission denied")
	errMissingAPIKey    = errors.New("missing api key headers")
	errInvalidAPIKey    = errors.New("invalid api key")
	errInvalidExtra     = errors.New("invalid extra header")
)

// HTTPAuth guards the staff endpoints with API keys from the config.
type HTTPAuth struct {
	cfg     config.AuthConfig
	clients map[string]config.APIClientKey
}

func NewHTTPAuth(cfg config.AuthConfig) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{cfg: cfg, clients: m}
}

// Require wraps next so that it only runs for a client holding permission.
func (a *HTTPAuth) Require(permission string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if err := a.checkAuth(r, permission); err != nil {
			statusCode := http.StatusUnauthorized
			if errors.Is(err, errPermissionDenied) {
				statusCode = http.StatusForbidden
			}
			writeError(w, statusCode, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func headerName(configured, fallback string) string {
	name := strings.TrimSpace(strings.ToLower(configured))
	if name == "" {
		return fallback
	}
	return name
}

func (a *HTTPAuth) checkAuth(r *http.Request, permission string) error {
	apiKey := strings.TrimSpace(r.Header.Get(headerName(a.cfg.HeaderAPIKey, defaultAPIKeyHeader)))
	if apiKey == "" {
		return errMissingAPIKey
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return errInvalidAPIKey
	}
	// extra is checked only when the client has one
	if client.Extra != "" {
		extra := strings.TrimSpace(r.Header.Get(headerName(a.cfg.HeaderExtra, defaultExtraHeader)))
		if extra == "" {
			return errMissingAPIKey
		}
		if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
			return errInvalidExtra
		}
	}

	return checkPermission(client, permission)
}

func checkPermission(client config.APIClientKey, required string) error {
	if required == "" || len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}
