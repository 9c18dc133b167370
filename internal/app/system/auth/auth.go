// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// PrincipalFetcher resolves a fresh Principal for the given user id.
// It is called on every request, never cached, so role and class-membership
// changes take effect immediately.
type PrincipalFetcher func(ctx context.Context, userID int64) (*authz.Principal, error)

// SessionManager owns the session cookie store and the middleware that
// resolves the current Principal.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher PrincipalFetcher
	log     *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager. The key must be
// at least 32 random characters in production.
func NewSessionManager(sessionKey, name, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide >=32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		MaxAge:   60 * 60 * 24,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetPrincipalFetcher installs the per-request principal resolver.
func (sm *SessionManager) SetPrincipalFetcher(f PrincipalFetcher) { sm.fetcher = f }

// FetchPrincipal resolves userID through the installed fetcher. Used right
// after sign-in, before the middleware has seen the new session.
func (sm *SessionManager) FetchPrincipal(ctx context.Context, userID int64) (*authz.Principal, error) {
	if sm.fetcher == nil {
		return nil, errors.New("no principal fetcher installed")
	}
	return sm.fetcher(ctx, userID)
}

type ctxKey string

const principalKey ctxKey = "principal"

// CurrentPrincipal returns the request's principal, or nil if anonymous.
func CurrentPrincipal(r *http.Request) *authz.Principal {
	p, _ := r.Context().Value(principalKey).(*authz.Principal)
	return p
}

// WithTestPrincipal injects a principal into the request context.
// Test hook; bypasses the session cookie entirely.
func WithTestPrincipal(r *http.Request, p *authz.Principal) *http.Request {
	return withPrincipal(r, p)
}

// LoadPrincipal resolves the session's user id into a fresh Principal and
// injects it into the request context. A stale session pointing at a
// deleted user is treated as anonymous.
func (sm *SessionManager) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sm.store.Get(r, sm.name)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth && sm.fetcher != nil {
			if id, ok := sess.Values[userIDKey].(int64); ok {
				p, err := sm.fetcher(r.Context(), id)
				if err != nil {
					sm.log.Warn("principal resolution failed; treating as anonymous",
						zap.Int64("user_id", id), zap.Error(err))
				} else if p != nil {
					r = withPrincipal(r, p)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects anonymous requests with a JSON 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentPrincipal(r) == nil {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose principal is missing (401) or whose
// role is not in the allowed set (403).
func (sm *SessionManager) RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := CurrentPrincipal(r)
			if p == nil {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if _, has := set[p.Role]; !has {
				writeJSONError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SignIn records the user id in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID int64) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut clears the session.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Options.MaxAge = -1
	sess.Values = map[interface{}]interface{}{}
	return sess.Save(r, w)
}

func withPrincipal(r *http.Request, p *authz.Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
