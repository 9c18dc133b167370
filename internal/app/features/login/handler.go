// internal/app/features/login/handler.go
package login

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/text"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolhub/schoolhub/internal/app/features/api"
	"github.com/schoolhub/schoolhub/internal/app/store"
	"github.com/schoolhub/schoolhub/internal/app/system/auditlog"
	"github.com/schoolhub/schoolhub/internal/app/system/auth"
	"github.com/schoolhub/schoolhub/internal/app/system/ratelimit"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
)

// Handler handles session login and logout.
type Handler struct {
	Users      store.Users
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(users store.Users, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, SessionMgr: sessionMgr, Limiter: limiter, Audit: audit, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	ID       int64   `json:"id"`
	FullName string  `json:"fullname"`
	Role     string  `json:"role"`
	ClassIDs []int64 `json:"classIds"`
}

// Login handles POST /api/login. Credential failures are deliberately
// indistinguishable: unknown email and wrong password both return 401.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		api.WriteError(w, h.Log, apperr.Validation("email and password are required"))
		return
	}
	if h.Limiter != nil && !h.Limiter.Check(r, req.Email) {
		h.Audit.LoginRateLimited(r, req.Email)
		api.WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many login attempts, try again later"})
		return
	}

	u, err := h.Users.GetByEmail(r.Context(), text.Fold(req.Email))
	if err != nil {
		if apperr.IsNotFound(err) {
			h.Audit.LoginFailed(r, req.Email, "unknown email")
			api.WriteError(w, h.Log, apperr.ErrUnauthenticated)
			return
		}
		api.WriteError(w, h.Log, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		h.Audit.LoginFailed(r, req.Email, "wrong password")
		api.WriteError(w, h.Log, apperr.ErrUnauthenticated)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetAccount(req.Email)
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Audit.LoginSuccess(r, u.ID, string(u.Role))

	p, err := h.SessionMgr.FetchPrincipal(r.Context(), u.ID)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, meResponse{
		ID:       p.ID,
		FullName: p.Name,
		Role:     string(p.Role),
		ClassIDs: p.ClassIDs,
	})
}

// Logout handles POST /api/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p := auth.CurrentPrincipal(r)
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	if p != nil {
		h.Audit.Logout(r, p.ID)
	}
	api.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me handles GET /api/me. Anonymous callers get a JSON null rather than
// an error, so clients can probe session state cheaply.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := auth.CurrentPrincipal(r)
	if p == nil {
		api.WriteJSON(w, http.StatusOK, (*meResponse)(nil))
		return
	}
	api.WriteJSON(w, http.StatusOK, meResponse{
		ID:       p.ID,
		FullName: p.Name,
		Role:     string(p.Role),
		ClassIDs: p.ClassIDs,
	})
}
