// internal/app/features/profile/handler.go
package profile

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolhub/schoolhub/internal/app/features/api"
	"github.com/schoolhub/schoolhub/internal/app/store"
	"github.com/schoolhub/schoolhub/internal/app/system/auth"
	"github.com/schoolhub/schoolhub/internal/app/system/inputval"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
)

// Handler lets a signed-in user update their own profile.
type Handler struct {
	Users store.Users
	// ProtectedEmail identifies the seed admin, whose email never changes.
	ProtectedEmail string
	Log            *zap.Logger
}

func NewHandler(users store.Users, protectedEmail string, logger *zap.Logger) *Handler {
	return &Handler{Users: users, ProtectedEmail: protectedEmail, Log: logger}
}

type updateRequest struct {
	FullName *string `json:"fullname"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type profileResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Update handles PUT /api/profile. Only the fields present in the body
// change; role and enrollment are never editable here.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p := auth.CurrentPrincipal(r)
	if p == nil {
		api.WriteError(w, h.Log, apperr.ErrUnauthenticated)
		return
	}

	var req updateRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}

	u, err := h.Users.GetByID(r.Context(), p.ID)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			api.WriteError(w, h.Log, apperr.NewValidationError("invalid profile",
				apperr.FieldError{Field: "fullname", Message: "must not be empty"}))
			return
		}
		u.FullName = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !inputval.IsValidEmail(email) {
			api.WriteError(w, h.Log, apperr.NewValidationError("invalid profile",
				apperr.FieldError{Field: "email", Message: "must be a valid email address"}))
			return
		}
		// The seed admin is recognized by email; a self-serve change would
		// strip the account's delete and demotion protection.
		if u.Email == h.ProtectedEmail && email != u.Email {
			api.WriteError(w, h.Log, apperr.Forbidden("the primary admin account cannot change email"))
			return
		}
		u.Email = email
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			api.WriteError(w, h.Log, apperr.NewValidationError("invalid profile",
				apperr.FieldError{Field: "password", Message: "must be at least 8 characters"}))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			api.WriteError(w, h.Log, err)
			return
		}
		u.PasswordHash = string(hash)
	}

	if err := h.Users.Update(r.Context(), u); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, profileResponse{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     string(u.Role),
	})
}
