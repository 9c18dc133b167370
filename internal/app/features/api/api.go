// internal/app/features/api/api.go

// Package api carries the JSON plumbing shared by every feature handler:
// response encoding, request decoding, and the mapping from the domain
// error taxonomy to HTTP status codes.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/app/system/limits"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps err onto an HTTP status and JSON body. Unclassified
// errors become opaque 500s; their detail goes to the log only.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		WriteJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
	case apperr.IsForbidden(err):
		WriteJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case apperr.IsValidation(err):
		var ve *apperr.ValidationError
		body := errorBody{Error: err.Error()}
		if errors.As(err, &ve) && len(ve.Fields) > 0 {
			body.Fields = make(map[string]string, len(ve.Fields))
			for _, f := range ve.Fields {
				body.Fields[f.Field] = f.Message
			}
		}
		WriteJSON(w, http.StatusBadRequest, body)
	case apperr.IsNotFound(err):
		WriteJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case apperr.IsConflict(err):
		WriteJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case apperr.IsStorage(err):
		log.Error("storage backend error", zap.Error(err))
		WriteJSON(w, http.StatusBadGateway, errorBody{Error: "file storage is unavailable"})
	default:
		log.Error("internal error", zap.Error(err))
		WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// DecodeJSON reads a JSON body into dst, rejecting unknown fields and
// oversized bodies with a validation error.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// URLID parses the {name} chi route parameter as an int64 id.
func URLID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return id, nil
}
