package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/schoolhub/schoolhub/internal/app/system/auth"
	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that call chi.URLParam without a router.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Admin returns a signed-in admin principal.
func Admin(id int64) *authz.Principal {
	return &authz.Principal{ID: id, Name: "Test Admin", Role: models.RoleAdmin}
}

// Teacher returns a signed-in teacher principal.
func Teacher(id int64) *authz.Principal {
	return &authz.Principal{ID: id, Name: "Test Teacher", Role: models.RoleTeacher}
}

// Student returns a signed-in student principal enrolled in classIDs.
func Student(id int64, classIDs ...int64) *authz.Principal {
	return &authz.Principal{ID: id, Name: "Test Student", Role: models.RoleStudent, ClassIDs: classIDs}
}

// NewRequest builds a request, serializing body to JSON when non-nil.
func NewRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}
	r := httptest.NewRequest(method, target, rd)
	if rd != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	return r
}

// AuthedRequest is NewRequest plus a principal in the context.
func AuthedRequest(t *testing.T, method, target string, body any, p *authz.Principal) *http.Request {
	t.Helper()
	return auth.WithTestPrincipal(NewRequest(t, method, target, body), p)
}

// DecodeBody unmarshals a recorded JSON response into dst.
func DecodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// AssertStatus fails the test when the recorded status differs.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, strings.TrimSpace(rec.Body.String()))
	}
}
