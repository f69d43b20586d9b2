package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoginEndpoint(t *testing.T) {
	handler := &Handler{Service: newTestAuth(t)}

	body, err := json.Marshal(map[string]string{
		"email":    "hire-me@anshumat.org",
		"password": "HireMe@2025!",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	require.NotEmpty(t, resp.Data.UserID)
}

func TestLoginEndpointRejectsBadCredentials(t *testing.T) {
	handler := &Handler{Service: newTestAuth(t)}

	body := []byte(`{"email":"hire-me@anshumat.org","password":"nope"}`)
	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestLoginEndpointRejectsMissingFields(t *testing.T) {
	handler := &Handler{Service: newTestAuth(t)}

	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{}`))))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireAuthMiddleware(t *testing.T) {
	svc := newTestAuth(t)
	mw := Middleware{Service: svc}

	protected := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	result, err := svc.Login("hire-me@anshumat.org", "HireMe@2025!")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+result.Token)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
