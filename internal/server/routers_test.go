package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes/fake"

	"secretVault/internal/auth"
	"secretVault/internal/handlers"
	"secretVault/internal/k8s"
	"secretVault/internal/models"
	"secretVault/internal/vault"
)

func newTestServer(t *testing.T) (*httptest.Server, *auth.JWTManager) {
	t.Helper()
	client := &k8s.Client{ClientSet: fake.NewClientset()}
	jwtMgr := auth.NewJWTManager("router-test", time.Minute)

	router := NewRouter(
		jwtMgr,
		handlers.NewUserHandler(client, jwtMgr, zap.NewNop()),
		handlers.NewSecretsHandler(vault.NewStore(client, "secret-vault", zap.NewNop()), zap.NewNop()),
		zap.NewNop(),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, jwtMgr
}

func do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRouter_SecretsLifecycle(t *testing.T) {
	srv, jwtMgr := newTestServer(t)
	token, err := jwtMgr.Generate("alice")
	require.NoError(t, err)

	resp := do(t, http.MethodPost, srv.URL+"/secrets", token, models.SaveSecretRequest{Name: "OPENAI_API_KEY", Value: "sk-123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var saved models.SaveSecretResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.Equal(t, models.StatusSuccess, saved.Status)

	resp = do(t, http.MethodGet, srv.URL+"/secrets", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list models.ListSecretsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, []string{"OPENAI_API_KEY"}, list.Data)

	resp = do(t, http.MethodGet, srv.URL+"/secrets/values?name=OPENAI_API_KEY", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var value models.SecretValueResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&value))
	assert.Equal(t, "sk-123", value.Data.Value)

	resp = do(t, http.MethodDelete, srv.URL+"/secrets?name=OPENAI_API_KEY", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/secrets", token, nil)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list.Data)
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/secrets"},
		{http.MethodPost, "/secrets"},
		{http.MethodGet, "/secrets/values?name=A"},
		{http.MethodDelete, "/secrets?name=A"},
		{http.MethodPut, "/user/change-password"},
		{http.MethodDelete, "/user/delete"},
	} {
		resp := do(t, tc.method, srv.URL+tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv, jwtMgr := newTestServer(t)
	token, err := jwtMgr.Generate("alice")
	require.NoError(t, err)

	resp := do(t, http.MethodPut, srv.URL+"/secrets", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/login", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouter_RequestIDAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(auth.RequestIDHeader))
}
