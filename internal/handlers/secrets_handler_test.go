package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secretVault/internal/auth"
	"secretVault/internal/handlers/mocks"
	"secretVault/internal/models"
	"secretVault/internal/vault"
)

const testVault = "secret-vault"

func newSecretsHandler(mock *mocks.MockK8sClient) *SecretsHandler {
	return NewSecretsHandler(vault.NewStore(mock, testVault, zap.NewNop()), zap.NewNop())
}

func asUser(req *http.Request, username string) *http.Request {
	return req.WithContext(auth.WithUsername(req.Context(), username))
}

func TestSecretsHandler_ListSecrets(t *testing.T) {
	tests := []struct {
		name           string
		seed           map[string]string
		getErr         error
		expectedStatus int
		expectedBody   models.ListSecretsResponse
	}{
		{
			name:           "empty vault",
			expectedStatus: http.StatusOK,
			expectedBody:   models.ListSecretsResponse{Status: models.StatusSuccess, Data: []string{}},
		},
		{
			name:           "names only, sorted",
			seed:           map[string]string{"OPENAI_API_KEY": "sk-1", "ANTHROPIC_API_KEY": "sk-2"},
			expectedStatus: http.StatusOK,
			expectedBody:   models.ListSecretsResponse{Status: models.StatusSuccess, Data: []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY"}},
		},
		{
			name:           "store failure",
			getErr:         errors.New("k8s down"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   models.ListSecretsResponse{Status: models.StatusFailed, Data: []string{}, Error: "Failed to list secrets."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := mocks.NewMockK8sClient()
			if tt.seed != nil {
				mock.Put("user-alice", testVault, tt.seed)
			}
			mock.GetErr = tt.getErr

			req := asUser(httptest.NewRequest(http.MethodGet, "/secrets", nil), "alice")
			rec := httptest.NewRecorder()
			newSecretsHandler(mock).ListSecrets(rec, req)

			require.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			var resp models.ListSecretsResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.expectedBody, resp)
			assert.NotContains(t, rec.Body.String(), "sk-1")
		})
	}
}

func TestSecretsHandler_SaveSecret(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		createErr      error
		expectedStatus int
		expectedResp   models.SaveSecretResponse
	}{
		{
			name:           "success",
			body:           `{"name":"OPENAI_API_KEY","value":"sk-123"}`,
			expectedStatus: http.StatusOK,
			expectedResp:   models.SaveSecretResponse{Status: models.StatusSuccess, Message: "Secret 'OPENAI_API_KEY' saved successfully"},
		},
		{
			name:           "missing value",
			body:           `{"name":"OPENAI_API_KEY","value":""}`,
			expectedStatus: http.StatusBadRequest,
			expectedResp:   models.SaveSecretResponse{Status: models.StatusFailed, Error: MsgRequiredFields},
		},
		{
			name:           "missing name",
			body:           `{"value":"x"}`,
			expectedStatus: http.StatusBadRequest,
			expectedResp:   models.SaveSecretResponse{Status: models.StatusFailed, Error: MsgRequiredFields},
		},
		{
			name:           "bad json",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			expectedResp:   models.SaveSecretResponse{Status: models.StatusFailed, Error: "Invalid request payload."},
		},
		{
			name:           "store failure",
			body:           `{"name":"A","value":"b"}`,
			createErr:      errors.New("k8s error"),
			expectedStatus: http.StatusInternalServerError,
			expectedResp:   models.SaveSecretResponse{Status: models.StatusFailed, Error: "Failed to save secret."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := mocks.NewMockK8sClient()
			mock.CreateErr = tt.createErr

			req := asUser(httptest.NewRequest(http.MethodPost, "/secrets", bytes.NewBufferString(tt.body)), "alice")
			rec := httptest.NewRecorder()
			newSecretsHandler(mock).SaveSecret(rec, req)

			require.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			var resp models.SaveSecretResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.expectedResp, resp)
		})
	}
}

func TestSecretsHandler_SaveSecret_InvalidName(t *testing.T) {
	mock := mocks.NewMockK8sClient()

	req := asUser(httptest.NewRequest(http.MethodPost, "/secrets", bytes.NewBufferString(`{"name":"MY KEY","value":"v"}`)), "alice")
	rec := httptest.NewRecorder()
	newSecretsHandler(mock).SaveSecret(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp models.SaveSecretResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.StatusFailed, resp.Status)
	assert.Contains(t, resp.Error, "invalid secret name")
	assert.False(t, mock.CreateSecretCalled)
}

func TestSecretsHandler_SaveSecret_Overwrites(t *testing.T) {
	mock := mocks.NewMockK8sClient()
	mock.Put("user-alice", testVault, map[string]string{"OPENAI_API_KEY": "old"})

	req := asUser(httptest.NewRequest(http.MethodPost, "/secrets", bytes.NewBufferString(`{"name":"OPENAI_API_KEY","value":"new"}`)), "alice")
	rec := httptest.NewRecorder()
	newSecretsHandler(mock).SaveSecret(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mock.UpdateSecretCalled)
	data, err := mock.GetSecret(req.Context(), "user-alice", testVault)
	require.NoError(t, err)
	assert.Equal(t, "new", data["OPENAI_API_KEY"])
}

func TestSecretsHandler_GetSecretValue(t *testing.T) {
	mock := mocks.NewMockK8sClient()
	mock.Put("user-alice", testVault, map[string]string{"OPENAI_API_KEY": "sk-123"})
	handler := newSecretsHandler(mock)

	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedResp   models.SecretValueResponse
	}{
		{
			name:           "found",
			target:         "/secrets/values?name=OPENAI_API_KEY",
			expectedStatus: http.StatusOK,
			expectedResp: models.SecretValueResponse{
				Status: models.StatusSuccess,
				Data:   &models.SecretValue{Name: "OPENAI_API_KEY", Value: "sk-123"},
			},
		},
		{
			name:           "unknown name",
			target:         "/secrets/values?name=NOPE",
			expectedStatus: http.StatusNotFound,
			expectedResp:   models.SecretValueResponse{Status: models.StatusFailed, Error: "Secret 'NOPE' not found"},
		},
		{
			name:           "missing name",
			target:         "/secrets/values",
			expectedStatus: http.StatusBadRequest,
			expectedResp:   models.SecretValueResponse{Status: models.StatusFailed, Error: MsgNameRequired},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodGet, tt.target, nil), "alice")
			rec := httptest.NewRecorder()
			handler.GetSecretValue(rec, req)

			require.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			var resp models.SecretValueResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.expectedResp, resp)
		})
	}
}

func TestSecretsHandler_DeleteSecret(t *testing.T) {
	mock := mocks.NewMockK8sClient()
	mock.Put("user-alice", testVault, map[string]string{"A": "1", "B": "2"})
	handler := newSecretsHandler(mock)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/secrets?name=A", nil), "alice")
	rec := httptest.NewRecorder()
	handler.DeleteSecret(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data, err := mock.GetSecret(req.Context(), "user-alice", testVault)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"B": "2"}, data)

	rec = httptest.NewRecorder()
	handler.DeleteSecret(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSecretsHandler_RequiresUser(t *testing.T) {
	handler := newSecretsHandler(mocks.NewMockK8sClient())

	for _, call := range []struct {
		name string
		fn   http.HandlerFunc
		req  *http.Request
	}{
		{"list", handler.ListSecrets, httptest.NewRequest(http.MethodGet, "/secrets", nil)},
		{"save", handler.SaveSecret, httptest.NewRequest(http.MethodPost, "/secrets", bytes.NewBufferString(`{}`))},
		{"get", handler.GetSecretValue, httptest.NewRequest(http.MethodGet, "/secrets/values?name=A", nil)},
		{"delete", handler.DeleteSecret, httptest.NewRequest(http.MethodDelete, "/secrets?name=A", nil)},
	} {
		t.Run(call.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			call.fn(rec, call.req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
