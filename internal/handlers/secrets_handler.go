package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"secretVault/internal/auth"
	"secretVault/internal/models"
	"secretVault/internal/vault"
)

// Messages shared with the dialog, which shows them verbatim.
const (
	MsgRequiredFields = "Both name and value are required."
	MsgNameRequired   = "Query parameter 'name' is required."
)

// maxSecretBody bounds the POST /secrets payload.
const maxSecretBody = 64 << 10

// VaultStore is the storage the secrets handler depends on.
type VaultStore interface {
	List(ctx context.Context, username string) ([]string, error)
	Set(ctx context.Context, username, name, value string) error
	Get(ctx context.Context, username, name string) (string, error)
	Delete(ctx context.Context, username, name string) error
}

// SecretsHandler serves the /secrets endpoints for the authenticated user
type SecretsHandler struct {
	Store  VaultStore
	Logger *zap.Logger
}

// NewSecretsHandler creates a new SecretsHandler
func NewSecretsHandler(store VaultStore, logger *zap.Logger) *SecretsHandler {
	return &SecretsHandler{Store: store, Logger: logger}
}

// ListSecrets handles GET /secrets
func (h *SecretsHandler) ListSecrets(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ListSecretsResponse{Status: models.StatusFailed, Data: []string{}, Error: "Unauthorized"})
		return
	}

	names, err := h.Store.List(r.Context(), username)
	if err != nil {
		h.logError(r, "secrets.list_failed", err)
		writeJSON(w, http.StatusInternalServerError, models.ListSecretsResponse{Status: models.StatusFailed, Data: []string{}, Error: "Failed to list secrets."})
		return
	}

	writeJSON(w, http.StatusOK, models.ListSecretsResponse{Status: models.StatusSuccess, Data: names})
}

// SaveSecret handles POST /secrets
func (h *SecretsHandler) SaveSecret(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.SaveSecretRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSecretBody)).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	if req.Name == "" || req.Value == "" {
		writeFailure(w, http.StatusBadRequest, MsgRequiredFields)
		return
	}

	if err := h.Store.Set(r.Context(), username, req.Name, req.Value); err != nil {
		switch {
		case errors.Is(err, vault.ErrInvalidName), errors.Is(err, vault.ErrEmptyValue):
			writeFailure(w, http.StatusBadRequest, err.Error())
		default:
			h.logError(r, "secrets.save_failed", err)
			writeFailure(w, http.StatusInternalServerError, "Failed to save secret.")
		}
		return
	}

	writeJSON(w, http.StatusOK, models.SaveSecretResponse{
		Status:  models.StatusSuccess,
		Message: fmt.Sprintf("Secret '%s' saved successfully", req.Name),
	})
}

// GetSecretValue handles GET /secrets/values?name=NAME
func (h *SecretsHandler) GetSecretValue(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		writeFailure(w, http.StatusBadRequest, MsgNameRequired)
		return
	}

	value, err := h.Store.Get(r.Context(), username, name)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, fmt.Sprintf("Secret '%s' not found", name))
			return
		}
		h.logError(r, "secrets.get_failed", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to read secret.")
		return
	}

	writeJSON(w, http.StatusOK, models.SecretValueResponse{
		Status: models.StatusSuccess,
		Data:   &models.SecretValue{Name: name, Value: value},
	})
}

// DeleteSecret handles DELETE /secrets?name=NAME
func (h *SecretsHandler) DeleteSecret(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		writeFailure(w, http.StatusBadRequest, MsgNameRequired)
		return
	}

	if err := h.Store.Delete(r.Context(), username, name); err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, fmt.Sprintf("Secret '%s' not found", name))
			return
		}
		h.logError(r, "secrets.delete_failed", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to delete secret.")
		return
	}

	writeJSON(w, http.StatusOK, models.SaveSecretResponse{
		Status:  models.StatusSuccess,
		Message: fmt.Sprintf("Secret '%s' deleted successfully", name),
	})
}

func (h *SecretsHandler) logError(r *http.Request, event string, err error) {
	h.Logger.Error(event,
		zap.String("request_id", auth.GetRequestID(r.Context())),
		zap.Error(err))
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.SaveSecretResponse{Status: models.StatusFailed, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
