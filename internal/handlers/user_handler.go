package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/client-go/util/retry"

	"secretVault/internal/auth"
	"secretVault/internal/k8s"
	"secretVault/internal/models"
	"secretVault/internal/vault"
)

// credentialsSecret holds the bcrypt hash next to the user's vault.
const credentialsSecret = "credentials"

// maxUserBody bounds the credential payloads.
const maxUserBody = 4 << 10

// UserHandler handles user registration, login and account management
type UserHandler struct {
	JWTManager auth.JWTGenerator
	Client     k8s.K8sClient
	Logger     *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(client k8s.K8sClient, jwtManager auth.JWTGenerator, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		JWTManager: jwtManager,
		Client:     client,
		Logger:     logger,
	}
}

// Register creates the user namespace and stores the hashed password in it
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUserBody)).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	namespace := vault.NamespaceFor(req.Username)
	// the username becomes part of a namespace name
	if errs := validation.IsDNS1123Label(namespace); len(errs) > 0 {
		http.Error(w, "Invalid username", http.StatusBadRequest)
		return
	}

	if _, err := h.Client.GetSecret(r.Context(), namespace, credentialsSecret); err == nil {
		http.Error(w, "User already exists", http.StatusConflict)
		return
	}

	if err := h.Client.CreateNamespace(r.Context(), namespace); err != nil {
		h.Logger.Error("user.namespace_create_failed", zap.String("namespace", namespace), zap.Error(err))
		http.Error(w, "Failed to create namespace", http.StatusInternalServerError)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	creds := map[string]string{
		"username": req.Username,
		"password": string(hash),
	}
	if err := h.Client.CreateSecret(r.Context(), namespace, credentialsSecret, creds); err != nil {
		h.Logger.Error("user.credentials_store_failed", zap.String("namespace", namespace), zap.Error(err))
		http.Error(w, "Failed to store credentials", http.StatusInternalServerError)
		return
	}

	h.Logger.Info("user.registered", zap.String("username", req.Username))
	writeJSON(w, http.StatusCreated, models.UserResponse{Message: "User registered successfully"})
}

// Login validates user credentials and returns a JWT
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUserBody)).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	secretData, err := h.Client.GetSecret(r.Context(), vault.NamespaceFor(req.Username), credentialsSecret)
	if err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	storedHash, ok := secretData["password"]
	if !ok {
		http.Error(w, "Credentials not found", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)); err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token, err := h.JWTManager.Generate(req.Username)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.UserResponse{Token: token, Message: "Login successful"})
}

// ChangeUserPassword replaces the caller's password hash
func (h *UserHandler) ChangeUserPassword(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUserBody)).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.NewPassword == "" {
		http.Error(w, "New password is required", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Failed to hash new password", http.StatusInternalServerError)
		return
	}

	namespace := vault.NamespaceFor(username)
	var readFailed bool
	err = retry.RetryOnConflict(retry.DefaultRetry, func() error {
		secretData, version, err := h.Client.GetSecretVersion(r.Context(), namespace, credentialsSecret)
		if err != nil {
			readFailed = true
			return err
		}
		secretData["password"] = string(hash)
		return h.Client.UpdateSecret(r.Context(), namespace, credentialsSecret, secretData, version)
	})
	if err != nil {
		if readFailed {
			h.Logger.Error("user.credentials_read_failed", zap.String("namespace", namespace), zap.Error(err))
			http.Error(w, "Failed to get current credentials", http.StatusInternalServerError)
			return
		}
		h.Logger.Error("user.credentials_update_failed", zap.String("namespace", namespace), zap.Error(err))
		http.Error(w, "Failed to update credentials", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.UserResponse{Message: "User details updated successfully"})
}

// DeleteUser removes the user's namespace, which takes the vault with it
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.GetUsername(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.Client.DeleteNamespace(r.Context(), vault.NamespaceFor(username)); err != nil {
		h.Logger.Error("user.delete_failed", zap.String("username", username), zap.Error(err))
		http.Error(w, "Failed to delete user namespace", http.StatusInternalServerError)
		return
	}

	h.Logger.Info("user.deleted", zap.String("username", username))
	writeJSON(w, http.StatusOK, models.UserResponse{Message: "User deleted successfully"})
}
