package models

// Status values carried by every /secrets response envelope.
const (
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
)

// SaveSecretRequest is the payload for storing one named secret
type SaveSecretRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ListSecretsResponse carries the secret names of a vault. Values are never listed.
type ListSecretsResponse struct {
	Status string   `json:"status"`
	Data   []string `json:"data"`
	Error  string   `json:"error,omitempty"`
}

// SaveSecretResponse is returned by the save and delete operations
type SaveSecretResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SecretValue is a single name/value pair
type SecretValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SecretValueResponse is returned by GET /secrets/values
type SecretValueResponse struct {
	Status string       `json:"status"`
	Data   *SecretValue `json:"data,omitempty"`
	Error  string       `json:"error,omitempty"`
}
