// Package secretclient calls the vault API's /secrets endpoints. Each call is a
// single round trip: no retries, no caching, no local validation.
package secretclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"secretVault/internal/models"
)

// StatusError is an application failure: the store answered, but not with
// "Success".
type StatusError struct {
	Op      string
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %q", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %q: %s", e.Op, e.Status, e.Message)
}

// SaveResult is the store's verdict on a write.
type SaveResult struct {
	Status  string
	Message string
	Error   string
}

// OK reports whether the store accepted the write.
func (r *SaveResult) OK() bool {
	return r.Status == models.StatusSuccess
}

// Client exposes the secret operations over an APIClient.
type Client struct {
	api APIClient
}

func New(api APIClient) *Client {
	return &Client{api: api}
}

// ListSecretNames returns the names stored in the vault. Values are never listed.
func (c *Client) ListSecretNames(ctx context.Context) ([]string, error) {
	var resp models.ListSecretsResponse
	if err := c.api.Get(ctx, "/secrets", nil, &resp); err != nil {
		if !recoverEnvelope(err, &resp) {
			return nil, fmt.Errorf("list secrets: %w", err)
		}
	}
	if resp.Status != models.StatusSuccess {
		return nil, &StatusError{Op: "list secrets", Status: resp.Status, Message: resp.Error}
	}
	if resp.Data == nil {
		return []string{}, nil
	}
	return resp.Data, nil
}

// SaveSecret submits name/value. A non-nil error means the store could not be
// reached or answered with something other than a status envelope; rejections
// by the store come back as a SaveResult with OK() false.
func (c *Client) SaveSecret(ctx context.Context, name, value string) (*SaveResult, error) {
	var resp models.SaveSecretResponse
	err := c.api.Post(ctx, "/secrets", models.SaveSecretRequest{Name: name, Value: value}, &resp)
	if err != nil && !recoverEnvelope(err, &resp) {
		return nil, fmt.Errorf("save secret: %w", err)
	}
	return &SaveResult{Status: resp.Status, Message: resp.Message, Error: resp.Error}, nil
}

// GetSecretValue reads the value stored under name.
func (c *Client) GetSecretValue(ctx context.Context, name string) (models.SecretValue, error) {
	var resp models.SecretValueResponse
	if err := c.api.Get(ctx, "/secrets/values", url.Values{"name": {name}}, &resp); err != nil {
		if !recoverEnvelope(err, &resp) {
			return models.SecretValue{}, fmt.Errorf("get secret value: %w", err)
		}
	}
	if resp.Status != models.StatusSuccess {
		return models.SecretValue{}, &StatusError{Op: "get secret value", Status: resp.Status, Message: resp.Error}
	}
	if resp.Data == nil {
		return models.SecretValue{}, &StatusError{Op: "get secret value", Status: resp.Status, Message: "response carried no value"}
	}
	return *resp.Data, nil
}

// DeleteSecret removes name from the vault. Error semantics match SaveSecret.
func (c *Client) DeleteSecret(ctx context.Context, name string) (*SaveResult, error) {
	var resp models.SaveSecretResponse
	err := c.api.Delete(ctx, "/secrets", url.Values{"name": {name}}, &resp)
	if err != nil && !recoverEnvelope(err, &resp) {
		return nil, fmt.Errorf("delete secret: %w", err)
	}
	return &SaveResult{Status: resp.Status, Message: resp.Message, Error: resp.Error}, nil
}

// recoverEnvelope decodes a status envelope out of an HTTPError body into out.
func recoverEnvelope(err error, out any) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || len(httpErr.Body) == 0 {
		return false
	}
	var probe struct {
		Status string `json:"status"`
	}
	if json.Unmarshal(httpErr.Body, &probe) != nil || probe.Status == "" {
		return false
	}
	return json.Unmarshal(httpErr.Body, out) == nil
}
