package k8s

import (
	"context"
	"fmt"

	v1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// CreateSecret creates a new Opaque secret holding the given key/value pairs
func (c *Client) CreateSecret(ctx context.Context, namespace, name string, data map[string]string) error {
	secret := &v1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: map[string]string{ManagedByLabel: managedBy},
		},
		Data: toBytes(data),
		Type: v1.SecretTypeOpaque,
	}

	_, err := c.ClientSet.CoreV1().Secrets(namespace).Create(ctx, secret, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to create secret: %w", err)
	}
	return nil
}

// GetSecret retrieves a secret as a map[string]string
func (c *Client) GetSecret(ctx context.Context, namespace, name string) (map[string]string, error) {
	data, _, err := c.GetSecretVersion(ctx, namespace, name)
	return data, err
}

// GetSecretVersion is GetSecret plus the resourceVersion the data was read at.
// Pass that version to UpdateSecret to make the write conditional.
func (c *Client) GetSecretVersion(ctx context.Context, namespace, name string) (map[string]string, string, error) {
	secret, err := c.ClientSet.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get secret: %w", err)
	}

	result := make(map[string]string, len(secret.Data))
	for k, v := range secret.Data {
		result[k] = string(v)
	}

	return result, secret.ResourceVersion, nil
}

// UpdateSecret replaces the whole data map of an existing secret.
// Keys absent from values are removed. A non-empty resourceVersion makes the
// write fail with a Conflict error if the secret changed since that version.
func (c *Client) UpdateSecret(ctx context.Context, namespace, name string, values map[string]string, resourceVersion string) error {
	secret, err := c.ClientSet.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get secret: %w", err)
	}

	if resourceVersion != "" {
		if secret.ResourceVersion != resourceVersion {
			return fmt.Errorf("failed to update secret: %w", apierrors.NewConflict(
				v1.Resource("secrets"), name,
				fmt.Errorf("resourceVersion %s is stale, current is %s", resourceVersion, secret.ResourceVersion)))
		}
		// the API server rejects the update if another write lands in between
		secret.ResourceVersion = resourceVersion
	}

	// StringData only merges into Data, which cannot express removals
	secret.StringData = nil
	secret.Data = toBytes(values)

	_, err = c.ClientSet.CoreV1().Secrets(namespace).Update(ctx, secret, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("failed to update secret: %w", err)
	}

	return nil
}

// DeleteSecret deletes a secret
func (c *Client) DeleteSecret(ctx context.Context, namespace, name string) error {
	err := c.ClientSet.CoreV1().Secrets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}

	return nil
}

func toBytes(data map[string]string) map[string][]byte {
	out := make(map[string][]byte, len(data))
	for k, v := range data {
		out[k] = []byte(v)
	}
	return out
}
