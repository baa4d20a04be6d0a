package k8s

import "context"

// K8sClient is the slice of the Kubernetes API the vault store and the user
// handlers depend on, so both can run against a mock in tests.
type K8sClient interface {
	CreateSecret(ctx context.Context, namespace, name string, data map[string]string) error
	GetSecret(ctx context.Context, namespace, name string) (map[string]string, error)
	GetSecretVersion(ctx context.Context, namespace, name string) (map[string]string, string, error)
	UpdateSecret(ctx context.Context, namespace, name string, data map[string]string, resourceVersion string) error
	DeleteSecret(ctx context.Context, namespace, name string) error

	CreateNamespace(ctx context.Context, name string) error
	DeleteNamespace(ctx context.Context, name string) error
}

var _ K8sClient = (*Client)(nil)
