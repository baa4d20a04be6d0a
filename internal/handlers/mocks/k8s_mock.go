package mocks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var secretsResource = schema.GroupResource{Resource: "secrets"}

// MockK8sClient implements k8s.K8sClient for tests.
type MockK8sClient struct {
	mu sync.Mutex

	// call flags for assertions
	CreateSecretCalled    bool
	GetSecretCalled       bool
	UpdateSecretCalled    bool
	DeleteSecretCalled    bool
	CreateNamespaceCalled bool
	DeleteNamespaceCalled bool

	// forceable errors (set in tests)
	CreateErr          error
	GetErr             error
	UpdateErr          error
	DeleteErr          error
	CreateNamespaceErr error
	DeleteNamespaceErr error

	// Key - namespace/name
	Secrets map[string]ExampleSecret

	// bumped on every write, like an API server's resourceVersion
	version int
}

type ExampleSecret struct {
	Namespace       string
	Name            string
	Data            map[string]string
	ResourceVersion string
}

func (m *MockK8sClient) nextVersion() string {
	m.version++
	return strconv.Itoa(m.version)
}

// makeKey builds the flat "<namespace>/<name>" key used by Secrets
func makeKey(namespace, name string) string {
	return fmt.Sprintf("%s/%s", namespace, name)
}

func NewMockK8sClient() *MockK8sClient {
	return &MockK8sClient{
		Secrets: make(map[string]ExampleSecret),
	}
}

// Put seeds a secret without touching the call flags.
func (m *MockK8sClient) Put(namespace, name string, data map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Secrets[makeKey(namespace, name)] = ExampleSecret{Namespace: namespace, Name: name, Data: cloneMap(data), ResourceVersion: m.nextVersion()}
}

func cloneMap(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *MockK8sClient) CreateSecret(_ context.Context, namespace, name string, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateSecretCalled = true
	if m.CreateErr != nil {
		return m.CreateErr
	}

	key := makeKey(namespace, name)
	if _, ok := m.Secrets[key]; ok {
		return apierrors.NewAlreadyExists(secretsResource, name)
	}
	m.Secrets[key] = ExampleSecret{
		Namespace:       namespace,
		Name:            name,
		Data:            cloneMap(data),
		ResourceVersion: m.nextVersion(),
	}
	return nil
}

// GetSecret returns a copy of the secret's data, or a NotFound api error.
func (m *MockK8sClient) GetSecret(ctx context.Context, namespace, name string) (map[string]string, error) {
	data, _, err := m.GetSecretVersion(ctx, namespace, name)
	return data, err
}

func (m *MockK8sClient) GetSecretVersion(_ context.Context, namespace, name string) (map[string]string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetSecretCalled = true
	if m.GetErr != nil {
		return nil, "", m.GetErr
	}

	sec, ok := m.Secrets[makeKey(namespace, name)]
	if !ok {
		return nil, "", apierrors.NewNotFound(secretsResource, name)
	}

	return cloneMap(sec.Data), sec.ResourceVersion, nil
}

// UpdateSecret replaces the data. A non-empty resourceVersion that no longer
// matches yields a Conflict api error.
func (m *MockK8sClient) UpdateSecret(_ context.Context, namespace, name string, data map[string]string, resourceVersion string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateSecretCalled = true
	if m.UpdateErr != nil {
		return m.UpdateErr
	}

	key := makeKey(namespace, name)
	sec, ok := m.Secrets[key]
	if !ok {
		return apierrors.NewNotFound(secretsResource, name)
	}
	if resourceVersion != "" && resourceVersion != sec.ResourceVersion {
		return apierrors.NewConflict(secretsResource, name, fmt.Errorf("version %s is stale", resourceVersion))
	}

	m.Secrets[key] = ExampleSecret{
		Namespace:       namespace,
		Name:            name,
		Data:            cloneMap(data),
		ResourceVersion: m.nextVersion(),
	}
	return nil
}

func (m *MockK8sClient) DeleteSecret(_ context.Context, namespace, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteSecretCalled = true
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	key := makeKey(namespace, name)
	if _, ok := m.Secrets[key]; !ok {
		return apierrors.NewNotFound(secretsResource, name)
	}

	delete(m.Secrets, key)
	return nil
}

// CreateNamespace is a no-op: namespaces are implied by the flat keys.
func (m *MockK8sClient) CreateNamespace(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateNamespaceCalled = true
	return m.CreateNamespaceErr
}

// DeleteNamespace removes all secrets in the given namespace.
func (m *MockK8sClient) DeleteNamespace(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteNamespaceCalled = true
	if m.DeleteNamespaceErr != nil {
		return m.DeleteNamespaceErr
	}
	prefix := name + "/"
	for k := range m.Secrets {
		if strings.HasPrefix(k, prefix) {
			delete(m.Secrets, k)
		}
	}
	return nil
}
