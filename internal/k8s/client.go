package k8s

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// ManagedByLabel marks every object this service creates.
const ManagedByLabel = "app.kubernetes.io/managed-by"

const managedBy = "secret-vault"

// Adding the following variables, so that the code can be tested
var (
	inClusterConfig      = rest.InClusterConfig
	buildConfigFromFlags = clientcmd.BuildConfigFromFlags
	newForConfig         = kubernetes.NewForConfig
)

var (
	pollInterval           = 200 * time.Millisecond
	namespaceActiveTimeout = 10 * time.Second
	namespaceDeleteTimeout = 30 * time.Second
)

type Client struct {
	ClientSet kubernetes.Interface
}

// NewClient creates a new Kubernetes client. It first tries the in-cluster config,
// then kubeconfig (or ~/.kube/config when kubeconfig is empty).
func NewClient(kubeconfig string) (*Client, error) {
	config, err := inClusterConfig()
	if err != nil {
		if kubeconfig == "" {
			kubeconfig = filepath.Join(os.Getenv("HOME"), ".kube", "config")
		}
		config, err = buildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
		}
	}

	return NewClientWithConfig(config)
}

// NewClientWithConfig builds a client from an explicit rest config (envtest, e2e).
func NewClientWithConfig(config *rest.Config) (*Client, error) {
	clientset, err := newForConfig(config)
	if err != nil {
		return nil, err
	}
	return &Client{ClientSet: clientset}, nil
}

// CreateNamespace creates the namespace and waits for it to become Active.
// An existing namespace is treated as success.
func (c *Client) CreateNamespace(ctx context.Context, name string) error {
	ns := &v1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: map[string]string{ManagedByLabel: managedBy},
		},
	}

	_, err := c.ClientSet.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("failed to create namespace %q: %w", name, err)
	}

	err = wait.PollUntilContextTimeout(ctx, pollInterval, namespaceActiveTimeout, true, func(ctx context.Context) (bool, error) {
		got, err := c.ClientSet.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			// NotFound right after create is expected, keep polling
			return false, nil
		}
		return got.Status.Phase == v1.NamespaceActive, nil
	})
	if err != nil {
		return fmt.Errorf("namespace %q did not become Active within %s: %w", name, namespaceActiveTimeout, err)
	}
	return nil
}

// DeleteNamespace deletes the namespace and waits until it is fully gone
func (c *Client) DeleteNamespace(ctx context.Context, name string) error {
	err := c.ClientSet.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete namespace %q: %w", name, err)
	}

	err = wait.PollUntilContextTimeout(ctx, pollInterval, namespaceDeleteTimeout, true, func(ctx context.Context) (bool, error) {
		_, err := c.ClientSet.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
		return apierrors.IsNotFound(err), nil
	})
	if err != nil {
		return fmt.Errorf("namespace %q was not deleted after %s: %w", name, namespaceDeleteTimeout, err)
	}
	return nil
}
