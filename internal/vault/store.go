// Package vault keeps each user's named secrets in a single Kubernetes Secret
// inside the user's namespace. Secret names are the data keys of that object.
package vault

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"secretVault/internal/k8s"
	"secretVault/internal/metrics"
)

var (
	ErrNotFound    = errors.New("secret not found")
	ErrInvalidName = errors.New("invalid secret name")
	ErrEmptyValue  = errors.New("secret value is empty")
)

// conflictBackoff lets several concurrent saves to one vault all land.
var conflictBackoff = wait.Backoff{
	Steps:    10,
	Duration: 10 * time.Millisecond,
	Factor:   1.5,
	Jitter:   0.1,
}

// NamespaceFor returns the namespace that holds username's vault.
func NamespaceFor(username string) string {
	return "user-" + username
}

// Store reads and writes vault entries.
type Store struct {
	client     k8s.K8sClient
	secretName string
	logger     *zap.Logger
}

func NewStore(client k8s.K8sClient, secretName string, logger *zap.Logger) *Store {
	return &Store{client: client, secretName: secretName, logger: logger}
}

// ValidateName reports whether name can be used as a vault key.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if errs := validation.IsConfigMapKey(name); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidName, strings.Join(errs, "; "))
	}
	return nil
}

// List returns the sorted secret names of username's vault. A vault that was
// never written to is empty, not an error.
func (s *Store) List(ctx context.Context, username string) ([]string, error) {
	defer observe("list", time.Now())

	data, err := s.load(ctx, username)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Set stores value under name, overwriting any previous value. The write is
// conditional on the version that was read, so concurrent saves to the same
// vault are retried instead of overwriting each other.
func (s *Store) Set(ctx context.Context, username, name, value string) error {
	defer observe("set", time.Now())

	if err := ValidateName(name); err != nil {
		return err
	}
	if value == "" {
		return ErrEmptyValue
	}

	ns := NamespaceFor(username)
	var replaced, created bool
	err := retry.OnError(conflictBackoff, retriable, func() error {
		data, version, err := s.client.GetSecretVersion(ctx, ns, s.secretName)
		if apierrors.IsNotFound(err) {
			// AlreadyExists here means another save created the vault first
			if err := s.client.CreateSecret(ctx, ns, s.secretName, map[string]string{name: value}); err != nil {
				return fmt.Errorf("create vault for %q: %w", username, err)
			}
			created = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("load vault for %q: %w", username, err)
		}

		_, replaced = data[name]
		data[name] = value
		if err := s.client.UpdateSecret(ctx, ns, s.secretName, data, version); err != nil {
			return fmt.Errorf("update vault for %q: %w", username, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if created {
		s.logger.Info("vault.created", zap.String("namespace", ns))
		return nil
	}
	s.logger.Info("vault.secret_saved",
		zap.String("namespace", ns),
		zap.String("name", name),
		zap.Bool("replaced", replaced))
	return nil
}

// Get returns the value stored under name.
func (s *Store) Get(ctx context.Context, username, name string) (string, error) {
	defer observe("get", time.Now())

	data, err := s.load(ctx, username)
	if err != nil {
		return "", err
	}
	value, ok := data[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return value, nil
}

// Lookup returns the value stored under name, or def when the vault has no
// such entry. Backend errors are still returned.
func (s *Store) Lookup(ctx context.Context, username, name, def string) (string, error) {
	value, err := s.Get(ctx, username, name)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Delete removes name from the vault.
func (s *Store) Delete(ctx context.Context, username, name string) error {
	defer observe("delete", time.Now())

	ns := NamespaceFor(username)
	err := retry.OnError(conflictBackoff, retriable, func() error {
		data, version, err := s.client.GetSecretVersion(ctx, ns, s.secretName)
		if apierrors.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if err != nil {
			return fmt.Errorf("load vault for %q: %w", username, err)
		}
		if _, ok := data[name]; !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}

		delete(data, name)
		if err := s.client.UpdateSecret(ctx, ns, s.secretName, data, version); err != nil {
			return fmt.Errorf("update vault for %q: %w", username, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("vault.secret_deleted", zap.String("namespace", ns), zap.String("name", name))
	return nil
}

// retriable reports whether a write lost a race with another writer.
func retriable(err error) bool {
	return apierrors.IsConflict(err) || apierrors.IsAlreadyExists(err)
}

func (s *Store) load(ctx context.Context, username string) (map[string]string, error) {
	data, err := s.client.GetSecret(ctx, NamespaceFor(username), s.secretName)
	if apierrors.IsNotFound(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load vault for %q: %w", username, err)
	}
	if data == nil {
		data = map[string]string{}
	}
	return data, nil
}

func observe(op string, start time.Time) {
	metrics.ObserveDuration(metrics.VaultOperationDuration, start, op)
}
