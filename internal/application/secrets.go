package application

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/bnema/slotwatch/internal/domain"
	"github.com/bnema/slotwatch/internal/ports"
)

// SecretResolver expands "secret:<key>" settings through a SecretStore.
// Plain values pass through untouched.
type SecretResolver struct {
	store ports.SecretStore
}

func NewSecretResolver(store ports.SecretStore) *SecretResolver {
	return &SecretResolver{store: store}
}

func (r *SecretResolver) Resolve(ctx context.Context, setting string, value string) (string, error) {
	if !strings.HasPrefix(value, domain.SecretRefPrefix) {
		return value, nil
	}

	key, ok := domain.ParseSecretRef(value)
	if !ok {
		return "", fmt.Errorf("%s: secret reference has no key", setting)
	}
	if r == nil || r.store == nil {
		return "", fmt.Errorf("%s: no secret store configured for %q", setting, key)
	}

	secret, err := r.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%s: load secret %q: %w", setting, key, err)
	}

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", fmt.Errorf("%s: secret %q: %w", setting, key, domain.ErrSecretNotFound)
	}

	return secret, nil
}

// ResolveAll resolves every setting in place and reports all failures in
// setting name order.
func (r *SecretResolver) ResolveAll(ctx context.Context, settings map[string]*string) error {
	var errs []error
	for _, setting := range slices.Sorted(maps.Keys(settings)) {
		value := settings[setting]
		if value == nil {
			continue
		}

		resolved, err := r.Resolve(ctx, setting, *value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*value = resolved
	}

	return errors.Join(errs...)
}
