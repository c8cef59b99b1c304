package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
)

// HashStore is the subset of pkg/redis.Client the redis backend needs.
type HashStore interface {
	HSet(ctx context.Context, key, field, value string) error
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HDel(ctx context.Context, key string, fields ...string) error
	HKeys(ctx context.Context, key string) ([]string, error)
}

// Redis keeps the whole directory in one Redis hash, so no directory process
// is needed when every service can reach Redis.
type Redis struct {
	store HashStore
	key   string
}

func NewRedis(store HashStore, key string) *Redis {
	return &Redis{store: store, key: key}
}

func (r *Redis) Register(ctx context.Context, name, endpoint string) error {
	if name == "" || endpoint == "" {
		return fmt.Errorf("%w: name and endpoint are required", apperrors.ErrInvalidInput)
	}
	if err := r.store.HSet(ctx, r.key, name, endpoint); err != nil {
		return fmt.Errorf("%w: registering %s: %v", apperrors.ErrCommunication, name, err)
	}
	return nil
}

func (r *Redis) Deregister(ctx context.Context, name string) error {
	if err := r.store.HDel(ctx, r.key, name); err != nil {
		return fmt.Errorf("%w: deregistering %s: %v", apperrors.ErrCommunication, name, err)
	}
	return nil
}

func (r *Redis) Resolve(ctx context.Context, name string) (string, error) {
	endpoint, ok, err := r.store.HGet(ctx, r.key, name)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %s: %v", apperrors.ErrCommunication, name, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: service %q", apperrors.ErrNotFound, name)
	}
	return endpoint, nil
}

func (r *Redis) List(ctx context.Context, prefix string) ([]string, error) {
	fields, err := r.store.HKeys(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s*: %v", apperrors.ErrCommunication, prefix, err)
	}
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f, prefix) {
			names = append(names, f)
		}
	}
	sort.Strings(names)
	return names, nil
}
