// Package audiences resolves opaque audience tokens to audience ids and
// registers new downstream consumers.
package audiences

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// tokenBytes is the entropy of a generated audience token.
const tokenBytes = 32

// Store is the persistence side of the registry.
type Store interface {
	FindByToken(ctx context.Context, token string) (*models.Audience, error)
	Create(ctx context.Context, a *models.Audience) (*models.Audience, error)
}

// Registry looks audiences up by exact token match, consulting an optional
// cache first. Only successful lookups are cached.
type Registry struct {
	store  Store
	cache  Cache
	logger logging.Logger
}

// NewRegistry wires a store with a cache; pass NopCache{} to disable caching.
func NewRegistry(store Store, cache Cache, logger logging.Logger) *Registry {
	if cache == nil {
		cache = NopCache{}
	}
	return &Registry{store: store, cache: cache, logger: logger.With("module", "audiences")}
}

// Resolve returns the audience id for token or common.ErrorNotFound.
func (r *Registry) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", common.ErrorNotFound
	}

	key := cacheKey(token)
	if id, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn(ctx, "audience cache read failed", "error", err)
	} else if ok {
		return id, nil
	}

	a, err := r.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("find audience: %w", err)
	}

	if err := r.cache.Set(ctx, key, a.ID); err != nil {
		r.logger.Warn(ctx, "audience cache write failed", "error", err)
	}
	return a.ID, nil
}

// Register creates an audience with a freshly generated token.
func (r *Registry) Register(ctx context.Context, name string) (*models.Audience, error) {
	if name == "" {
		v := common.NewValidationError()
		v.Add("name", "required")
		return nil, v
	}
	token, err := common.MakeRandHexString(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate audience token: %w", err)
	}
	a, err := r.store.Create(ctx, &models.Audience{Name: name, Token: token})
	if err != nil {
		return nil, err
	}
	r.logger.Info(ctx, "audience registered", "audience_id", a.ID, "name", name)
	return a, nil
}

// cacheKey never stores the bearer token itself.
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
