package auth

import (
	"context"

	"mediashare/internal/cache"
	"mediashare/internal/model"
)

const (
	roleKeyPrefix = "user_role:"
	roleTTL       = TokenLifetime
)

// RoleCache remembers user roles in Redis. Roles never change after
// registration, so an entry can only ever be missing, never stale.
type RoleCache struct {
	cache *cache.Client
}

// NewRoleCache creates a role cache. A nil client gives a cache that always misses.
func NewRoleCache(cache *cache.Client) *RoleCache {
	return &RoleCache{cache: cache}
}

// Get returns the cached role for userID.
func (r *RoleCache) Get(ctx context.Context, userID string) (model.Role, bool) {
	data := r.cache.Get(ctx, roleKeyPrefix+userID)
	if data == nil {
		return "", false
	}
	role := model.Role(data)
	if !role.Valid() {
		return "", false
	}
	return role, true
}

// Set records the role for userID.
func (r *RoleCache) Set(ctx context.Context, userID string, role model.Role) {
	r.cache.Set(ctx, roleKeyPrefix+userID, []byte(role), roleTTL)
}
