// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package auth

import (
	"context"
	"time"

	"github.com/tomtom215/tutorhub/internal/cache"
	"github.com/tomtom215/tutorhub/internal/models"
)

// CachedUserStore keeps resolved users in an LRU keyed by external id.
// Lookup failures, including unregistered subjects, are never cached, so a
// subject that registers is served on its next request.
type CachedUserStore struct {
	inner UserStore
	users *cache.LRU[*models.User]
}

// NewCachedUserStore wraps inner. A non-positive ttl returns inner unchanged.
func NewCachedUserStore(inner UserStore, ttl time.Duration, size int) UserStore {
	if ttl <= 0 {
		return inner
	}
	return &CachedUserStore{inner: inner, users: cache.NewLRU[*models.User](size, ttl)}
}

// GetUserByExternalID implements UserStore.
func (c *CachedUserStore) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if u, ok := c.users.Get(externalID); ok {
		UserCacheLookups.WithLabelValues("hit").Inc()
		return u, nil
	}
	UserCacheLookups.WithLabelValues("miss").Inc()

	u, err := c.inner.GetUserByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	c.users.Add(externalID, u)
	return u, nil
}
