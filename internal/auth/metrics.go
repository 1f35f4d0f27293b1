// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts counts bearer verifications.
	// Labels:
	//   - method: jwt, oidc or multi
	//   - outcome: success, missing, invalid, expired, unavailable
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of bearer credential verifications",
		},
		[]string{"method", "outcome"},
	)

	// UnregisteredSubjects counts verified subjects with no user row.
	UnregisteredSubjects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_unregistered_subjects_total",
			Help: "Verified identities rejected because no user is registered",
		},
	)

	// UserCacheLookups counts resolutions through CachedUserStore.
	// Labels:
	//   - result: hit or miss
	UserCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_user_cache_lookups_total",
			Help: "Caller resolutions served from or missing the user cache",
		},
		[]string{"result"},
	)
)
