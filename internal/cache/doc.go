// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package cache provides a generic in-memory LRU cache with per-entry TTL.

LRU bounds both the number of entries and how long each one is served:

	users := cache.NewLRU[*models.User](10000, time.Minute)
	users.Add(subject, user)
	if u, ok := users.Get(subject); ok {
	    // served from memory
	}

Expiration is lazy. An expired entry is dropped when it is next read, or in
bulk by CleanupExpired. All methods are safe for concurrent use.

The auth package keeps resolved callers here so that authenticated requests
do not query the user table on every call.
*/
package cache
