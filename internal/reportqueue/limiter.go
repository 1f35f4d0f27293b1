// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package reportqueue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tutorhub/internal/logging"
)

const (
	// startLogKey holds the start log in the state bucket. Session ids are
	// UUIDs, so it cannot collide with a job record.
	startLogKey = "limiter.starts"

	// contendedWait is the pause after losing claimRetries races in a row.
	contendedWait = 25 * time.Millisecond
)

// startLog is the list of job starts inside the current window, oldest first.
type startLog struct {
	Starts []time.Time `json:"starts"`
}

// startLimiter admits at most max job starts in any rolling window, counted
// across every worker process that shares the state bucket. Each start is
// appended to a single KV entry written with revision compare-and-set.
type startLimiter struct {
	kv     jetstream.KeyValue
	max    int
	window time.Duration
	now    func() time.Time

	// full throttles the "limit reached" log to once per window.
	full rate.Sometimes
}

func newStartLimiter(kv jetstream.KeyValue, maxStarts int, window time.Duration, now func() time.Time) *startLimiter {
	return &startLimiter{
		kv:     kv,
		max:    maxStarts,
		window: window,
		now:    now,
		full:   rate.Sometimes{Interval: window},
	}
}

// Wait blocks until a start is admitted or ctx is done.
func (l *startLimiter) Wait(ctx context.Context) error {
	for {
		wait, err := l.reserve(ctx)
		if err != nil {
			return err
		}
		if wait <= 0 {
			return nil
		}
		l.full.Do(func() {
			logging.Ctx(ctx).Info().
				Int("max", l.max).
				Dur("window", l.window).
				Dur("wait", wait).
				Msg("Report start limit reached")
		})
		sleepCtx(ctx, wait)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// reserve records a start when the window has room and returns zero.
// Otherwise it records nothing and returns how long until the oldest start
// leaves the window.
func (l *startLimiter) reserve(ctx context.Context) (time.Duration, error) {
	for range claimRetries {
		now := l.now()
		log, rev, err := l.read(ctx)
		if err != nil {
			return 0, err
		}

		live := log.Starts[:0]
		for _, t := range log.Starts {
			if now.Sub(t) < l.window {
				live = append(live, t)
			}
		}
		slices.SortFunc(live, time.Time.Compare)
		if len(live) >= l.max {
			return live[len(live)-l.max].Add(l.window).Sub(now), nil
		}

		data, err := json.Marshal(startLog{Starts: append(live, now)})
		if err != nil {
			return 0, fmt.Errorf("marshal start log: %w", err)
		}
		if rev == 0 {
			_, err = l.kv.Create(ctx, startLogKey, data)
		} else {
			_, err = l.kv.Update(ctx, startLogKey, data, rev)
		}
		if isRevisionConflict(err) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("record job start: %w", err)
		}
		return 0, nil
	}
	return contendedWait, nil
}

// read returns the current log and its revision. A missing or unreadable
// entry yields an empty log; revision 0 means the key must be created.
func (l *startLimiter) read(ctx context.Context) (startLog, uint64, error) {
	entry, err := l.kv.Get(ctx, startLogKey)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return startLog{}, 0, nil
	}
	if err != nil {
		return startLog{}, 0, fmt.Errorf("read start log: %w", err)
	}
	var log startLog
	if err := json.Unmarshal(entry.Value(), &log); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Resetting unreadable report start log")
		return startLog{}, entry.Revision(), nil
	}
	return log, entry.Revision(), nil
}

// inWindow counts the starts inside the current window.
func (l *startLimiter) inWindow(ctx context.Context) (int, error) {
	log, _, err := l.read(ctx)
	if err != nil {
		return 0, err
	}
	now := l.now()
	n := 0
	for _, t := range log.Starts {
		if now.Sub(t) < l.window {
			n++
		}
	}
	return n, nil
}
