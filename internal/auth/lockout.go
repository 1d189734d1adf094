// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package auth

import (
	"sync"
	"time"

	"github.com/cineshare/cineshare/internal/logging"
)

// LockoutConfig controls the failed-login lockout tracker.
type LockoutConfig struct {
	// Enabled turns lockout tracking on.
	Enabled bool

	// MaxAttempts is the failed-attempt count that triggers a lockout.
	MaxAttempts int

	// LockoutDuration is how long a locked subject stays locked.
	LockoutDuration time.Duration
}

// DefaultLockoutConfig returns the standard lockout policy.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		Enabled:         true,
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
	}
}

type lockoutEntry struct {
	failedAttempts int
	lockedUntil    time.Time
}

// Lockout tracks failed login attempts per subject (lowercased email)
// in memory. Entries reset on successful login and expire with the
// lockout window.
type Lockout struct {
	config LockoutConfig
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*lockoutEntry
}

// NewLockout creates a lockout tracker.
func NewLockout(config LockoutConfig) *Lockout {
	return &Lockout{
		config:  config,
		now:     time.Now,
		entries: make(map[string]*lockoutEntry),
	}
}

// IsLocked reports whether the subject is currently locked out, and
// for how much longer.
func (l *Lockout) IsLocked(subject string) (bool, time.Duration) {
	if !l.config.Enabled {
		return false, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[subject]
	if !ok {
		return false, 0
	}
	if remaining := entry.lockedUntil.Sub(l.now()); remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// RecordFailure registers a failed attempt and reports whether the
// subject is now locked.
func (l *Lockout) RecordFailure(subject string) bool {
	if !l.config.Enabled {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[subject]
	if !ok {
		entry = &lockoutEntry{}
		l.entries[subject] = entry
	}

	// An expired lockout starts a fresh counting cycle.
	now := l.now()
	if !entry.lockedUntil.IsZero() && now.After(entry.lockedUntil) {
		entry.failedAttempts = 0
		entry.lockedUntil = time.Time{}
	}

	entry.failedAttempts++
	if entry.failedAttempts < l.config.MaxAttempts {
		return false
	}

	entry.lockedUntil = now.Add(l.config.LockoutDuration)
	entry.failedAttempts = 0
	logging.Warn().
		Str("subject", subject).
		Dur("duration", l.config.LockoutDuration).
		Msg("Account locked after repeated failed logins")
	return true
}

// RecordSuccess clears the subject's failure history.
func (l *Lockout) RecordSuccess(subject string) {
	if !l.config.Enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, subject)
}
