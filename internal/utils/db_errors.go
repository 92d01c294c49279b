package utils

import (
	"context"
	"errors"
	"strings"
	"time"
)

// IsDBLockError reports whether err looks like a lock contention / deadlock / busy error.
// It is intended for retry/backoff decisions. The broad "busy" and "interrupted"
// patterns match SQLite's SQLITE_BUSY and SQLITE_INTERRUPT error strings; false
// positives only cost one extra retry.
func IsDBLockError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database schema has changed") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "interrupted") ||
		strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "lock timeout") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not obtain lock")
}

// IsTransientDBError reports whether err is likely transient (timeout/cancel/lock contention).
// It is intended for decisions like retrying writes in background batch jobs.
func IsTransientDBError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return IsDBLockError(err)
}

// RetryOnLock runs fn up to attempts times, backing off between attempts while
// the returned error is lock contention. Non-lock errors abort immediately.
func RetryOnLock(attempts int, backoff time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !IsDBLockError(err) {
			return err
		}
		if i < attempts-1 {
			time.Sleep(backoff * time.Duration(i+1))
		}
	}
	return err
}
