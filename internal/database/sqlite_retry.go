package database

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	maxRetries = 10
	baseDelay  = 10 * time.Millisecond
	maxDelay   = 250 * time.Millisecond
)

// isRetryableError checks if the error is a transient SQLite lock conflict,
// typically the out-of-band loader holding a write lock on the file
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code == sqlite3.ErrBusy || sqErr.Code == sqlite3.ErrLocked
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}

// retryable runs fn until it succeeds, fails with a non-retryable error,
// runs out of attempts or ctx is done
func retryable(ctx context.Context, query string, fn func() error) error {
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()

		if !isRetryableError(err) {
			return err
		}

		if attempt < maxRetries-1 {
			// Exponential backoff with jitter
			delay := baseDelay << uint(attempt)
			if delay > maxDelay {
				delay = maxDelay
			}

			// Add random jitter (up to 50% of delay)
			jitter := time.Duration(rand.Int63n(int64(delay) / 2))

			log.Printf("[DATABASE] SQLite retry attempt %d/%d for query (first 50 chars): %s... Error: %v",
				attempt+1, maxRetries, truncateString(query, 50), err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay + jitter):
			}
		}
	}

	return err
}

// truncateString truncates a string to the specified length
func truncateString(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length]
}
