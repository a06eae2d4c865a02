package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apierrors "github.com/fuelops/task-tracker/internal/errors"
)

const (
	readAttempts = 3
	readBackoff  = 50 * time.Millisecond
)

// retryRead runs a store read up to three times with linear backoff.
// Only reads go through here; writes are never retried.
func retryRead(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= readAttempts; attempt++ {
		err = fn()
		if err == nil || !retryable(err) {
			return err
		}
		if attempt == readAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * readBackoff):
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var de *apierrors.DomainError
	return !errors.As(err, &de)
}

// storeFailure reports a failed store call as an external service error.
func storeFailure(action string, err error) error {
	return apierrors.External("failed to "+action, err)
}
