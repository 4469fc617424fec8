package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions concurrently with at most limit of them in flight at once, and blocks
// until every one has returned. A limit <= 0 means no limit. Unlike a fail-fast group, one function
// failing or panicking never stops the others; every error is combined into the returned error. The
// return is the elapsed wall time and the combined error.
func RunInParallel(ctx context.Context, fs []SimpleFunc, limit int) (time.Duration, error) {
	start := time.Now()

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		bigError = multierr.Combine(bigError, err)
	}

	var group errgroup.Group
	if limit > 0 {
		group.SetLimit(limit)
	}
	for _, f := range fs {
		f := f
		group.Go(func() error {
			defer func() {
				if thePanic := recover(); thePanic != nil {
					storeError(fmt.Errorf("got panic running something in parallel: %v", thePanic))
				}
			}()
			if err := f(ctx); err != nil {
				storeError(err)
			}
			return nil
		})
	}

	//nolint:errcheck
	group.Wait()
	return time.Since(start), bigError
}
