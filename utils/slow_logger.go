package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/hcplanner/logging"
)

const (
	slowLogFirst = 2 * time.Second
	slowLogEvery = 5 * time.Second
)

// SlowLogger warns with msg after two seconds, and every five seconds after that, until the returned function is
// called or ctx is done. Elapsed time is appended to keysAndValues.
func SlowLogger(ctx context.Context, clk clock.Clock, logger logging.Logger, msg string, keysAndValues ...interface{}) func() {
	ticker := clk.Ticker(slowLogFirst)
	ctx, cancel := context.WithCancel(ctx)
	began := clk.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		first := true
		for {
			select {
			case <-ticker.C:
				elapsed := clk.Since(began).Round(time.Second).String()
				logger.Warnw(msg, append(keysAndValues[:len(keysAndValues):len(keysAndValues)], "time_elapsed", elapsed)...)
				if first {
					ticker.Reset(slowLogEvery)
					first = false
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() {
		cancel()
		ticker.Stop()
		<-done
	}
}
