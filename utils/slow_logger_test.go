package utils

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"go.viam.com/hcplanner/logging"
)

func TestSlowLogger(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	mock := clock.NewMock()

	stop := SlowLogger(context.Background(), mock, logger, "still planning", "cycle", 3)
	// let the logging goroutine block on the ticker before moving time
	time.Sleep(10 * time.Millisecond)
	mock.Add(time.Second)
	test.That(t, logs.FilterMessage("still planning").Len(), test.ShouldEqual, 0)

	mock.Add(time.Second)
	deadline := time.Now().Add(time.Second)
	for logs.FilterMessage("still planning").Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	stop()

	entries := logs.FilterMessage("still planning").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	fields := entries[0].ContextMap()
	test.That(t, fields["cycle"], test.ShouldEqual, int64(3))
	test.That(t, fields["time_elapsed"], test.ShouldEqual, "2s")

	mock.Add(10 * time.Second)
	test.That(t, logs.FilterMessage("still planning").Len(), test.ShouldEqual, 1)
}

func TestSlowLoggerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := SlowLogger(ctx, clock.NewMock(), logging.NewTestLogger(t), "never")
	cancel()
	stop()
}
