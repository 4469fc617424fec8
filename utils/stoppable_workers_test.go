package utils

import (
	"context"
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestStoppableWorkersStop(t *testing.T) {
	var stopped atomic.Int32
	block := func(ctx context.Context) {
		<-ctx.Done()
		stopped.Add(1)
	}
	sw := NewStoppableWorkers(context.Background(), block, block)
	sw.AddWorkers(block)
	sw.Stop()
	test.That(t, stopped.Load(), test.ShouldEqual, int32(3))
	test.That(t, sw.Context().Err(), test.ShouldNotBeNil)

	sw.AddWorkers(func(context.Context) { stopped.Add(1) })
	sw.Stop()
	test.That(t, stopped.Load(), test.ShouldEqual, int32(3))
}

func TestStoppableWorkersWait(t *testing.T) {
	var ran atomic.Int32
	sw := NewStoppableWorkers(context.Background(), func(context.Context) { ran.Add(1) })
	sw.Wait()
	test.That(t, ran.Load(), test.ShouldEqual, int32(1))
	test.That(t, sw.Context().Err(), test.ShouldBeNil)
	sw.Stop()
}

func TestStoppableWorkersParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sw := NewStoppableWorkers(ctx, func(ctx context.Context) { <-ctx.Done() })
	cancel()
	sw.Wait()
	test.That(t, sw.Context().Err(), test.ShouldNotBeNil)
}
