package schedule

import (
	"context"
	"io"
	"log"
	"testing"
	"time"
)

func TestScheduleInvokesHandler(t *testing.T) {
	d := NewDispatcher(log.New(io.Discard, "", 0))

	done := make(chan string, 1)
	d.SetHandler(func(_ context.Context, downloadID string) {
		done <- downloadID
	})
	d.Schedule("d1", time.Millisecond)

	select {
	case id := <-done:
		if id != "d1" {
			t.Fatalf("handler got %q", id)
		}
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestScheduleWithoutHandlerDoesNotPanic(t *testing.T) {
	d := NewDispatcher(log.New(io.Discard, "", 0))
	d.Schedule("orphan", time.Millisecond)
	time.Sleep(10 * time.Millisecond)
}

func TestDispatchRunsImmediately(t *testing.T) {
	d := NewDispatcher(log.New(io.Discard, "", 0))

	done := make(chan struct{})
	d.SetHandler(func(_ context.Context, _ string) {
		close(done)
	})
	d.Dispatch("d2")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}
