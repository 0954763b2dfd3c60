package schedule

import (
	"context"
	"log"
	"sync"
	"time"
)

// Handler re-processes a download by id.
type Handler func(ctx context.Context, downloadID string)

// Dispatcher re-invokes download processing after a delay. It stands in for
// an external task queue: each scheduled entry runs as its own goroutine
// once the timer fires.
type Dispatcher struct {
	mu      sync.Mutex
	handler Handler
	logger  *log.Logger
}

// NewDispatcher creates an idle dispatcher; SetHandler must be called
// before anything is scheduled.
func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// SetHandler wires the processing callback. Kept separate from the
// constructor because the orchestrator and dispatcher reference each other.
func (d *Dispatcher) SetHandler(handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
}

// Schedule runs the handler for downloadID after delay.
func (d *Dispatcher) Schedule(downloadID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		d.mu.Lock()
		handler := d.handler
		d.mu.Unlock()

		if handler == nil {
			d.logger.Printf("dropping scheduled run, no handler: %s", downloadID)
			return
		}
		handler(context.Background(), downloadID)
	})
}

// Dispatch runs the handler for downloadID immediately on its own goroutine.
func (d *Dispatcher) Dispatch(downloadID string) {
	d.Schedule(downloadID, 0)
}
