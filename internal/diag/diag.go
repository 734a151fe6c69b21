package diag

import (
	"sync"
	"time"

	"github.com/materialkai/vision-gateway/internal/logging"
)

// Event records a single degraded-path failure: an enrichment step that was
// skipped, a best-effort call that errored, a stale response that was
// discarded. Events are queryable so failure rates can be monitored instead
// of vanishing into console noise.
type Event struct {
	Component string    `json:"component"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder keeps the most recent events in a fixed-size ring buffer and
// mirrors each one to the structured log.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	next   int
	filled bool
	log    *logging.Logger
}

const defaultCapacity = 256

func NewRecorder(log *logging.Logger) *Recorder {
	return &Recorder{
		events: make([]Event, defaultCapacity),
		log:    log,
	}
}

func (r *Recorder) Record(component, operation string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	ev := Event{
		Component: component,
		Operation: operation,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}

	r.mu.Lock()
	r.events[r.next] = ev
	r.next++
	if r.next == len(r.events) {
		r.next = 0
		r.filled = true
	}
	r.mu.Unlock()

	if r.log != nil {
		r.log.Warn("degraded path",
			"component", component,
			"operation", operation,
			"error", msg,
		)
	}
}

// Recent returns up to n events, newest first.
func (r *Recorder) Recent(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.filled {
		size = len(r.events)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		idx := r.next - 1 - i
		if idx < 0 {
			idx += len(r.events)
		}
		out = append(out, r.events[idx])
	}
	return out
}
