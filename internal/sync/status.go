package sync

import (
	"sync"
	"time"
)

// Status is the single user-visible sync/save state. The states are
// mutually exclusive; transient ones revert to idle on their own so a
// stale badge never sticks around.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSaving  Status = "saving"
	StatusSaved   Status = "saved"
	StatusSyncing Status = "cloud-syncing"
	StatusSynced  Status = "cloud-synced"
	StatusError   Status = "error"
)

// Reporter reduces engine events into the current display status.
type Reporter struct {
	mu      sync.Mutex
	current Status
	gen     uint64
	ttl     map[Status]time.Duration
}

// NewReporter builds a reporter with per-status display durations for the
// transient states.
func NewReporter(savedTTL, syncedTTL, errorTTL time.Duration) *Reporter {
	return &Reporter{
		current: StatusIdle,
		ttl: map[Status]time.Duration{
			StatusSaved:  savedTTL,
			StatusSynced: syncedTTL,
			StatusError:  errorTTL,
		},
	}
}

// Current returns the status to display.
func (r *Reporter) Current() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Set switches to s. States with a configured display duration revert to
// idle after it elapses, unless something else was reported in between.
func (r *Reporter) Set(s Status) {
	r.mu.Lock()
	r.current = s
	r.gen++
	gen := r.gen
	ttl, transient := r.ttl[s]
	r.mu.Unlock()

	if !transient {
		return
	}
	time.AfterFunc(ttl, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen == gen {
			r.current = StatusIdle
		}
	})
}
