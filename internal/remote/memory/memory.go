// Package memory is an in-process replica used for development and tests.
package memory

import (
	"context"
	"sync"

	"budgetbabah/internal/core"
	"budgetbabah/internal/remote"
)

type Replica struct {
	mu   sync.Mutex
	year core.FullYearData
}

var _ remote.Replica = (*Replica)(nil)

func New() *Replica {
	return &Replica{}
}

func (r *Replica) Push(_ context.Context, year core.FullYearData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.year = year.Clone()
	return nil
}

func (r *Replica) Pull(_ context.Context) (core.FullYearData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.year == nil {
		return core.FullYearData{}, nil
	}
	return r.year.Clone(), nil
}

func (r *Replica) Ping(_ context.Context) error {
	return nil
}
