package subscription

import (
	"context"
	"sync"

	"github.com/DL444/cqu-schedule/lib/schedule"
)

// TermCache is the process-wide current-term cache. The first
// successful load wins until Set overwrites it on refresh.
type TermCache struct {
	mu   sync.Mutex
	term *schedule.Term
}

// Get returns the cached term, loading it through the callback on the
// first call. A failed load caches nothing; fallback behavior is the
// caller's choice.
func (c *TermCache) Get(ctx context.Context, load func(ctx context.Context) (schedule.Term, error)) (schedule.Term, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.term != nil {
		return *c.term, nil
	}
	term, err := load(ctx)
	if err != nil {
		return schedule.Term{}, err
	}
	c.term = &term
	return term, nil
}

// Set overwrites the cached term.
func (c *TermCache) Set(term schedule.Term) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.term = &term
}
