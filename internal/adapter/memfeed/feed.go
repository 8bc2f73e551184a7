// Package memfeed implements the docstore change feed in process memory.
// Events are delivered synchronously on the publisher's goroutine, which
// preserves write order per (tenant, resource) by construction.
package memfeed

import (
	"context"
	"sync"

	"github.com/docegestao/docegestao/internal/port/docstore"
)

type subscriber struct {
	fn    docstore.Handler
	errFn docstore.ErrHandler
}

// Feed fans events out to in-process subscribers keyed by scope.
type Feed struct {
	mu     sync.RWMutex
	subs   map[string]map[int]*subscriber
	nextID int
}

// New creates an empty in-process feed.
func New() *Feed {
	return &Feed{subs: make(map[string]map[int]*subscriber)}
}

func scope(tenant, resource string) string {
	return tenant + "/" + resource
}

// Publish delivers the event to every subscriber of (tenant, resource).
func (f *Feed) Publish(_ context.Context, tenant, resource string, ev docstore.Event) error {
	f.mu.RLock()
	var targets []*subscriber
	for _, sub := range f.subs[scope(tenant, resource)] {
		targets = append(targets, sub)
	}
	f.mu.RUnlock()

	for _, sub := range targets {
		sub.fn(ev)
	}
	return nil
}

// Subscribe registers handlers for (tenant, resource). The returned cancel
// is idempotent.
func (f *Feed) Subscribe(_ context.Context, tenant, resource string, fn docstore.Handler, errFn docstore.ErrHandler) (func(), error) {
	f.mu.Lock()
	key := scope(tenant, resource)
	if f.subs[key] == nil {
		f.subs[key] = make(map[int]*subscriber)
	}
	id := f.nextID
	f.nextID++
	f.subs[key][id] = &subscriber{fn: fn, errFn: errFn}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[key], id)
			if len(f.subs[key]) == 0 {
				delete(f.subs, key)
			}
			f.mu.Unlock()
		})
	}, nil
}

// Fail reports a transport error to every subscriber of (tenant, resource).
// Test hook for the no-auto-retry contract.
func (f *Feed) Fail(tenant, resource string, err error) {
	f.mu.RLock()
	var targets []*subscriber
	for _, sub := range f.subs[scope(tenant, resource)] {
		targets = append(targets, sub)
	}
	f.mu.RUnlock()

	for _, sub := range targets {
		if sub.errFn != nil {
			sub.errFn(err)
		}
	}
}
