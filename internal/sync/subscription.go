package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	stdsync "sync"

	"github.com/docegestao/docegestao/internal/port/docstore"
)

// Snapshot is the full point-in-time state of a subscribed (tenant,
// resource), path-ordered. The first delivery to each observer carries
// Initial so callers can skip "remote change" side effects on startup.
type Snapshot struct {
	Docs    []docstore.Document
	Initial bool
}

// Doc returns the document with the given resource key, or nil. Convenient
// for single-document resources such as the menu.
func (s Snapshot) Doc(key string) *docstore.Document {
	for i := range s.Docs {
		if s.Docs[i].Key() == key {
			return &s.Docs[i]
		}
	}
	return nil
}

// Observer receives snapshots and transport errors for one subscription.
// Callbacks run on the delivery goroutine and must not block or re-enter
// the Manager.
type Observer struct {
	OnSnapshot func(Snapshot)
	OnError    func(error)
}

// CancelFunc idempotently tears down one observer's subscription.
type CancelFunc func()

// Manager maintains exactly one push channel per (tenant, resource),
// fanning deliveries out to any number of observers. Updates for a given
// resource are delivered in write order; nothing is guaranteed across
// resources. Transport errors are reported once to each observer and the
// channel is not re-established.
type Manager struct {
	store *Store
	feed  docstore.Feed
	log   *slog.Logger

	mu   stdsync.Mutex
	subs map[string]*resourceSub
}

// NewManager creates a subscription manager over the store's change feed.
func NewManager(store *Store, feed docstore.Feed, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store: store,
		feed:  feed,
		log:   log,
		subs:  make(map[string]*resourceSub),
	}
}

// resourceSub is the single underlying channel for one (tenant, resource).
// deliverMu linearizes everything observers can see: initial snapshots,
// change events and observer removal all take it, so no delivery can land
// after a cancel returns.
type resourceSub struct {
	tenant   string
	resource string

	deliverMu  stdsync.Mutex
	docs       map[string]docstore.Document
	observers  map[int]Observer
	nextID     int
	failed     bool
	cancelFeed func()
}

// Subscribe attaches an observer to the (tenant, resource) channel,
// creating the channel on first use. The observer immediately receives the
// current state with Initial set, then every subsequent change in write
// order. The returned cancel is idempotent and guarantees no further
// deliveries once it returns; the underlying channel is torn down when the
// last observer cancels.
func (m *Manager) Subscribe(ctx context.Context, tenant, resource string, obs Observer) (CancelFunc, error) {
	sub, err := m.resourceSubFor(ctx, tenant, resource)
	if err != nil {
		return nil, err
	}

	sub.deliverMu.Lock()
	id := sub.nextID
	sub.nextID++
	sub.observers[id] = obs
	if obs.OnSnapshot != nil {
		obs.OnSnapshot(Snapshot{Docs: sub.snapshotDocs(), Initial: true})
	}
	sub.deliverMu.Unlock()

	var once stdsync.Once
	return func() {
		once.Do(func() { m.detach(sub, id) })
	}, nil
}

// resourceSubFor returns the existing channel for (tenant, resource) or
// establishes it: subscribe to the feed first, then load the initial state
// while event delivery is held off, so nothing written after the load is
// missed.
func (m *Manager) resourceSubFor(ctx context.Context, tenant, resource string) (*resourceSub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tenant + "/" + resource
	if sub, ok := m.subs[key]; ok {
		return sub, nil
	}

	sub := &resourceSub{
		tenant:    tenant,
		resource:  resource,
		docs:      make(map[string]docstore.Document),
		observers: make(map[int]Observer),
	}

	sub.deliverMu.Lock()
	defer sub.deliverMu.Unlock()

	cancelFeed, err := m.feed.Subscribe(ctx, tenant, resource, sub.handleEvent, sub.handleError)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s/%s: %w", tenant, resource, err)
	}
	sub.cancelFeed = cancelFeed

	docs, err := m.store.LoadAll(ctx, tenant, resource)
	if err != nil {
		cancelFeed()
		return nil, fmt.Errorf("initial snapshot %s/%s: %w", tenant, resource, err)
	}
	for _, d := range docs {
		sub.docs[d.Path] = d
	}

	m.subs[key] = sub
	m.log.Debug("subscription established", "tenant", tenant, "resource", resource)
	return sub, nil
}

func (m *Manager) detach(sub *resourceSub, id int) {
	sub.deliverMu.Lock()
	delete(sub.observers, id)
	last := len(sub.observers) == 0
	sub.deliverMu.Unlock()

	if !last {
		return
	}

	m.mu.Lock()
	key := sub.tenant + "/" + sub.resource
	if cur, ok := m.subs[key]; ok && cur == sub {
		delete(m.subs, key)
	}
	m.mu.Unlock()

	sub.cancelFeed()
	m.log.Debug("subscription torn down", "tenant", sub.tenant, "resource", sub.resource)
}

// handleEvent runs on the feed's delivery goroutine.
func (sub *resourceSub) handleEvent(ev docstore.Event) {
	sub.deliverMu.Lock()
	defer sub.deliverMu.Unlock()
	if sub.failed {
		return
	}

	if ev.Deleted {
		delete(sub.docs, ev.Doc.Path)
	} else {
		sub.docs[ev.Doc.Path] = ev.Doc
	}

	snap := Snapshot{Docs: sub.snapshotDocs()}
	for _, obs := range sub.observers {
		if obs.OnSnapshot != nil {
			obs.OnSnapshot(snap)
		}
	}
}

// handleError reports a dropped channel to every observer exactly once.
func (sub *resourceSub) handleError(err error) {
	sub.deliverMu.Lock()
	defer sub.deliverMu.Unlock()
	if sub.failed {
		return
	}
	sub.failed = true
	for _, obs := range sub.observers {
		if obs.OnError != nil {
			obs.OnError(err)
		}
	}
}

func (sub *resourceSub) snapshotDocs() []docstore.Document {
	out := make([]docstore.Document, 0, len(sub.docs))
	for _, d := range sub.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
