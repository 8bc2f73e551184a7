package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"
)

// SessionConfig configures one editor session over a single-document
// resource (e.g. the menu editor).
type SessionConfig struct {
	Resource string
	Key      string
	// Quiet is the autosave debounce window; zero means DefaultQuietPeriod.
	Quiet time.Duration
	// MaxDeferral, when positive, flushes after that much continuous
	// editing even if the quiet period keeps being reset.
	MaxDeferral time.Duration
	// OnRemote is invoked with the document data whenever a remote update
	// is admitted by the suppression guard. Never invoked for the initial
	// snapshot or for updates arriving while local edits are in flight.
	OnRemote func(data json.RawMessage)
	// OnError receives store and subscription failures. The session stays
	// usable; failed saves keep the dirty state so a later flush retries.
	OnError func(err error)
}

// Session binds the identity resolver, tenant-scoped store, subscription
// manager, suppression guard and autosave scheduler for one resource. It is
// the explicit per-authenticated-session context object: all state the
// original page kept in module-level globals lives here, with a lifecycle
// ending at Close.
type Session struct {
	tenant string
	store  *Store
	cfg    SessionConfig
	log    *slog.Logger

	guard  *Guard
	saver  *Autosaver
	cancel CancelFunc

	mu      stdsync.Mutex
	current json.RawMessage
	closed  bool
}

// OpenSession resolves the tenant, loads (or materializes) the document and
// subscribes to its live updates. The caller must Close the session when
// the owning view is torn down.
func OpenSession(ctx context.Context, resolver *Resolver, store *Store, mgr *Manager, cfg SessionConfig, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}

	tenant, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	doc, err := store.Load(ctx, tenant, cfg.Resource, cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	s := &Session{
		tenant:  tenant,
		store:   store,
		cfg:     cfg,
		log:     log,
		guard:   NewGuard(),
		current: doc.Data,
	}
	s.saver = NewAutosaver(cfg.Quiet, cfg.MaxDeferral, s.autosave)

	cancel, err := mgr.Subscribe(ctx, tenant, cfg.Resource, Observer{
		OnSnapshot: s.onSnapshot,
		OnError: func(err error) {
			s.log.Warn("session subscription error", "tenant", s.tenant, "resource", s.cfg.Resource, "error", err)
			s.reportError(err)
		},
	})
	if err != nil {
		s.saver.Stop()
		return nil, fmt.Errorf("open session: %w", err)
	}
	s.cancel = cancel
	return s, nil
}

// Tenant returns the resolved tenant id the session is scoped to.
func (s *Session) Tenant() string {
	return s.tenant
}

// Data returns the current local document state.
func (s *Session) Data() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Mutate replaces the local document state and schedules an autosave.
// Rapid successive mutations coalesce into a single write containing the
// final state.
func (s *Session) Mutate(doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("mutate: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("mutate: session closed")
	}
	s.current = data
	s.mu.Unlock()

	s.guard.MarkDirty()
	s.saver.Touch()
	return nil
}

// Flush saves immediately, cancelling any pending autosave.
func (s *Session) Flush(ctx context.Context) error {
	s.saver.Cancel()
	return s.save(ctx)
}

// Close tears down the subscription and stops the autosave timer. Safe to
// call more than once. A pending unsaved edit is flushed first so closing
// the view never drops a local change.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Wait out an in-flight save first: a mutation recorded mid-save lands
	// in DirtyUnsaved only once that save completes.
	for s.guard.State() == StateSaving && ctx.Err() == nil {
		time.Sleep(5 * time.Millisecond)
	}

	var err error
	if s.saver.Pending() || s.guard.State() != StateIdle {
		err = s.Flush(ctx)
	}
	s.saver.Stop()
	s.cancel()
	return err
}

func (s *Session) onSnapshot(snap Snapshot) {
	if snap.Initial {
		return
	}
	if !s.guard.AdmitRemote() {
		s.log.Debug("remote update suppressed",
			"tenant", s.tenant, "resource", s.cfg.Resource, "state", s.guard.State().String())
		return
	}

	doc := snap.Doc(s.cfg.Key)
	if doc == nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.current = doc.Data
	s.mu.Unlock()

	if s.cfg.OnRemote != nil {
		s.cfg.OnRemote(doc.Data)
	}
}

func (s *Session) autosave() {
	// Saves triggered by the timer get a bounded context of their own; the
	// write is idempotent and not worth cancelling once started.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.save(ctx); err != nil {
		s.log.Warn("autosave failed, edits retained", "tenant", s.tenant, "resource", s.cfg.Resource, "error", err)
	}
}

func (s *Session) save(ctx context.Context) error {
	if !s.guard.BeginSave() {
		// Another save is in flight. The guard has recorded the mutation
		// that brought us here, so re-arm the timer to flush it once the
		// current save completes.
		s.saver.Touch()
		return nil
	}

	s.mu.Lock()
	data := s.current
	s.mu.Unlock()

	_, err := s.store.Save(ctx, s.tenant, s.cfg.Resource, s.cfg.Key, json.RawMessage(data))
	s.guard.EndSave(err != nil)
	if err != nil {
		// Keep the timer armed so a retry happens after the next quiet
		// period instead of losing the edit.
		s.saver.Touch()
		s.reportError(err)
		return err
	}
	return nil
}

func (s *Session) reportError(err error) {
	if s.cfg.OnError != nil {
		s.cfg.OnError(err)
	}
}
