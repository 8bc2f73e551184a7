package sync

import "sync"

// GuardState is the suppression guard's position in its state machine.
type GuardState int

const (
	// StateIdle admits remote updates; nothing local is pending.
	StateIdle GuardState = iota
	// StateSaving means a save is in flight; remote updates are dropped.
	StateSaving
	// StateDirtyUnsaved means local edits await autosave; remote updates
	// are dropped so they cannot clobber in-flight typing.
	StateDirtyUnsaved
)

func (s GuardState) String() string {
	switch s {
	case StateSaving:
		return "saving"
	case StateDirtyUnsaved:
		return "dirty_unsaved"
	default:
		return "idle"
	}
}

// Guard linearizes local intent against remote notifications. It replaces
// the scattered isSyncing/hasUnsavedChanges boolean pairs whose check
// ordering let remote echoes slip through mid-save: with an explicit
// tri-state machine there is exactly one admission rule (AdmitRemote is
// true only in Idle).
type Guard struct {
	mu    sync.Mutex
	state GuardState
	// dirtyDuringSave records a local mutation that arrived while a save
	// was in flight, so completion lands in DirtyUnsaved instead of Idle.
	dirtyDuringSave bool
}

// NewGuard returns a guard in the Idle state.
func NewGuard() *Guard {
	return &Guard{}
}

// State returns the current state.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// MarkDirty records a local mutation. Idle moves to DirtyUnsaved; a
// mutation during Saving is remembered for when the save completes.
func (g *Guard) MarkDirty() {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case StateIdle:
		g.state = StateDirtyUnsaved
	case StateSaving:
		g.dirtyDuringSave = true
	}
}

// BeginSave transitions into Saving. It reports false when a save is
// already in flight, in which case the caller must not start another.
func (g *Guard) BeginSave() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateSaving {
		return false
	}
	g.state = StateSaving
	g.dirtyDuringSave = false
	return true
}

// EndSave transitions out of Saving regardless of save success or failure.
// keepDirty forces DirtyUnsaved (failed save: edits are retained so a later
// attempt can succeed), as does any mutation that arrived mid-save.
func (g *Guard) EndSave(keepDirty bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateSaving {
		return
	}
	if keepDirty || g.dirtyDuringSave {
		g.state = StateDirtyUnsaved
	} else {
		g.state = StateIdle
	}
	g.dirtyDuringSave = false
}

// AdmitRemote reports whether a remote update may be applied to the local
// view. Only Idle admits; eventual consistency is restored by the next
// notification after the local save completes.
func (g *Guard) AdmitRemote() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == StateIdle
}
