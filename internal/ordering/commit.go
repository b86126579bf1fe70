package ordering

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Phase tracks one reorder gesture from grab to settlement.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseDropped
	PhasePersisting
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseDropped:
		return "dropped"
	case PhasePersisting:
		return "persisting"
	case PhaseSettled:
		return "settled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrBusy is returned when a gesture is attempted while a previous commit is
// still persisting: commits are serial per list.
var ErrBusy = errors.New("reorder still persisting")

// PersistFunc sends the full ordered id array to the server.
type PersistFunc func(ctx context.Context, orderedIDs []string) error

// RefreshFunc refetches the authoritative (non-pinned) item ids so the
// settle step can reconcile local order against concurrent remote edits.
type RefreshFunc func(ctx context.Context) ([]string, error)

// List owns the custom order for one list scope (e.g. "projects" or
// "tasks:my"). Lists are per-view; views never share one even when their
// items overlap.
type List struct {
	scope   string
	persist PersistFunc
	refresh RefreshFunc

	mu      sync.Mutex
	order   []string
	phase   Phase
	grabbed string
	preview []string
}

func NewList(scope string, persist PersistFunc, refresh RefreshFunc) *List {
	return &List{scope: scope, persist: persist, refresh: refresh}
}

func (l *List) Scope() string { return l.scope }

func (l *List) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

// Order returns the current visible custom order.
func (l *List) Order() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == PhaseDragging {
		return append([]string{}, l.preview...)
	}
	return append([]string{}, l.order...)
}

// Reconcile rebuilds the order against the authoritative id set.
func (l *List) Reconcile(currentIDs []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = Reconcile(l.order, currentIDs)
}

// Grab starts a drag gesture for id. A gesture may start from idle or
// settled; starting while a commit persists returns ErrBusy.
func (l *List) Grab(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.phase {
	case PhaseIdle, PhaseSettled:
	case PhaseDragging:
		return errors.New("already dragging")
	default:
		return ErrBusy
	}
	if indexOf(l.order, id) < 0 {
		return fmt.Errorf("unknown item %q", id)
	}
	l.phase = PhaseDragging
	l.grabbed = id
	l.preview = append([]string{}, l.order...)
	return nil
}

// DragOver updates the preview so the grabbed item sits at targetID's
// position. No-op unless dragging.
func (l *List) DragOver(targetID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != PhaseDragging {
		return
	}
	l.preview = ApplyMove(l.preview, l.grabbed, targetID)
}

// Cancel abandons the gesture and discards the preview.
func (l *List) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != PhaseDragging {
		return
	}
	l.phase = PhaseIdle
	l.grabbed = ""
	l.preview = nil
}

// Drop ends the gesture and returns the commit command for the resulting
// order. When the gesture did not change anything, Drop returns (nil, nil)
// and the list goes back to idle.
func (l *List) Drop() (*Command, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != PhaseDragging {
		return nil, fmt.Errorf("drop in %s", l.phase)
	}
	next := l.preview
	l.grabbed = ""
	l.preview = nil
	if equalOrder(next, l.order) {
		l.phase = PhaseIdle
		return nil, nil
	}
	l.phase = PhaseDropped
	return &Command{list: l, prev: append([]string{}, l.order...), next: next}, nil
}

// CommandFor builds a commit command for an explicit move (CLI path: no
// gesture, straight from idle to dropped).
func (l *List) CommandFor(movedID, targetID string) (*Command, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.phase {
	case PhaseIdle, PhaseSettled:
	default:
		return nil, ErrBusy
	}
	next := ApplyMove(l.order, movedID, targetID)
	if equalOrder(next, l.order) {
		return nil, nil
	}
	l.phase = PhaseDropped
	return &Command{list: l, prev: append([]string{}, l.order...), next: next}, nil
}

// CommandForOrder builds a commit command for an explicitly computed next
// order (e.g. an InsertRelative move from the CLI).
func (l *List) CommandForOrder(next []string) (*Command, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.phase {
	case PhaseIdle, PhaseSettled:
	default:
		return nil, ErrBusy
	}
	if equalOrder(next, l.order) {
		return nil, nil
	}
	l.phase = PhaseDropped
	return &Command{list: l, prev: append([]string{}, l.order...), next: append([]string{}, next...)}, nil
}

// Command captures one optimistic reorder: the previous order for rollback,
// the next order to apply and persist. Every mutation site runs the same
// apply / persist / rollback / settle discipline through Run.
type Command struct {
	list *List
	prev []string
	next []string
}

func (c *Command) Prev() []string { return append([]string{}, c.prev...) }
func (c *Command) Next() []string { return append([]string{}, c.next...) }

// Run applies the new order locally, persists it, rolls back on failure, and
// always settles by refreshing the authoritative set and reconciling.
// The returned error is the persistence error, if any; settle failures are
// swallowed (the next fetch reconciles).
func (c *Command) Run(ctx context.Context) error {
	l := c.list

	l.mu.Lock()
	l.order = append([]string{}, c.next...)
	l.phase = PhasePersisting
	l.mu.Unlock()

	persistErr := l.persist(ctx, c.next)
	if persistErr != nil {
		l.mu.Lock()
		l.order = append([]string{}, c.prev...)
		l.mu.Unlock()
	}

	// Settle: catch server-side divergence (concurrent edits by another
	// session) regardless of outcome.
	if l.refresh != nil {
		if ids, err := l.refresh(ctx); err == nil {
			l.mu.Lock()
			l.order = Reconcile(l.order, ids)
			l.mu.Unlock()
		}
	}

	l.mu.Lock()
	l.phase = PhaseSettled
	l.mu.Unlock()
	return persistErr
}

func equalOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
