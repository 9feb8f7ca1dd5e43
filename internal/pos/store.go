package pos

import (
	"sync"

	"github.com/google/uuid"
)

// Listener receives a snapshot after every change to a Store.
type Listener func(Snapshot)

// Store is the shared, observable container for one session. Every reader
// and writer goes through it instead of holding the Session directly.
type Store struct {
	mu        sync.Mutex
	session   *Session
	version   uint64
	inFlight  bool
	listeners map[int]Listener
	nextID    int
}

func NewStore(s *Session) *Store {
	return &Store{
		session:   s,
		listeners: make(map[int]Listener),
	}
}

// RestoreStore wraps a restored session and keeps the persisted version.
func RestoreStore(snap Snapshot) *Store {
	st := NewStore(RestoreSession(snap))
	st.version = snap.Version
	return st
}

func (st *Store) Snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshotLocked()
}

func (st *Store) Totals() Totals {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.session.Totals()
}

// Subscribe registers l and returns a function that removes it.
func (st *Store) Subscribe(l Listener) (cancel func()) {
	st.mu.Lock()
	id := st.nextID
	st.nextID++
	st.listeners[id] = l
	st.mu.Unlock()

	return func() {
		st.mu.Lock()
		delete(st.listeners, id)
		st.mu.Unlock()
	}
}

// Update applies fn to the session. Nothing may change while a submission
// is running.
func (st *Store) Update(fn func(*Session) error) (Snapshot, error) {
	st.mu.Lock()
	if st.inFlight {
		st.mu.Unlock()
		return Snapshot{}, ErrSubmitInProgress
	}
	if err := fn(st.session); err != nil {
		st.mu.Unlock()
		return Snapshot{}, err
	}
	snap, listeners := st.changedLocked()
	st.mu.Unlock()

	notify(listeners, snap)
	return snap, nil
}

// Clear cancels the sale. When a submission had been attempted the abandoned
// submission is returned so the caller can report it; its OrderID is empty
// if the order step never answered.
func (st *Store) Clear() (abandoned *Submission, err error) {
	st.mu.Lock()
	if st.inFlight {
		st.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if p := st.session.pending; p != nil {
		cp := *p
		abandoned = &cp
	}
	st.session.Clear()
	snap, listeners := st.changedLocked()
	st.mu.Unlock()

	notify(listeners, snap)
	return abandoned, nil
}

// BeginSubmit validates the session and marks a submission in flight.
// The returned snapshot carries the submission token and any progress from
// an earlier failed attempt.
func (st *Store) BeginSubmit() (Snapshot, error) {
	st.mu.Lock()
	if st.inFlight {
		st.mu.Unlock()
		return Snapshot{}, ErrSubmitInProgress
	}
	if err := st.session.Validate(); err != nil {
		st.mu.Unlock()
		return Snapshot{}, err
	}
	if st.session.pending == nil {
		st.session.pending = &Submission{Token: uuid.NewString()}
	}
	st.inFlight = true
	snap, listeners := st.changedLocked()
	st.mu.Unlock()

	notify(listeners, snap)
	return snap, nil
}

// RecordProgress stores how far the running submission got.
func (st *Store) RecordProgress(sub Submission) {
	st.mu.Lock()
	p := sub
	st.session.pending = &p
	snap, listeners := st.changedLocked()
	st.mu.Unlock()

	notify(listeners, snap)
}

// FinishSubmit ends the running submission. A successful one resets the
// session for the next sale; a failed one leaves everything in place.
func (st *Store) FinishSubmit(succeeded bool) Snapshot {
	st.mu.Lock()
	st.inFlight = false
	if succeeded {
		st.session.StartNewOrder()
	}
	snap, listeners := st.changedLocked()
	st.mu.Unlock()

	notify(listeners, snap)
	return snap
}

func (st *Store) snapshotLocked() Snapshot {
	snap := st.session.snapshot()
	snap.Version = st.version
	snap.Submitting = st.inFlight
	return snap
}

func (st *Store) changedLocked() (Snapshot, []Listener) {
	st.version++
	snap := st.snapshotLocked()
	listeners := make([]Listener, 0, len(st.listeners))
	for _, l := range st.listeners {
		listeners = append(listeners, l)
	}
	return snap, listeners
}

func notify(listeners []Listener, snap Snapshot) {
	for _, l := range listeners {
		l(snap)
	}
}
