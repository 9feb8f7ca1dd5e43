// Package sessions keeps one pos.Store per terminal and mirrors every change
// into a SnapshotStore so a restarted process picks up where it left off.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/pos"
)

var ErrInvalidTerminal = errors.New("invalid terminal id")

var terminalIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

const saveTimeout = 2 * time.Second

type terminal struct {
	store *pos.Store

	saveMu    sync.Mutex
	lastSaved uint64
}

type Registry struct {
	mu        sync.Mutex
	terminals map[string]*terminal
	persist   SnapshotStore
	taxRate   float64
	logger    *zap.Logger
}

// NewRegistry builds a registry. persist may be nil, in which case sessions
// live only in memory.
func NewRegistry(persist SnapshotStore, taxRate float64, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		terminals: make(map[string]*terminal),
		persist:   persist,
		taxRate:   taxRate,
		logger:    logger,
	}
}

func ValidTerminalID(id string) bool {
	return terminalIDPattern.MatchString(id)
}

// Get returns the terminal's store, restoring it from the snapshot store or
// starting an empty session on first access.
func (r *Registry) Get(ctx context.Context, terminalID string) (*pos.Store, error) {
	if !ValidTerminalID(terminalID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTerminal, terminalID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.terminals[terminalID]; ok {
		return t.store, nil
	}

	st := r.restore(ctx, terminalID)
	t := &terminal{store: st, lastSaved: st.Snapshot().Version}
	if r.persist != nil {
		st.Subscribe(func(snap pos.Snapshot) { r.save(terminalID, t, snap) })
	}
	r.terminals[terminalID] = t
	return st, nil
}

// Len reports how many terminal sessions are open.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.terminals)
}

func (r *Registry) restore(ctx context.Context, terminalID string) *pos.Store {
	if r.persist != nil {
		snap, err := r.persist.Load(ctx, terminalID)
		switch {
		case err == nil:
			r.logger.Info("session restored",
				zap.String("terminal_id", terminalID),
				zap.Uint64("version", snap.Version),
				zap.Int("lines", len(snap.Lines)),
			)
			return pos.RestoreStore(snap)
		case !errors.Is(err, ErrNoSnapshot):
			r.logger.Warn("session restore failed, starting empty",
				zap.String("terminal_id", terminalID), zap.Error(err))
		}
	}
	return pos.NewStore(pos.NewSession(r.taxRate))
}

// save writes snap unless a newer version has already been written. A
// session that is back to empty has nothing to restore, so its key is
// deleted instead.
// Listeners run outside the store lock, so snapshots can arrive out of order.
func (r *Registry) save(terminalID string, t *terminal, snap pos.Snapshot) {
	t.saveMu.Lock()
	defer t.saveMu.Unlock()

	if snap.Version <= t.lastSaved {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	var err error
	if blank(snap) {
		err = r.persist.Delete(ctx, terminalID)
	} else {
		err = r.persist.Save(ctx, terminalID, snap)
	}
	if err != nil {
		r.logger.Warn("session snapshot write failed",
			zap.String("terminal_id", terminalID),
			zap.Uint64("version", snap.Version),
			zap.Error(err),
		)
		return
	}
	t.lastSaved = snap.Version
}

func blank(snap pos.Snapshot) bool {
	return len(snap.Lines) == 0 && len(snap.Payments) == 0 &&
		snap.Customer == nil && snap.Pet == nil && snap.Pending == nil &&
		snap.Context.Kind != pos.ContextEdit
}
