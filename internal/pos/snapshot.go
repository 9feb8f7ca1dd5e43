package pos

import "time"

// Snapshot is an immutable copy of a session plus its derived totals.
// It is what subscribers receive and what gets persisted between restarts.
type Snapshot struct {
	Version    uint64      `json:"version"`
	Lines      []CartLine  `json:"lines"`
	Customer   *Customer   `json:"customer,omitempty"`
	Pet        *Pet        `json:"pet,omitempty"`
	Payments   []Payment   `json:"payments"`
	Context    Context     `json:"context"`
	TaxRate    float64     `json:"taxRate"`
	Pending    *Submission `json:"pending,omitempty"`
	Submitting bool        `json:"submitting"`
	Totals     Totals      `json:"totals"`
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		Lines:    s.Lines(),
		Payments: s.Payments(),
		Context:  s.context,
		TaxRate:  s.taxRate,
		Totals:   s.Totals(),
	}
	if s.customer != nil {
		c := *s.customer
		snap.Customer = &c
	}
	if s.pet != nil {
		p := *s.pet
		snap.Pet = &p
	}
	if s.pending != nil {
		p := *s.pending
		snap.Pending = &p
	}
	return snap
}

// RestoreSession rebuilds a session from a snapshot. Totals are recomputed,
// not trusted.
func RestoreSession(snap Snapshot) *Session {
	s := &Session{
		lines:    append([]CartLine(nil), snap.Lines...),
		payments: append([]Payment(nil), snap.Payments...),
		context:  snap.Context,
		taxRate:  snap.TaxRate,
		now:      time.Now,
	}
	if s.context.Kind == "" {
		s.context.Kind = ContextCreate
	}
	if snap.Customer != nil {
		c := *snap.Customer
		s.customer = &c
	}
	if snap.Pet != nil {
		p := *snap.Pet
		s.pet = &p
	}
	if snap.Pending != nil {
		p := *snap.Pending
		s.pending = &p
	}
	return s
}
