package session

import (
	"github.com/p-arndt/driverpool/internal/pool"
	"github.com/p-arndt/driverpool/internal/store"
)

// Ledger records pool lifecycle events in the store.
type Ledger struct {
	store LedgerStore
}

var _ pool.Recorder = (*Ledger)(nil)

func NewLedger(st LedgerStore) *Ledger {
	return &Ledger{store: st}
}

func (l *Ledger) RecordCreated(e pool.Entry) error {
	rec := &store.Driver{
		ID:           e.ID,
		Fingerprint:  e.Fingerprint.String(),
		Browser:      e.Capabilities.BrowserName(),
		Capabilities: e.Fingerprint.Canonical(),
		Status:       store.StatusLive,
		CreatedAt:    e.CreatedAt,
	}
	if c, ok := e.Driver.(containerBacked); ok {
		rec.ContainerID = c.ContainerID()
	}
	if ep, ok := e.Driver.(endpointer); ok {
		rec.Endpoint = ep.Endpoint()
	}
	return l.store.CreateDriver(rec)
}

func (l *Ledger) RecordRemoved(e pool.Entry, reason pool.RemoveReason) error {
	status := store.StatusDismissed
	if reason == pool.ReasonDead {
		status = store.StatusDead
	}
	return l.store.MarkEnded(e.ID, status)
}
