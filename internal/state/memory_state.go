package state

import (
	"sync"
	"time"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

// MemoryState stores refresh outcomes per address safely.
type MemoryState struct {
	mu        sync.RWMutex
	addresses map[string]*Snapshot
	now       func() time.Time
}

// NewMemoryState creates a new tracker.
func NewMemoryState() *MemoryState {
	return &MemoryState{
		addresses: make(map[string]*Snapshot),
		now:       time.Now,
	}
}

// RecordSuccess stores a freshly fetched schedule.
func (s *MemoryState) RecordSuccess(addressID string, schedule *domain.Schedule) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	snap := s.get(addressID)
	snap.Schedule = schedule
	snap.LastSuccess = now
	snap.LastError = nil
	snap.LastUpdated = now
	snap.Available = true
	return *snap
}

// RecordFailure marks the address unavailable but keeps the previous schedule.
func (s *MemoryState) RecordFailure(addressID string, err error) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.get(addressID)
	snap.LastError = err
	snap.LastUpdated = s.now()
	snap.Available = false
	return *snap
}

// Get returns a copy of the snapshot for addressID.
func (s *MemoryState) Get(addressID string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.addresses[addressID]
	if !ok {
		return Snapshot{}, false
	}
	return *snap, true
}

// All returns copies of every tracked snapshot.
func (s *MemoryState) All() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, 0, len(s.addresses))
	for _, snap := range s.addresses {
		out = append(out, *snap)
	}
	return out
}

// get must be called with the write lock held.
func (s *MemoryState) get(addressID string) *Snapshot {
	snap, ok := s.addresses[addressID]
	if !ok {
		snap = &Snapshot{AddressID: addressID}
		s.addresses[addressID] = snap
	}
	return snap
}
