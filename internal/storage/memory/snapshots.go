package memory

import (
	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/pkg/cmap"
)

// Snapshots holds the current snapshot of each subsystem.
type Snapshots struct {
	slots *cmap.Map[string, *domain.Snapshot]
}

// NewSnapshots creates an empty snapshot table.
func NewSnapshots() *Snapshots {
	return &Snapshots{slots: cmap.New[string, *domain.Snapshot]()}
}

// Get returns the current snapshot of id.
func (s *Snapshots) Get(id string) (*domain.Snapshot, bool) {
	return s.slots.Get(id)
}

// Put installs snap as the current snapshot of its subsystem.
func (s *Snapshots) Put(snap *domain.Snapshot) {
	s.slots.Set(snap.SubsystemID(), snap)
}

// Version returns the current version of id.
func (s *Snapshots) Version(id string) (uint64, bool) {
	snap, ok := s.slots.Get(id)
	if !ok {
		return 0, false
	}
	return snap.Version(), true
}

// IDs returns every subsystem with a slot, sorted.
func (s *Snapshots) IDs() []string {
	return s.slots.Keys()
}

// Len returns the number of slots.
func (s *Snapshots) Len() int {
	return s.slots.Len()
}
