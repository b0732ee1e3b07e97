package memory

import (
	"strconv"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/pkg/cmap"
)

// History stores superseded snapshots by subsystem and version for
// rollback. The coordinator only reads it; whoever constructs the
// coordinator decides whether anything is ever recorded.
type History struct {
	entries *cmap.Map[string, *domain.Snapshot]
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{entries: cmap.New[string, *domain.Snapshot]()}
}

func historyKey(id string, version uint64) string {
	return id + "@" + strconv.FormatUint(version, 10)
}

// Record keeps snap addressable by its subsystem and version.
func (h *History) Record(snap *domain.Snapshot) {
	h.entries.Set(historyKey(snap.SubsystemID(), snap.Version()), snap)
}

// Find returns the snapshot of id at version.
func (h *History) Find(id string, version uint64) (*domain.Snapshot, bool) {
	return h.entries.Get(historyKey(id, version))
}

// Len returns the number of recorded snapshots.
func (h *History) Len() int {
	return h.entries.Len()
}
