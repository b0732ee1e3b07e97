package memory

import (
	"sort"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/pkg/cmap"
)

// Operations keeps every propagation record. Records are never evicted.
type Operations struct {
	records  *cmap.Map[string, *domain.Operation]
	bySource *sourceIndex
}

// NewOperations creates an empty operation table.
func NewOperations() *Operations {
	return &Operations{
		records:  cmap.New[string, *domain.Operation](),
		bySource: newSourceIndex(),
	}
}

// Create stores a new record. It fails with domain.ErrOperationConflict
// when the id is taken.
func (o *Operations) Create(op *domain.Operation) error {
	if !o.records.SetIfAbsent(op.ID, op) {
		return domain.ErrOperationConflict.WithDetails(op.ID)
	}
	o.bySource.add(op.Source, op.ID)
	return nil
}

// Replace swaps in a newer version of an existing record.
func (o *Operations) Replace(op *domain.Operation) error {
	if !o.records.Has(op.ID) {
		return domain.ErrInvalidArgument.WithDetails("unknown operation " + op.ID)
	}
	o.records.Set(op.ID, op)
	return nil
}

// Get returns the latest version of a record.
func (o *Operations) Get(id string) (*domain.Operation, bool) {
	return o.records.Get(id)
}

// List returns all records ordered by start time, then id.
func (o *Operations) List() []*domain.Operation {
	ops := o.records.Values()
	sortOperations(ops)
	return ops
}

// ListBySource returns the records started by source, ordered like List.
func (o *Operations) ListBySource(source string) []*domain.Operation {
	ids := o.bySource.get(source)
	ops := make([]*domain.Operation, 0, len(ids))
	for _, id := range ids {
		if op, ok := o.records.Get(id); ok {
			ops = append(ops, op)
		}
	}
	sortOperations(ops)
	return ops
}

// CountByStatus tallies records per status. Every status is present.
func (o *Operations) CountByStatus() map[domain.Status]int {
	counts := make(map[domain.Status]int, len(domain.AllStatuses()))
	for _, s := range domain.AllStatuses() {
		counts[s] = 0
	}
	o.records.Range(func(_ string, op *domain.Operation) bool {
		counts[op.Status]++
		return true
	})
	return counts
}

// Len returns the number of records.
func (o *Operations) Len() int {
	return o.records.Len()
}

func sortOperations(ops []*domain.Operation) {
	sort.Slice(ops, func(i, j int) bool {
		if !ops[i].StartedAt.Equal(ops[j].StartedAt) {
			return ops[i].StartedAt.Before(ops[j].StartedAt)
		}
		return ops[i].ID < ops[j].ID
	})
}
