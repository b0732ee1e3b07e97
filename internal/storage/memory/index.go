package memory

import (
	"sort"
	"sync"

	"github.com/yndnr/loresync/pkg/cmap"
)

// idSet is a concurrent-safe set of operation ids.
type idSet struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

func newIDSet() *idSet {
	return &idSet{items: make(map[string]struct{})}
}

func (s *idSet) add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = struct{}{}
}

func (s *idSet) list() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.items))
	for id := range s.items {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// sourceIndex maps a source subsystem to the operations it started.
type sourceIndex struct {
	sets *cmap.Map[string, *idSet]
	mu   sync.Mutex
}

func newSourceIndex() *sourceIndex {
	return &sourceIndex{sets: cmap.New[string, *idSet]()}
}

func (x *sourceIndex) add(source, opID string) {
	set, ok := x.sets.Get(source)
	if !ok {
		x.mu.Lock()
		if set, ok = x.sets.Get(source); !ok {
			set = newIDSet()
			x.sets.Set(source, set)
		}
		x.mu.Unlock()
	}
	set.add(opID)
}

func (x *sourceIndex) get(source string) []string {
	set, ok := x.sets.Get(source)
	if !ok {
		return nil
	}
	return set.list()
}
