// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sharedstate

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ManuGH/pushedge/internal/maputil"
)

var (
	// ErrOwnerRequired is returned when a publication has no owner name.
	ErrOwnerRequired = errors.New("shared state owner is required")
	// ErrNoPending is returned by Resolve when the owner has no pending publication.
	ErrNoPending = errors.New("no pending shared state")
	// ErrStaleVersion is returned when a publication would go back in time.
	ErrStaleVersion = errors.New("shared state version is older than the latest publication")
)

// Store holds every publication per owner ordered by version.
// It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	owners   map[string][]Snapshot
	onChange []func(owner string)
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{owners: make(map[string][]Snapshot)}
}

// OnChange registers fn to be called after every successful publication.
// Callbacks run outside the store lock.
func (s *Store) OnChange(fn func(owner string)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Set publishes data for owner at version. Publishing at the version of an
// existing entry replaces it.
func (s *Store) Set(owner string, data map[string]any, version uint64) error {
	return s.publish(Snapshot{Owner: owner, Status: StatusSet, Version: version, Data: maputil.Clone(data)})
}

// SetPending announces a publication at version whose data will be supplied
// later through Resolve.
func (s *Store) SetPending(owner string, version uint64) error {
	return s.publish(Snapshot{Owner: owner, Status: StatusPending, Version: version})
}

// Resolve fills in the newest pending publication of owner.
func (s *Store) Resolve(owner string, data map[string]any) error {
	s.mu.Lock()
	list := s.owners[owner]
	idx := -1
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Status == StatusPending {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("resolve %q: %w", owner, ErrNoPending)
	}
	list[idx].Status = StatusSet
	list[idx].Data = maputil.Clone(data)
	callbacks := append([]func(string){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(owner)
	}
	return nil
}

func (s *Store) publish(snap Snapshot) error {
	if snap.Owner == "" {
		return ErrOwnerRequired
	}

	s.mu.Lock()
	list := s.owners[snap.Owner]
	if n := len(list); n > 0 {
		last := list[n-1]
		switch {
		case snap.Version < last.Version:
			s.mu.Unlock()
			return fmt.Errorf("publish %q at %d (latest %d): %w", snap.Owner, snap.Version, last.Version, ErrStaleVersion)
		case snap.Version == last.Version:
			list[n-1] = snap
		default:
			list = append(list, snap)
		}
	} else {
		list = append(list, snap)
	}
	s.owners[snap.Owner] = list
	callbacks := append([]func(string){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(snap.Owner)
	}
	return nil
}

// Get returns the publication of owner visible at version: the newest entry
// whose version is not greater than the requested one. When every entry is
// newer, the earliest entry is returned so that the first publication of an
// owner also covers events admitted before it.
func (s *Store) Get(owner string, version uint64) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.owners[owner]
	if len(list) == 0 {
		return Snapshot{Owner: owner, Status: StatusNone}
	}

	// First index whose version is greater than the requested one.
	i := sort.Search(len(list), func(i int) bool { return list[i].Version > version })
	if i == 0 {
		return copySnapshot(list[0])
	}
	return copySnapshot(list[i-1])
}

// Latest returns the newest publication of owner.
func (s *Store) Latest(owner string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.owners[owner]
	if len(list) == 0 {
		return Snapshot{Owner: owner, Status: StatusNone}
	}
	return copySnapshot(list[len(list)-1])
}

func copySnapshot(s Snapshot) Snapshot {
	if s.Data != nil {
		s.Data = maputil.Clone(s.Data)
	}
	return s
}
