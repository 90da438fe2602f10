// Package store holds the persistent state of the stowage module: the
// container fleet, the item inventory and the simulation clock. State lives
// in memory behind one coarse mutex — inter-container state is disjoint, so
// that is enough — and is snapshotted to a JSON file after every mutation.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/orbitlogix/stowage/internal/model"
)

// ErrDuplicateItem is returned when adding an item whose id already exists.
var ErrDuplicateItem = errors.New("duplicate item id")

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("not found")

// snapshot is the on-disk form. Slices keep insertion order: container
// preference and first-match-by-name both depend on it.
type snapshot struct {
	CurrentDate model.Date        `json:"currentDate"`
	Containers  []model.Container `json:"containers"`
	Items       []model.Item      `json:"items"`
}

// Store is the mutex-guarded state. The zero value is not usable; call Open.
type Store struct {
	mu    sync.RWMutex
	path  string
	state snapshot
}

// Open loads the snapshot at path, or starts fresh with today's date if the
// file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.state.CurrentDate = model.DateOf(time.Now())
			return s, s.save()
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("corrupt snapshot %s: %w", path, err)
	}
	if s.state.CurrentDate.IsZero() {
		s.state.CurrentDate = model.DateOf(time.Now())
	}
	return s, nil
}

// OpenMemory returns a store that never touches disk. Used by tests and by
// callers that manage persistence themselves.
func OpenMemory() *Store {
	return &Store{state: snapshot{CurrentDate: model.DateOf(time.Now())}}
}

// save writes the snapshot. Callers must hold the write lock.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// CurrentDate returns the simulation clock.
func (s *Store) CurrentDate() model.Date {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentDate
}

// SetCurrentDate advances (or rewinds) the simulation clock.
func (s *Store) SetCurrentDate(d model.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentDate = d
	return s.save()
}

// UpsertContainer adds a container or replaces the definition of an existing
// id, keeping its slot in the ordering.
func (s *Store) UpsertContainer(c model.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Containers {
		if s.state.Containers[i].ContainerID == c.ContainerID {
			s.state.Containers[i] = c
			return s.save()
		}
	}
	s.state.Containers = append(s.state.Containers, c)
	return s.save()
}

// Container returns the container with the given id.
func (s *Store) Container(id string) (model.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.state.Containers {
		if c.ContainerID == id {
			return c, nil
		}
	}
	return model.Container{}, fmt.Errorf("container %q: %w", id, ErrNotFound)
}

// Containers returns all containers in insertion order.
func (s *Store) Containers() []model.Container {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Container, len(s.state.Containers))
	copy(out, s.state.Containers)
	return out
}

// AddItem inserts a new item. The id must be unused.
func (s *Store) AddItem(it model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Items {
		if s.state.Items[i].ItemID == it.ItemID {
			return fmt.Errorf("item %q: %w", it.ItemID, ErrDuplicateItem)
		}
	}
	s.state.Items = append(s.state.Items, it)
	return s.save()
}

// Item returns a copy of the item with the given id.
func (s *Store) Item(id string) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.state.Items {
		if it.ItemID == id {
			return it, nil
		}
	}
	return model.Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
}

// ItemByName returns the first item whose name contains the query,
// case-insensitively, in insertion order.
func (s *Store) ItemByName(name string) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(name)
	for _, it := range s.state.Items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			return it, nil
		}
	}
	return model.Item{}, fmt.Errorf("item named %q: %w", name, ErrNotFound)
}

// Items returns copies of all items in insertion order.
func (s *Store) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Item, len(s.state.Items))
	copy(out, s.state.Items)
	return out
}

// ItemsInContainer returns the items currently placed in the container,
// waste included (waste still occupies space until undocking).
func (s *Store) ItemsInContainer(containerID string) []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Item
	for _, it := range s.state.Items {
		if it.ContainerID == containerID && it.Position != nil {
			out = append(out, it)
		}
	}
	return out
}

// UpdateItem replaces the stored item with the same id.
func (s *Store) UpdateItem(it model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Items {
		if s.state.Items[i].ItemID == it.ItemID {
			// Waste is monotone: once set it never clears in the store.
			if s.state.Items[i].IsWaste {
				it.IsWaste = true
				if it.WasteReason == "" {
					it.WasteReason = s.state.Items[i].WasteReason
				}
			}
			s.state.Items[i] = it
			return s.save()
		}
	}
	return fmt.Errorf("item %q: %w", it.ItemID, ErrNotFound)
}

// Mutate runs fn over pointers to every stored item under the write lock and
// persists afterwards. Used by the lifecycle tracker, which flags items in
// place.
func (s *Store) Mutate(fn func(items []*model.Item)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ptrs := make([]*model.Item, len(s.state.Items))
	for i := range s.state.Items {
		ptrs[i] = &s.state.Items[i]
	}
	fn(ptrs)
	return s.save()
}

// RemoveWaste deletes every waste-flagged item and returns how many were
// removed. This is the only way items leave the store.
func (s *Store) RemoveWaste() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.state.Items[:0]
	removed := 0
	for _, it := range s.state.Items {
		if it.IsWaste {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	s.state.Items = kept
	return removed, s.save()
}
