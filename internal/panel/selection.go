package panel

import (
	"sync"

	"github.com/google/btree"
)

// nameItem is a btree.Item over entry names, giving Selection a sorted,
// stable-identifier set per §9 ("a panel's selection is a set of stable
// entry identifiers, not references into the listing array").
type nameItem string

func (a nameItem) Less(other btree.Item) bool {
	return a < other.(nameItem)
}

// Selection stores the entry names selected by the user in a panel,
// grounded on the teacher's selection.Set (google/btree-backed, copy
// semantics that release the source lock before acquiring the
// destination's to avoid ABBA deadlocks).
type Selection struct {
	mutex sync.RWMutex
	tree  *btree.BTree
}

// NewSelection returns an empty Selection.
func NewSelection() *Selection {
	s := &Selection{}
	s.Reset()
	return s
}

// Add adds name to the selection; re-adding an existing name is a no-op.
func (s *Selection) Add(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tree.ReplaceOrInsert(nameItem(name))
}

// Remove removes name from the selection.
func (s *Selection) Remove(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tree.Delete(nameItem(name))
}

// Toggle adds name if absent, removes it if present.
func (s *Selection) Toggle(name string) {
	if s.Has(name) {
		s.Remove(name)
	} else {
		s.Add(name)
	}
}

// Reset clears the selection.
func (s *Selection) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tree = btree.New(32)
}

// Has reports whether name is selected.
func (s *Selection) Has(name string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tree.Has(nameItem(name))
}

// Len returns the number of selected names.
func (s *Selection) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tree.Len()
}

// Names returns the selected names in ascending order.
func (s *Selection) Names() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]string, 0, s.tree.Len())
	s.tree.Ascend(func(it btree.Item) bool {
		out = append(out, string(it.(nameItem)))
		return true
	})
	return out
}
