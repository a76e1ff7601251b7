package redirect

import "sync/atomic"

// Store holds the live Settings for lock-free reads.  Reload paths build a
// complete Settings first and then Swap; readers see either the old or the
// new value, never a mix.
type Store struct {
	p atomic.Pointer[Settings]
}

// NewStore returns a Store seeded with s.
func NewStore(s *Settings) *Store {
	st := &Store{}
	st.p.Store(s)
	return st
}

func (st *Store) Load() *Settings { return st.p.Load() }

// Swap installs s and returns the previous Settings.
func (st *Store) Swap(s *Settings) *Settings { return st.p.Swap(s) }
