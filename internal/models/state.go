// File: internal/models/state.go
package models

// PersistedState is the sole durable aggregate: the subscriber set with
// per-subscriber filter settings, plus the signature cursor. It is reloaded
// at startup and rewritten as a whole after every mutating operation.
//
// Keeping subscribers and their settings in a single map makes the
// lifecycle invariant structural: removing a subscriber removes its
// settings in the same operation.
type PersistedState struct {
	Cursor      string                    `json:"cursor"`
	Subscribers map[int64]*FilterSettings `json:"subscribers"`
}

// NewPersistedState returns an empty state with no cursor and no subscribers.
func NewPersistedState() *PersistedState {
	return &PersistedState{
		Subscribers: make(map[int64]*FilterSettings),
	}
}

// Clone returns a deep copy of the state.
func (s *PersistedState) Clone() *PersistedState {
	c := &PersistedState{
		Cursor:      s.Cursor,
		Subscribers: make(map[int64]*FilterSettings, len(s.Subscribers)),
	}
	for id, settings := range s.Subscribers {
		c.Subscribers[id] = settings.Clone()
	}
	return c
}
