package selection

// Set is an unordered set of record ids.
type Set[K comparable] map[K]struct{}

// NewSet returns a set holding ids.
func NewSet[K comparable](ids ...K) Set[K] {
	s := make(Set[K], len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set is empty.
func (s Set[K]) Has(id K) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids in the set.
func (s Set[K]) Len() int {
	return len(s)
}

// Clone returns an independent copy of the set.
func (s Set[K]) Clone() Set[K] {
	out := make(Set[K], len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// IDs returns the ids in unspecified order.
func (s Set[K]) IDs() []K {
	out := make([]K, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Equal reports whether both sets hold exactly the same ids.
func (s Set[K]) Equal(other Set[K]) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}
