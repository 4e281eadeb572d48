package selection

// Window is the slice of the collection currently on screen: a 1-based page
// number, the page size and the ids of the page's records in display order.
type Window[K comparable] struct {
	Number int
	Size   int
	IDs    []K
}

// Position returns the 1-based absolute position of the i-th row of the page.
func (w Window[K]) Position(i int) int {
	return (w.Number-1)*w.Size + i + 1
}

// Contains reports whether id is on the page.
func (w Window[K]) Contains(id K) bool {
	for _, v := range w.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// View answers selection queries against one snapshot of a State.
type View[K comparable] struct {
	limit      int
	selected   Set[K]
	deselected Set[K]
}

// EffectiveLimit is min(bulk limit, total records).
func (v View[K]) EffectiveLimit() int {
	return v.limit
}

// IsSelected reports whether the record id at absolute position is selected.
func (v View[K]) IsSelected(id K, position int) bool {
	if position <= v.limit {
		return !v.deselected.Has(id)
	}
	return v.selected.Has(id)
}

// Checked returns the ids on page that are currently selected.
func (v View[K]) Checked(page Window[K]) Set[K] {
	out := Set[K]{}
	for i, id := range page.IDs {
		if v.IsSelected(id, page.Position(i)) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Count estimates the number of selected records without touching any page.
// The result is never negative.
func (v View[K]) Count() int {
	return max(0, v.rawCount())
}

func (v View[K]) rawCount() int {
	return v.limit - v.deselected.Len() + v.selected.Len()
}
