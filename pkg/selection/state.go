package selection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidBulkInput is returned when a bulk selection count is not a positive
// whole number. The state is left untouched.
var ErrInvalidBulkInput = errors.New("invalid bulk selection count")

// State is the cross-page selection of one view session.
//
// The zero value is not usable; create one with New.
type State[K comparable] struct {
	bulkLimit  int
	selected   Set[K]
	deselected Set[K]
}

// New returns an empty selection: no bulk range, no overrides.
func New[K comparable]() *State[K] {
	return &State[K]{
		selected:   Set[K]{},
		deselected: Set[K]{},
	}
}

// BulkLimit returns the count last applied by ApplyBulkLimit, before clamping.
func (s *State[K]) BulkLimit() int {
	return s.bulkLimit
}

// EffectiveLimit clamps the bulk limit to the size of the collection.
func (s *State[K]) EffectiveLimit(total int) int {
	if total < 0 {
		total = 0
	}
	return min(s.bulkLimit, total)
}

// Selected returns a copy of the ids checked outside the bulk range.
func (s *State[K]) Selected() Set[K] {
	return s.selected.Clone()
}

// Deselected returns a copy of the ids unchecked inside the bulk range.
func (s *State[K]) Deselected() Set[K] {
	return s.deselected.Clone()
}

// View returns a read-only snapshot for a collection of total records. Later
// mutations of s replace its sets and never show through an existing View.
func (s *State[K]) View(total int) View[K] {
	return View[K]{
		limit:      s.EffectiveLimit(total),
		selected:   s.selected,
		deselected: s.deselected,
	}
}

// ParseBulkInput validates raw user input for the bulk command.
func ParseBulkInput(raw string) (int, error) {
	text := strings.TrimSpace(raw)
	n, err := strconv.Atoi(text)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q is not a positive whole number", ErrInvalidBulkInput, raw)
	}
	return n, nil
}

// ApplyBulkInput parses raw and applies it as the new bulk limit. On error the
// state is unchanged.
func (s *State[K]) ApplyBulkInput(raw string) (int, error) {
	n, err := ParseBulkInput(raw)
	if err != nil {
		return 0, err
	}
	if err := s.ApplyBulkLimit(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ApplyBulkLimit declares that the first n records are selected by default and
// drops every override. Applying the same n twice still drops the overrides.
// Zero removes the bulk range.
func (s *State[K]) ApplyBulkLimit(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d is negative", ErrInvalidBulkInput, n)
	}
	s.bulkLimit = n
	s.selected = Set[K]{}
	s.deselected = Set[K]{}
	return nil
}

// Reconcile records the checked state of every row on the visible page. Rows
// inside the bulk range diverge into Deselected, rows outside into Selected, and
// the opposite set is cleared for each row. Ids not on the page are untouched.
func (s *State[K]) Reconcile(page Window[K], checked Set[K], total int) {
	limit := s.EffectiveLimit(total)
	nextSelected := s.selected.Clone()
	nextDeselected := s.deselected.Clone()

	for i, id := range page.IDs {
		checkedNow := checked.Has(id)

		if page.Position(i) <= limit {
			if checkedNow {
				delete(nextDeselected, id)
			} else {
				nextDeselected[id] = struct{}{}
			}
			delete(nextSelected, id)
			continue
		}

		if checkedNow {
			nextSelected[id] = struct{}{}
		} else {
			delete(nextSelected, id)
		}
		delete(nextDeselected, id)
	}

	s.selected = nextSelected
	s.deselected = nextDeselected
}

// Toggle flips one row on the visible page and reports its new state. ok is
// false when id is not on the page.
func (s *State[K]) Toggle(page Window[K], id K, total int) (selected bool, ok bool) {
	if !page.Contains(id) {
		return false, false
	}
	checked := s.View(total).Checked(page)
	if checked.Has(id) {
		delete(checked, id)
	} else {
		checked[id] = struct{}{}
	}
	s.Reconcile(page, checked, total)
	return checked.Has(id), true
}

// SetPage checks or unchecks every row on the visible page.
func (s *State[K]) SetPage(page Window[K], on bool, total int) {
	checked := Set[K]{}
	if on {
		checked = NewSet(page.IDs...)
	}
	s.Reconcile(page, checked, total)
}
