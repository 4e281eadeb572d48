// Package selection computes which rows of a remotely paginated collection are
// selected, including rows on pages that were never fetched.
//
// The state never enumerates the collection. It stores a bulk limit N ("the first
// N records by absolute position are selected") plus two small override sets that
// record the user's exceptions to that default:
//
//   - Deselected holds ids inside the bulk range that the user unchecked.
//   - Selected holds ids outside the bulk range that the user checked.
//
// Whether a row is selected is therefore a pure function of its id, its absolute
// position and the total collection size:
//
//	state := selection.New[int64]()
//	if err := state.ApplyBulkInput("20"); err != nil {
//		// selection.ErrInvalidBulkInput, state unchanged
//	}
//	view := state.View(total)
//	view.IsSelected(id, position)
//	view.Count()
//
// Toggles are reconciled against the visible page only:
//
//	window := selection.Window[int64]{Number: 2, Size: 12, IDs: idsOnPage}
//	state.Reconcile(window, checkedIDs, total)
//
// Memory is bounded by the number of user-made exceptions, not by the size of the
// collection.
package selection
