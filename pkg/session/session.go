// Package session holds the state of one browsing session: the page on screen,
// the page being loaded and the cross-page selection.
//
// A Session is not safe for concurrent use. The terminal browser drives it from
// its event loop and the HTTP server guards each session with a mutex.
package session

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/artic-select/pkg/client"
	"github.com/Sternrassler/artic-select/pkg/pagination"
	"github.com/Sternrassler/artic-select/pkg/selection"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	pageLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artsel_page_loads_total",
		Help: "Page deliveries by outcome (ok, error, stale)",
	}, []string{"outcome"})

	togglesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artsel_selection_toggles_total",
		Help: "Total number of row toggles",
	})

	bulkAppliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artsel_bulk_applies_total",
		Help: "Bulk selection commands by outcome (ok, rejected, cleared)",
	}, []string{"outcome"})
)

// DefaultPageSize matches the page size of the collection browser.
const DefaultPageSize = 12

// ErrRowNotOnPage is returned when a row outside the visible page is toggled.
var ErrRowNotOnPage = errors.New("row is not on the visible page")

// Row is one displayed record with its derived selection status.
type Row struct {
	Artwork  client.Artwork
	Position int
	Selected bool
}

// Summary describes the selection without listing it.
type Summary struct {
	Count          int `json:"count"`
	BulkLimit      int `json:"bulk_limit"`
	EffectiveLimit int `json:"effective_limit"`
	Selected       int `json:"selected_overrides"`
	Deselected     int `json:"deselected_overrides"`
}

// Session is the state owned by one view.
type Session struct {
	id       string
	pageSize int

	requested int
	current   pagination.Page[client.Artwork]
	total     int
	loading   bool
	err       error

	seq    *pagination.Sequencer
	sel    *selection.State[int64]
	logger zerolog.Logger
}

// New creates a session showing nothing yet. pageSize below 1 falls back to
// DefaultPageSize.
func New(id string, pageSize int, logger zerolog.Logger) *Session {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Session{
		id:        id,
		pageSize:  pageSize,
		requested: 1,
		current:   pagination.Page[client.Artwork]{Number: 1, Size: pageSize},
		seq:       pagination.NewSequencer(),
		sel:       selection.New[int64](),
		logger:    logger.With().Str("session_id", id).Logger(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// PageSize returns the number of records per page.
func (s *Session) PageSize() int { return s.pageSize }

// Page returns the most recently requested page number.
func (s *Session) Page() int { return s.requested }

// Current returns the page on screen.
func (s *Session) Current() pagination.Page[client.Artwork] { return s.current }

// Total returns the last known size of the collection.
func (s *Session) Total() int { return s.total }

// TotalPages returns the last known number of pages.
func (s *Session) TotalPages() int { return pagination.TotalPages(s.total, s.pageSize) }

// Loading reports whether a page request is outstanding.
func (s *Session) Loading() bool { return s.loading }

// Err returns the error of the last page load, nil after a success.
func (s *Session) Err() error { return s.err }

// RequestPage starts loading page n and returns the request to fetch. n is
// clamped to the known page range. Any earlier outstanding request becomes stale.
func (s *Session) RequestPage(n int) pagination.Request {
	if last := s.TotalPages(); last > 0 && n > last {
		n = last
	}
	if n < 1 {
		n = 1
	}

	req := s.seq.Next(n, s.pageSize)
	s.requested = n
	s.loading = true

	s.logger.Debug().
		Int("page", n).
		Int("page_size", s.pageSize).
		Uint64("seq", req.Seq).
		Msg("Page requested")

	return req
}

// NextPage requests the page after the requested one.
func (s *Session) NextPage() pagination.Request { return s.RequestPage(s.requested + 1) }

// PrevPage requests the page before the requested one.
func (s *Session) PrevPage() pagination.Request { return s.RequestPage(s.requested - 1) }

// Deliver applies the outcome of req. A response to a superseded request is
// dropped with pagination.ErrStaleResponse. A failed fetch shows an empty page
// and records fetchErr; the selection is never touched.
func (s *Session) Deliver(req pagination.Request, page pagination.Page[client.Artwork], fetchErr error) error {
	if err := s.seq.Accept(req); err != nil {
		pageLoadsTotal.WithLabelValues("stale").Inc()
		s.logger.Warn().
			Int("page", req.Number).
			Uint64("seq", req.Seq).
			Uint64("latest", s.seq.Latest()).
			Msg("Discarding stale page response")
		return err
	}

	s.loading = false

	if fetchErr != nil {
		pageLoadsTotal.WithLabelValues("error").Inc()
		s.current = pagination.Page[client.Artwork]{Number: req.Number, Size: req.Size, Total: s.total}
		s.err = fetchErr
		s.logger.Error().
			Err(fetchErr).
			Int("page", req.Number).
			Msg("Page load failed")
		return nil
	}

	pageLoadsTotal.WithLabelValues("ok").Inc()
	page.Number = req.Number
	page.Size = req.Size
	s.current = page
	s.total = page.Total
	s.err = nil

	s.logger.Debug().
		Int("page", req.Number).
		Int("records", len(page.Records)).
		Int("total", page.Total).
		Msg("Page delivered")

	return nil
}

// window describes the visible page to the selection engine.
func (s *Session) window() selection.Window[int64] {
	ids := make([]int64, len(s.current.Records))
	for i, a := range s.current.Records {
		ids[i] = a.ID
	}
	return selection.Window[int64]{Number: s.current.Number, Size: s.current.Size, IDs: ids}
}

// Rows returns the visible records with their position and selection status.
func (s *Session) Rows() []Row {
	view := s.sel.View(s.total)
	rows := make([]Row, len(s.current.Records))
	for i, a := range s.current.Records {
		pos := s.current.Position(i)
		rows[i] = Row{Artwork: a, Position: pos, Selected: view.IsSelected(a.ID, pos)}
	}
	return rows
}

// IsSelected reports the status of any record whose position is known.
func (s *Session) IsSelected(id int64, position int) bool {
	return s.sel.View(s.total).IsSelected(id, position)
}

// Toggle flips the row with id on the visible page.
func (s *Session) Toggle(id int64) (bool, error) {
	selected, ok := s.sel.Toggle(s.window(), id, s.total)
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrRowNotOnPage, id)
	}
	togglesTotal.Inc()

	s.logger.Debug().
		Int64("id", id).
		Bool("selected", selected).
		Int("selected_count", s.SelectedCount()).
		Msg("Row toggled")

	return selected, nil
}

// ToggleAt flips the i-th visible row.
func (s *Session) ToggleAt(i int) (bool, error) {
	if i < 0 || i >= len(s.current.Records) {
		return false, fmt.Errorf("%w: index %d", ErrRowNotOnPage, i)
	}
	return s.Toggle(s.current.Records[i].ID)
}

// SetChecked replaces the checked rows of the visible page with ids. Ids that
// are not on the page are ignored.
func (s *Session) SetChecked(ids []int64) {
	s.sel.Reconcile(s.window(), selection.NewSet(ids...), s.total)
	togglesTotal.Inc()
}

// TogglePage checks every visible row, or unchecks them all when they are
// already all checked. It returns the new state of the page.
func (s *Session) TogglePage() bool {
	w := s.window()
	on := s.sel.View(s.total).Checked(w).Len() < len(w.IDs)
	s.sel.SetPage(w, on, s.total)
	togglesTotal.Inc()

	s.logger.Debug().
		Int("page", w.Number).
		Bool("selected", on).
		Int("selected_count", s.SelectedCount()).
		Msg("Page toggled")

	return on
}

// AllChecked reports whether every visible row is selected. An empty page is
// never all checked.
func (s *Session) AllChecked() bool {
	w := s.window()
	return len(w.IDs) > 0 && s.sel.View(s.total).Checked(w).Len() == len(w.IDs)
}

// ApplyBulkInput applies the user's "select first N" text. Invalid text
// returns selection.ErrInvalidBulkInput and changes nothing.
func (s *Session) ApplyBulkInput(raw string) (int, error) {
	n, err := s.sel.ApplyBulkInput(raw)
	if err != nil {
		bulkAppliesTotal.WithLabelValues("rejected").Inc()
		s.logger.Warn().Str("input", raw).Msg("Rejected bulk selection input")
		return 0, err
	}
	bulkAppliesTotal.WithLabelValues("ok").Inc()

	s.logger.Info().
		Int("bulk_limit", n).
		Int("effective_limit", s.sel.EffectiveLimit(s.total)).
		Msg("Bulk selection applied")

	return n, nil
}

// ClearBulk removes the bulk range and every override.
func (s *Session) ClearBulk() {
	// zero is always accepted
	_ = s.sel.ApplyBulkLimit(0)
	bulkAppliesTotal.WithLabelValues("cleared").Inc()
	s.logger.Info().Msg("Bulk selection cleared")
}

// SelectedCount returns the number of selected records, never negative.
func (s *Session) SelectedCount() int {
	return s.sel.View(s.total).Count()
}

// Summary returns the selection figures.
func (s *Session) Summary() Summary {
	return Summary{
		Count:          s.SelectedCount(),
		BulkLimit:      s.sel.BulkLimit(),
		EffectiveLimit: s.sel.EffectiveLimit(s.total),
		Selected:       s.sel.Selected().Len(),
		Deselected:     s.sel.Deselected().Len(),
	}
}

// Report describes the visible range, e.g. "Showing 13 to 24 of 97 entries".
func (s *Session) Report() string {
	first, last := 0, 0
	if n := len(s.current.Records); n > 0 {
		first = s.current.Position(0)
		last = s.current.Position(n - 1)
	}
	return fmt.Sprintf("Showing %d to %d of %d entries", first, last, s.total)
}
