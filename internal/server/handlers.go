package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Sternrassler/artic-select/pkg/client"
	"github.com/Sternrassler/artic-select/pkg/pagination"
	"github.com/Sternrassler/artic-select/pkg/selection"
	"github.com/Sternrassler/artic-select/pkg/session"
)

// maxBodyBytes caps request bodies; the largest is a page of ids.
const maxBodyBytes = 64 << 10

// RowView is one displayed record.
type RowView struct {
	ID            int64  `json:"id"`
	Position      int    `json:"position"`
	Selected      bool   `json:"selected"`
	Title         string `json:"title"`
	PlaceOfOrigin string `json:"place_of_origin"`
	ArtistDisplay string `json:"artist_display"`
	Inscriptions  string `json:"inscriptions"`
	DateStart     *int   `json:"date_start"`
	DateEnd       *int   `json:"date_end"`
}

// PageView is the state of a session's visible page.
type PageView struct {
	SessionID  string          `json:"session_id"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Report     string          `json:"report"`
	AllChecked bool            `json:"all_checked"`
	Rows       []RowView       `json:"rows"`
	Selection  session.Summary `json:"selection"`
	Error      string          `json:"error,omitempty"`
}

// SessionView is returned when a session is created.
type SessionView struct {
	ID       string `json:"id"`
	PageSize int    `json:"page_size"`
}

// ToggleView is returned after a row toggle.
type ToggleView struct {
	ID        int64           `json:"id"`
	Selected  bool            `json:"selected"`
	Selection session.Summary `json:"selection"`
}

type errorView struct {
	Error string `json:"error"`
}

type createSessionRequest struct {
	PageSize int `json:"page_size"`
}

type checkedRequest struct {
	Checked []int64 `json:"checked"`
}

type bulkRequest struct {
	Count string `json:"count"`
}

func pageView(sess *session.Session) PageView {
	rows := sess.Rows()
	out := PageView{
		SessionID:  sess.ID(),
		Page:       sess.Current().Number,
		PageSize:   sess.PageSize(),
		Total:      sess.Total(),
		TotalPages: sess.TotalPages(),
		Report:     sess.Report(),
		AllChecked: sess.AllChecked(),
		Rows:       make([]RowView, len(rows)),
		Selection:  sess.Summary(),
	}
	for i, r := range rows {
		out.Rows[i] = RowView{
			ID:            r.Artwork.ID,
			Position:      r.Position,
			Selected:      r.Selected,
			Title:         client.DisplayText(r.Artwork.Title),
			PlaceOfOrigin: client.DisplayText(r.Artwork.PlaceOfOrigin),
			ArtistDisplay: client.DisplayText(r.Artwork.ArtistDisplay),
			Inscriptions:  client.DisplayText(r.Artwork.Inscriptions),
			DateStart:     r.Artwork.DateStart,
			DateEnd:       r.Artwork.DateEnd,
		}
	}
	if err := sess.Err(); err != nil {
		out.Error = err.Error()
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "READY")
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	// an empty body asks for the default page size
	if err := decode(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.PageSize < 0 || body.PageSize > client.MaxPageSize {
		writeError(w, http.StatusUnprocessableEntity,
			fmt.Errorf("page_size must be between 1 and %d", client.MaxPageSize))
		return
	}

	sess := s.createSession(body.PageSize)
	writeJSON(w, http.StatusCreated, SessionView{ID: sess.ID(), PageSize: sess.PageSize()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deleteSession(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	e, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	n, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid page %q", r.PathValue("page")))
		return
	}

	if _, err := s.loadPage(r.Context(), e, n); err != nil {
		if errors.Is(err, pagination.ErrStaleResponse) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	e.mu.Lock()
	view := pageView(e.session)
	e.mu.Unlock()

	status := http.StatusOK
	if view.Error != "" {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, view)
}

func (s *Server) handleSetChecked(w http.ResponseWriter, r *http.Request) {
	e, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var body checkedRequest
	if err := decode(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	e.mu.Lock()
	e.session.SetChecked(body.Checked)
	view := pageView(e.session)
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	e, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	e.mu.Lock()
	summary := e.session.Summary()
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleToggleRow(w http.ResponseWriter, r *http.Request) {
	e, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	rowID, err := strconv.ParseInt(r.PathValue("rowID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid row id %q", r.PathValue("rowID")))
		return
	}

	e.mu.Lock()
	selected, err := e.session.Toggle(rowID)
	summary := e.session.Summary()
	e.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleView{ID: rowID, Selected: selected, Selection: summary})
}

func (s *Server) handleTogglePage(w http.ResponseWriter, r *http.Request) {
	e, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	e.mu.Lock()
	e.session.TogglePage()
	view := pageView(e.session)
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleApplyBulk(w http.ResponseWriter, r *http.Request) {
	e, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var body bulkRequest
	if err := decode(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	e.mu.Lock()
	_, err = e.session.ApplyBulkInput(body.Count)
	summary := e.session.Summary()
	e.mu.Unlock()

	if errors.Is(err, selection.ErrInvalidBulkInput) {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleClearBulk(w http.ResponseWriter, r *http.Request) {
	e, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	e.mu.Lock()
	e.session.ClearBulk()
	summary := e.session.Summary()
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, summary)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorView{Error: err.Error()})
}

// statusRecorder captures the status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts requests by matched route pattern and status.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Msg("HTTP request")
	})
}
