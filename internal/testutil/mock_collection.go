// Package testutil provides testing utilities for the collection client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// APIPrefix mirrors the path prefix of the public API.
const APIPrefix = "/api/v1"

// ArtworksPath is the listing endpoint served by MockCollection.
const ArtworksPath = APIPrefix + "/artworks"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockArtwork is the JSON shape of one generated record.
type MockArtwork struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	PlaceOfOrigin string `json:"place_of_origin"`
	ArtistDisplay string `json:"artist_display"`
	Inscriptions  any    `json:"inscriptions"`
	DateStart     *int   `json:"date_start"`
	DateEnd       *int   `json:"date_end"`
}

// IDForPosition is the id MockCollection gives the record at an absolute position.
func IDForPosition(position int) int64 {
	return int64(1000 + position)
}

// MockCollection is a configurable in-memory collection API for testing.
// Records are generated from their absolute position so any page can be
// served without holding the collection.
type MockCollection struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	total     int
	failPages map[int]int
	delays    map[int]time.Duration
	remaining int

	// Tracking
	RequestCount      int
	ConditionalCount  int
	PageRequests      map[int]int
	LastRequestHeader http.Header
}

// NewMockCollection creates a mock API serving total records.
func NewMockCollection(total int) *MockCollection {
	mock := &MockCollection{
		handlers:     make(map[string]func(w http.ResponseWriter, r *http.Request)),
		total:        total,
		failPages:    make(map[int]int),
		delays:       make(map[int]time.Duration),
		remaining:    60,
		PageRequests: make(map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		if r.URL.Path == ArtworksPath {
			mock.artworksHandler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server root URL.
func (m *MockCollection) URL() string {
	return m.server.URL
}

// BaseURL returns the URL to configure as client base URL.
func (m *MockCollection) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockCollection) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCollection) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.PageRequests = make(map[int]int)
	m.LastRequestHeader = nil
}

// FailPage makes every request for page answer with status.
func (m *MockCollection) FailPage(page, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPages[page] = status
}

// DelayPage holds responses for page for d.
func (m *MockCollection) DelayPage(page int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[page] = d
}

// SetRemaining sets the X-RateLimit-Remaining value reported to clients.
func (m *MockCollection) SetRemaining(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining = n
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCollection) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockCollection) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCollection) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockCollection) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetPageRequests returns how often page was requested.
func (m *MockCollection) GetPageRequests(page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PageRequests[page]
}

func (m *MockCollection) artworksHandler(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 12
	}

	m.mu.Lock()
	m.PageRequests[page]++
	status, failing := m.failPages[page]
	delay := m.delays[page]
	remaining := m.remaining
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", "60")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if failing {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"status":%d,"error":"mock failure"}`, status)
		return
	}

	etag := fmt.Sprintf(`"page-%d-%d-%d"`, page, limit, m.total)
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("Cache-Control", "max-age=300")
		w.WriteHeader(http.StatusNotModified)
		return
	}

	records := make([]MockArtwork, 0, limit)
	for pos := (page-1)*limit + 1; pos <= page*limit && pos <= m.total; pos++ {
		records = append(records, GenerateArtwork(pos))
	}

	body := map[string]any{
		"pagination": map[string]int{
			"total":        m.total,
			"limit":        limit,
			"offset":       (page - 1) * limit,
			"total_pages":  (m.total + limit - 1) / limit,
			"current_page": page,
		},
		"data": records,
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "max-age=300")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

// GenerateArtwork builds the record at an absolute position. Every third record
// has no inscriptions and every fifth has no dates.
func GenerateArtwork(position int) MockArtwork {
	a := MockArtwork{
		ID:            IDForPosition(position),
		Title:         fmt.Sprintf("Artwork %d", position),
		PlaceOfOrigin: "Chicago",
		ArtistDisplay: fmt.Sprintf("Artist %d", position%7),
	}
	if position%3 != 0 {
		a.Inscriptions = fmt.Sprintf("Signed %d", position)
	}
	if position%5 != 0 {
		start, end := 1800+position, 1801+position
		a.DateStart, a.DateEnd = &start, &end
	}
	return a
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     "30",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}
