package cache

import (
	"net/http"
	"time"
)

// Entry is one cached collection page, stored in Redis as JSON.
type Entry struct {
	Data       []byte      `json:"data"`
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`

	// Validators sent back on revalidation
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"last_modified"`

	// Expires is when the entry turns stale
	Expires  time.Time `json:"expires"`
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired reports whether the entry is stale.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the remaining freshness, 0 once stale.
func (e *Entry) TTL() time.Duration {
	return max(time.Until(e.Expires), 0)
}

// CanRevalidate reports whether the entry has a validator for a conditional
// request.
func (e *Entry) CanRevalidate() bool {
	return e.ETag != "" || !e.LastModified.IsZero()
}

// Age returns how long ago the entry was stored or last confirmed.
func (e *Entry) Age() time.Duration {
	if e.CachedAt.IsZero() {
		return 0
	}
	return time.Since(e.CachedAt)
}
