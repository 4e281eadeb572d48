package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		wantErr bool
	}{
		{
			name: "valid response with all headers",
			resp: &http.Response{
				StatusCode: 200,
				Header: http.Header{
					"Expires":       []string{time.Now().Add(1 * time.Hour).Format(http.TimeFormat)},
					"Last-Modified": []string{time.Now().Add(-1 * time.Hour).Format(http.TimeFormat)},
					"Etag":          []string{`"abc123"`},
					"Content-Type":  []string{"application/json"},
				},
				Body: io.NopCloser(bytes.NewReader([]byte(`{"data": []}`))),
			},
		},
		{
			name: "response without freshness headers",
			resp: &http.Response{
				StatusCode: 200,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(bytes.NewReader([]byte(`{"data": []}`))),
			},
		},
		{
			name:    "nil response",
			resp:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ResponseToEntry(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResponseToEntry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			body, _ := io.ReadAll(tt.resp.Body)
			if len(body) == 0 {
				t.Error("response body was not restored")
			}
			if !bytes.Equal(entry.Data, body) {
				t.Errorf("Data = %s, want %s", entry.Data, body)
			}
			if entry.StatusCode != tt.resp.StatusCode {
				t.Errorf("StatusCode = %d, want %d", entry.StatusCode, tt.resp.StatusCode)
			}
			if entry.ETag != tt.resp.Header.Get("ETag") {
				t.Errorf("ETag = %q, want %q", entry.ETag, tt.resp.Header.Get("ETag"))
			}
			if entry.TTL() <= 0 {
				t.Error("entry should not be expired")
			}
		})
	}
}

func TestParseExpires(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "no headers uses default",
			headers: http.Header{},
			wantMin: DefaultTTL - time.Second,
			wantMax: DefaultTTL,
		},
		{
			name:    "max-age wins over expires",
			headers: http.Header{"Cache-Control": {"public, max-age=60"}, "Expires": {time.Now().Add(time.Hour).Format(http.TimeFormat)}},
			wantMin: 59 * time.Second,
			wantMax: 60 * time.Second,
		},
		{
			name:    "no-store expires immediately",
			headers: http.Header{"Cache-Control": {"no-store"}},
			wantMin: -time.Second,
			wantMax: 0,
		},
		{
			name:    "expires in the past",
			headers: http.Header{"Expires": {time.Now().Add(-time.Hour).Format(http.TimeFormat)}},
			wantMin: -time.Second,
			wantMax: 0,
		},
		{
			name:    "unparseable expires uses default",
			headers: http.Header{"Expires": {"tomorrow"}},
			wantMin: DefaultTTL - time.Second,
			wantMax: DefaultTTL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := time.Until(parseExpires(tt.headers))
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("parseExpires() in %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &Entry{
		Data:       []byte(`{"data": [1]}`),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": {"application/json"}},
	}

	resp := EntryToResponse(entry)
	body, _ := io.ReadAll(resp.Body)

	if string(body) != `{"data": [1]}` {
		t.Errorf("body = %s", body)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Cache") != "HIT" {
		t.Error("X-Cache header should be HIT")
	}
	if entry.Headers.Get("X-Cache") != "" {
		t.Error("EntryToResponse must not mutate the entry headers")
	}
}

func TestConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name        string
		entry       *Entry
		wantCond    bool
		wantETag    string
		wantModSinc string
	}{
		{name: "nil entry", entry: nil},
		{name: "etag preferred", entry: &Entry{ETag: `"v1"`, LastModified: lastMod}, wantCond: true, wantETag: `"v1"`},
		{name: "last modified only", entry: &Entry{LastModified: lastMod}, wantCond: true, wantModSinc: lastMod.Format(http.TimeFormat)},
		{name: "nothing to validate", entry: &Entry{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldMakeConditionalRequest(tt.entry); got != tt.wantCond {
				t.Errorf("ShouldMakeConditionalRequest() = %v, want %v", got, tt.wantCond)
			}

			req, _ := http.NewRequest(http.MethodGet, "http://example.test/api/v1/artworks", nil)
			AddConditionalHeaders(req, tt.entry)
			if got := req.Header.Get("If-None-Match"); got != tt.wantETag {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantETag)
			}
			if got := req.Header.Get("If-Modified-Since"); got != tt.wantModSinc {
				t.Errorf("If-Modified-Since = %q, want %q", got, tt.wantModSinc)
			}
		})
	}
}
