package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/artic-select/internal/testutil"
	"github.com/Sternrassler/artic-select/pkg/client"
	"github.com/Sternrassler/artic-select/pkg/pagination"
	"github.com/Sternrassler/artic-select/pkg/session"
	"github.com/rs/zerolog"
)

type testEnv struct {
	t      *testing.T
	server *Server
	http   *httptest.Server
	mock   *testutil.MockCollection
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	mock := testutil.NewMockCollection(97)
	t.Cleanup(mock.Close)

	cfg := client.DefaultConfig(nil, "TestApp/1.0.0")
	cfg.BaseURL = mock.BaseURL()
	cfg.MaxRetries = 0
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}

	return newEnvWithFetcher(t, c, mock, opts...)
}

func newEnvWithFetcher(t *testing.T, fetcher pagination.PageFetcher[client.Artwork], mock *testutil.MockCollection, opts ...Option) *testEnv {
	t.Helper()

	srv := New(fetcher, DefaultConfig(), zerolog.Nop(), opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	return &testEnv{t: t, server: srv, http: ts, mock: mock}
}

func (e *testEnv) do(method, path string, body any, out any) int {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.http.URL+path, reader)
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			e.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) createSession() string {
	e.t.Helper()
	var created SessionView
	if status := e.do(http.MethodPost, "/api/sessions", nil, &created); status != http.StatusCreated {
		e.t.Fatalf("create session status = %d, want 201", status)
	}
	return created.ID
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.http.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Errorf("GET /health = %d %q, want 200 OK", resp.StatusCode, body)
	}
}

func TestServer_Ready(t *testing.T) {
	env := newTestEnv(t, WithReadiness(func(context.Context) error {
		return errors.New("redis down")
	}))

	var out errorView
	if status := env.do(http.MethodGet, "/ready", nil, &out); status != http.StatusServiceUnavailable {
		t.Errorf("GET /ready = %d, want 503", status)
	}
	if out.Error != "redis down" {
		t.Errorf("error = %q, want %q", out.Error, "redis down")
	}
}

func TestServer_Metrics(t *testing.T) {
	env := newTestEnv(t)
	env.createSession()

	resp, err := http.Get(env.http.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	for _, name := range []string{"artsel_sessions_active", "artsel_http_requests_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("/metrics missing %s", name)
		}
	}
}

func TestServer_CrossPageSelectionFlow(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession()
	base := "/api/sessions/" + id

	var page PageView
	if status := env.do(http.MethodGet, base+"/pages/1", nil, &page); status != http.StatusOK {
		t.Fatalf("GET page 1 = %d", status)
	}
	if page.Total != 97 || len(page.Rows) != 12 || page.TotalPages != 9 {
		t.Fatalf("page 1 = total %d rows %d pages %d", page.Total, len(page.Rows), page.TotalPages)
	}

	var summary session.Summary
	if status := env.do(http.MethodPost, base+"/bulk", bulkRequest{Count: "20"}, &summary); status != http.StatusOK {
		t.Fatalf("POST bulk = %d", status)
	}
	if summary.Count != 20 || summary.BulkLimit != 20 {
		t.Errorf("summary = %+v, want count 20", summary)
	}

	var toggled ToggleView
	path := fmt.Sprintf("%s/rows/%d/toggle", base, testutil.IDForPosition(5))
	if status := env.do(http.MethodPost, path, nil, &toggled); status != http.StatusOK {
		t.Fatalf("toggle pos 5 = %d", status)
	}
	if toggled.Selected || toggled.Selection.Count != 19 {
		t.Errorf("toggle pos 5 = %+v, want deselected count 19", toggled)
	}

	env.do(http.MethodGet, base+"/pages/2", nil, &page)
	for _, row := range page.Rows {
		if want := row.Position <= 20; row.Selected != want {
			t.Errorf("page 2 position %d selected = %v, want %v", row.Position, row.Selected, want)
		}
	}
	if page.Report != "Showing 13 to 24 of 97 entries" {
		t.Errorf("report = %q", page.Report)
	}

	path = fmt.Sprintf("%s/rows/%d/toggle", base, testutil.IDForPosition(22))
	env.do(http.MethodPost, path, nil, &toggled)
	if !toggled.Selected || toggled.Selection.Count != 20 {
		t.Errorf("toggle pos 22 = %+v, want selected count 20", toggled)
	}

	env.do(http.MethodGet, base+"/selection", nil, &summary)
	if summary.Selected != 1 || summary.Deselected != 1 {
		t.Errorf("selection = %+v, want one override each", summary)
	}

	// blank inscriptions are shown as N/A
	if page.Rows[2].Inscriptions != client.NotAvailable {
		t.Errorf("position 15 inscriptions = %q, want N/A", page.Rows[2].Inscriptions)
	}
}

func TestServer_BulkInvalid(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/sessions/" + env.createSession()

	env.do(http.MethodPost, base+"/bulk", bulkRequest{Count: "10"}, nil)

	for _, raw := range []string{"", "ten", "0", "-4"} {
		var out errorView
		if status := env.do(http.MethodPost, base+"/bulk", bulkRequest{Count: raw}, &out); status != http.StatusUnprocessableEntity {
			t.Errorf("POST bulk %q = %d, want 422", raw, status)
		}
	}

	var summary session.Summary
	env.do(http.MethodGet, base+"/selection", nil, &summary)
	if summary.BulkLimit != 10 {
		t.Errorf("BulkLimit = %d, want 10 (unchanged)", summary.BulkLimit)
	}

	if status := env.do(http.MethodDelete, base+"/bulk", nil, &summary); status != http.StatusOK {
		t.Fatalf("DELETE bulk = %d", status)
	}
	if summary.BulkLimit != 0 || summary.Count != 0 {
		t.Errorf("summary after clear = %+v", summary)
	}
}

func TestServer_SetCheckedAndTogglePage(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/sessions/" + env.createSession()

	var page PageView
	env.do(http.MethodGet, base+"/pages/3", nil, &page)

	checked := checkedRequest{Checked: []int64{page.Rows[0].ID, page.Rows[5].ID}}
	env.do(http.MethodPost, base+"/selection", checked, &page)
	if page.Selection.Count != 2 || !page.Rows[0].Selected || !page.Rows[5].Selected {
		t.Errorf("after set checked: count %d", page.Selection.Count)
	}

	env.do(http.MethodPost, base+"/page/toggle", nil, &page)
	if !page.AllChecked || page.Selection.Count != 12 {
		t.Errorf("after page toggle: all=%v count=%d, want true 12", page.AllChecked, page.Selection.Count)
	}

	env.do(http.MethodPost, base+"/page/toggle", nil, &page)
	if page.AllChecked || page.Selection.Count != 0 {
		t.Errorf("after second page toggle: all=%v count=%d, want false 0", page.AllChecked, page.Selection.Count)
	}
}

func TestServer_ToggleRowNotOnPage(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/sessions/" + env.createSession()
	env.do(http.MethodGet, base+"/pages/1", nil, nil)

	path := fmt.Sprintf("%s/rows/%d/toggle", base, testutil.IDForPosition(50))
	if status := env.do(http.MethodPost, path, nil, nil); status != http.StatusNotFound {
		t.Errorf("toggle off-page row = %d, want 404", status)
	}
	if status := env.do(http.MethodPost, base+"/rows/abc/toggle", nil, nil); status != http.StatusBadRequest {
		t.Errorf("toggle bad id = %d, want 400", status)
	}
}

func TestServer_FetchFailure(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/sessions/" + env.createSession()

	env.do(http.MethodGet, base+"/pages/1", nil, nil)
	env.do(http.MethodPost, base+"/bulk", bulkRequest{Count: "30"}, nil)

	env.mock.FailPage(2, http.StatusInternalServerError)

	var page PageView
	if status := env.do(http.MethodGet, base+"/pages/2", nil, &page); status != http.StatusBadGateway {
		t.Fatalf("GET failing page = %d, want 502", status)
	}
	if len(page.Rows) != 0 || page.Error == "" {
		t.Errorf("failing page = %d rows, error %q", len(page.Rows), page.Error)
	}
	if page.Selection.Count != 30 {
		t.Errorf("selection count = %d, want 30 (untouched)", page.Selection.Count)
	}
}

func TestServer_StalePageRequest(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fetcher := pagination.FetcherFunc[client.Artwork](func(ctx context.Context, page, size int) (pagination.Page[client.Artwork], error) {
		if page == 2 {
			close(started)
			<-release
		}
		return pagination.Page[client.Artwork]{
			Total:   97,
			Records: []client.Artwork{{ID: int64(page)}},
		}, nil
	})

	env := newEnvWithFetcher(t, fetcher, nil)
	base := "/api/sessions/" + env.createSession()

	var wg sync.WaitGroup
	var slowStatus int
	wg.Add(1)
	go func() {
		defer wg.Done()
		slowStatus = env.do(http.MethodGet, base+"/pages/2", nil, nil)
	}()

	<-started
	var page PageView
	if status := env.do(http.MethodGet, base+"/pages/3", nil, &page); status != http.StatusOK {
		t.Fatalf("GET page 3 = %d", status)
	}
	close(release)
	wg.Wait()

	if slowStatus != http.StatusConflict {
		t.Errorf("superseded request status = %d, want 409", slowStatus)
	}
	if page.Page != 3 {
		t.Errorf("page = %d, want 3", page.Page)
	}
}

func TestServer_UnknownSession(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/sessions/nope/pages/1"},
		{http.MethodGet, "/api/sessions/nope/selection"},
		{http.MethodPost, "/api/sessions/nope/rows/1/toggle"},
		{http.MethodDelete, "/api/sessions/nope/bulk"},
		{http.MethodDelete, "/api/sessions/nope"},
	}
	for _, p := range paths {
		if status := env.do(p.method, p.path, nil, nil); status != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", p.method, p.path, status)
		}
	}
}

func TestServer_CreateSessionPageSize(t *testing.T) {
	env := newTestEnv(t)

	var created SessionView
	if status := env.do(http.MethodPost, "/api/sessions", createSessionRequest{PageSize: 25}, &created); status != http.StatusCreated {
		t.Fatalf("create = %d", status)
	}
	if created.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", created.PageSize)
	}

	if status := env.do(http.MethodPost, "/api/sessions", createSessionRequest{PageSize: 500}, nil); status != http.StatusUnprocessableEntity {
		t.Errorf("create with page_size 500 = %d, want 422", status)
	}
	if status := env.do(http.MethodGet, "/api/sessions/"+created.ID+"/pages/0", nil, nil); status != http.StatusBadRequest {
		t.Errorf("GET page 0 = %d, want 400", status)
	}
}

func TestServer_DeleteSession(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession()

	if status := env.do(http.MethodDelete, "/api/sessions/"+id, nil, nil); status != http.StatusNoContent {
		t.Fatalf("DELETE = %d, want 204", status)
	}
	if status := env.do(http.MethodGet, "/api/sessions/"+id+"/selection", nil, nil); status != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", status)
	}
}

func TestServer_Prefetch(t *testing.T) {
	mock := testutil.NewMockCollection(97)
	t.Cleanup(mock.Close)

	cfg := client.DefaultConfig(nil, "TestApp/1.0.0")
	cfg.BaseURL = mock.BaseURL()
	c, err := client.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	pf := pagination.NewPrefetcher[client.Artwork](c, pagination.Config{MaxConcurrency: 2, Timeout: 5 * time.Second})
	env := newEnvWithFetcher(t, c, mock, WithPrefetcher(pf))
	base := "/api/sessions/" + env.createSession()

	env.do(http.MethodGet, base+"/pages/4", nil, nil)
	env.server.wg.Wait()

	if got := mock.GetPageRequests(5); got != 1 {
		t.Errorf("page 5 requests = %d, want 1 (prefetched)", got)
	}
	if got := mock.GetPageRequests(6); got != 0 {
		t.Errorf("page 6 requests = %d, want 0", got)
	}
}
