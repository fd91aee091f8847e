package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/gitlanes/internal/adapters/watcher"
	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/graph"
	"github.com/xvierd/gitlanes/internal/view"
)

type fakeView struct {
	mu        sync.Mutex
	records   []domain.CommitRecord
	graphErr  error
	status    *domain.StatusReport
	statusErr error
	info      *domain.RepositoryInfo
	infoErr   error
	delay     time.Duration

	describing    int
	maxDescribing int
	describes     int
}

func (f *fakeView) Graph(ctx context.Context) domain.GraphView {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.graphErr != nil {
		return domain.GraphUnavailable{Reason: f.graphErr.Error()}
	}
	layout := graph.NewEngine(domain.DefaultGeometry()).Layout(f.records)
	return domain.NewGraphReady(layout, f.records)
}

func (f *fakeView) Status(ctx context.Context) (*domain.StatusReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.statusErr
}

func (f *fakeView) Show(ctx context.Context, hash string) (string, error) {
	return "commit " + hash, nil
}

func (f *fakeView) Repository(ctx context.Context) (*domain.RepositoryInfo, error) {
	f.mu.Lock()
	f.describing++
	f.describes++
	f.maxDescribing = max(f.maxDescribing, f.describing)
	delay := f.delay
	f.mu.Unlock()

	time.Sleep(delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.describing--
	return f.info, f.infoErr
}

func (f *fakeView) setRecords(records []domain.CommitRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
}

func newFakeView() *fakeView {
	return &fakeView{
		records: []domain.CommitRecord{
			{Hash: "c", Parents: []string{"a"}, Timestamp: 300, Subject: "feature"},
			{Hash: "b", Parents: []string{"a"}, Timestamp: 200, Subject: "fix"},
			{Hash: "a", Timestamp: 100, Subject: "init"},
		},
		status: &domain.StatusReport{
			Unstaged: []domain.FileEntry{{Code: " M", Path: "main.go"}},
		},
		info: &domain.RepositoryInfo{Root: "/src/app", Name: "app", Branch: "main"},
	}
}

func getJSON(t *testing.T, url string, wantCode int, v interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, wantCode, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestServer_Graph(t *testing.T) {
	ts := httptest.NewServer(New(newFakeView(), WithPalette([]string{"red", "blue"})).Handler())
	defer ts.Close()

	var g view.Graph
	getJSON(t, ts.URL+"/api/graph", http.StatusOK, &g)
	assert.Equal(t, view.GraphStateReady, g.State)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, "c", g.Nodes[0].Hash)
	assert.Equal(t, "blue", g.Nodes[1].Color)
	assert.Len(t, g.Edges, 2)
}

func TestServer_GraphUnavailable(t *testing.T) {
	fv := newFakeView()
	fv.graphErr = errors.New("git executable not found")
	ts := httptest.NewServer(New(fv).Handler())
	defer ts.Close()

	var g view.Graph
	getJSON(t, ts.URL+"/api/graph", http.StatusOK, &g)
	assert.Equal(t, view.GraphStateUnavailable, g.State)
	assert.Equal(t, "git executable not found", g.Reason)

	var body errorBody
	getJSON(t, ts.URL+"/api/select?x=20&y=25", http.StatusConflict, &body)
	assert.Equal(t, "git executable not found", body.Error)
}

func TestServer_Status(t *testing.T) {
	ts := httptest.NewServer(New(newFakeView()).Handler())
	defer ts.Close()

	var s view.Status
	getJSON(t, ts.URL+"/api/status", http.StatusOK, &s)
	assert.False(t, s.Clean)
	assert.Equal(t, []view.File{{Code: " M", Path: "main.go"}}, s.Unstaged)
}

func TestServer_StatusError(t *testing.T) {
	fv := newFakeView()
	fv.statusErr = errors.New("git status: fatal: bad index")
	ts := httptest.NewServer(New(fv).Handler())
	defer ts.Close()

	var body errorBody
	getJSON(t, ts.URL+"/api/status", http.StatusBadGateway, &body)
	assert.Contains(t, body.Error, "bad index")
}

func TestServer_Repository(t *testing.T) {
	ts := httptest.NewServer(New(newFakeView()).Handler())
	defer ts.Close()

	var r view.Repository
	getJSON(t, ts.URL+"/api/repository", http.StatusOK, &r)
	assert.Equal(t, "app", r.Name)
	assert.Equal(t, "main", r.Branch)
}

func TestServer_RefreshesRunOneAtATime(t *testing.T) {
	fv := newFakeView()
	fv.delay = 20 * time.Millisecond
	srv := New(fv)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, srv.Refresh(context.Background()))
		}()
		go func() {
			defer wg.Done()
			resp, err := http.Get(ts.URL + "/api/repository")
			if assert.NoError(t, err) {
				resp.Body.Close()
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	fv.mu.Lock()
	defer fv.mu.Unlock()
	assert.Equal(t, 1, fv.maxDescribing)
}

func TestServer_RequestsRetryFailedInitialLoad(t *testing.T) {
	fv := newFakeView()
	fv.infoErr = errors.New("not a git repository")
	srv := New(fv)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	require.Error(t, srv.Refresh(context.Background()))

	var r view.Repository
	getJSON(t, ts.URL+"/api/repository", http.StatusOK, &r)
	assert.Empty(t, r.Name)

	fv.mu.Lock()
	fv.infoErr = nil
	fv.mu.Unlock()

	getJSON(t, ts.URL+"/api/repository", http.StatusOK, &r)
	assert.Equal(t, "app", r.Name)

	fv.mu.Lock()
	describes := fv.describes
	fv.mu.Unlock()
	getJSON(t, ts.URL+"/api/repository", http.StatusOK, &r)
	fv.mu.Lock()
	defer fv.mu.Unlock()
	assert.Equal(t, describes, fv.describes, "a loaded cache should not refresh again")
}

func TestServer_Select(t *testing.T) {
	ts := httptest.NewServer(New(newFakeView()).Handler())
	defer ts.Close()

	tests := []struct {
		name  string
		query string
		found bool
		hash  string
	}{
		{"first row", "x=20&y=25", true, "c"},
		{"second lane", "x=45&y=55", true, "b"},
		{"within tolerance", "x=27&y=85", true, "a"},
		{"miss", "x=100&y=100", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sel view.Selection
			getJSON(t, ts.URL+"/api/select?"+tt.query, http.StatusOK, &sel)
			assert.Equal(t, tt.found, sel.Found)
			if tt.found {
				require.NotNil(t, sel.Node)
				assert.Equal(t, tt.hash, sel.Node.Hash)
			} else {
				assert.Nil(t, sel.Node)
			}
		})
	}

	var body errorBody
	getJSON(t, ts.URL+"/api/select?x=a&y=1", http.StatusBadRequest, &body)
	assert.NotEmpty(t, body.Error)
}

func readMessage(t *testing.T, conn *websocket.Conn) UpdateMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var raw struct {
		Type MessageType     `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&raw))
	return UpdateMessage{Type: raw.Type, Data: raw.Data}
}

func TestServer_WebSocketPushesChanges(t *testing.T) {
	fv := newFakeView()
	s := New(fv)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan watcher.Change)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln, changes) }()
	defer func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("server did not stop")
		}
	}()

	url := "ws://" + ln.Addr().String() + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var types []MessageType
	for i := 0; i < 3; i++ {
		types = append(types, readMessage(t, conn).Type)
	}
	assert.Equal(t, []MessageType{MessageTypeRepository, MessageTypeGraph, MessageTypeStatus}, types)

	// Give the handler time to register the client before the change
	require.Eventually(t, func() bool {
		s.clientsMu.RLock()
		defer s.clientsMu.RUnlock()
		return len(s.clients) == 1
	}, 5*time.Second, 10*time.Millisecond)

	fv.setRecords([]domain.CommitRecord{{Hash: "d", Timestamp: 400}})
	changes <- watcher.Change{Paths: []string{"/src/app/.git/refs/heads/main"}}

	for {
		msg := readMessage(t, conn)
		if msg.Type != MessageTypeGraph {
			continue
		}
		var g view.Graph
		require.NoError(t, json.Unmarshal(msg.Data.(json.RawMessage), &g))
		// Broadcasts queued by the initial refresh may still be in flight
		if len(g.Nodes) != 1 {
			continue
		}
		assert.Equal(t, "d", g.Nodes[0].Hash)
		break
	}
}

func TestServer_RunBadAddress(t *testing.T) {
	err := New(newFakeView(), WithAddr("bad address")).Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to listen"))
}
