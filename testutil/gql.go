package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// GQLRequest is the decoded form of one batched persisted-query request.
type GQLRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Extensions    struct {
		PersistedQuery struct {
			Version    int    `json:"version"`
			SHA256Hash string `json:"sha256Hash"`
		} `json:"persistedQuery"`
	} `json:"extensions"`
}

// GQLHandler answers one operation. A nil data with status 200 encodes as
// {"data": null}.
type GQLHandler func(w http.ResponseWriter, req GQLRequest)

// MockGQLServer fakes the Twitch GQL endpoint, dispatching on operationName.
type MockGQLServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]GQLHandler
	requests []GQLRequest
	headers  []http.Header
}

// NewMockGQLServer starts a fake endpoint closed at test cleanup.
func NewMockGQLServer(t *testing.T) *MockGQLServer {
	t.Helper()
	m := &MockGQLServer{handlers: make(map[string]GQLHandler)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var batch []GQLRequest
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil || len(batch) != 1 {
			http.Error(w, "bad batch", http.StatusBadRequest)
			return
		}
		req := batch[0]
		m.mu.Lock()
		m.requests = append(m.requests, req)
		m.headers = append(m.headers, r.Header.Clone())
		h, ok := m.handlers[req.OperationName]
		m.mu.Unlock()
		if !ok {
			http.Error(w, "unknown operation "+req.OperationName, http.StatusNotFound)
			return
		}
		h(w, req)
	}))
	t.Cleanup(m.Close)
	return m
}

// Handle registers h for operation op.
func (m *MockGQLServer) Handle(op string, h GQLHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[op] = h
}

// HandleData registers a handler that always answers with data.
func (m *MockGQLServer) HandleData(op string, data any) {
	m.Handle(op, func(w http.ResponseWriter, _ GQLRequest) { WriteGQLData(w, data) })
}

// Requests returns a copy of the requests received so far.
func (m *MockGQLServer) Requests() []GQLRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GQLRequest(nil), m.requests...)
}

// Headers returns the HTTP headers of each received request.
func (m *MockGQLServer) Headers() []http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]http.Header(nil), m.headers...)
}

// Calls counts requests for op.
func (m *MockGQLServer) Calls(op string) int {
	n := 0
	for _, r := range m.Requests() {
		if r.OperationName == op {
			n++
		}
	}
	return n
}

// WriteGQLData writes a one-element batch response around data.
func WriteGQLData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode([]map[string]any{{"data": data}}) //nolint:errcheck // test mock response
}

// MockVideo registers ChannelVideoCore and VideoMetadata answers for one video.
func (m *MockGQLServer) MockVideo(videoID, login string, createdAt time.Time, lengthSeconds int) {
	m.Handle("ChannelVideoCore", func(w http.ResponseWriter, req GQLRequest) {
		if fmt.Sprint(req.Variables["videoID"]) != videoID {
			WriteGQLData(w, map[string]any{"video": nil})
			return
		}
		WriteGQLData(w, map[string]any{"video": map[string]any{"owner": map[string]any{"login": login}}})
	})
	m.Handle("VideoMetadata", func(w http.ResponseWriter, req GQLRequest) {
		if fmt.Sprint(req.Variables["videoID"]) != videoID || fmt.Sprint(req.Variables["channelLogin"]) != login {
			WriteGQLData(w, map[string]any{"video": nil})
			return
		}
		WriteGQLData(w, map[string]any{"video": map[string]any{
			"createdAt":     createdAt.UTC().Format(time.RFC3339),
			"lengthSeconds": lengthSeconds,
		}})
	})
}

// Comment describes one feed entry for a mock comment page. A zero-value
// Login yields a null commenter.
type Comment struct {
	ID          string
	Cursor      string
	Login       string
	DisplayName string
	UserID      string
	Text        string
	CreatedAt   time.Time
	// ContentOffset defaults to CreatedAt relative to the video anchor when zero.
	ContentOffset float64
}

// Edge renders c in wire form.
func (c Comment) Edge() map[string]any {
	var commenter any
	if c.Login != "" {
		commenter = map[string]any{"id": c.UserID, "login": c.Login, "displayName": c.DisplayName}
	}
	return map[string]any{
		"cursor": c.Cursor,
		"node": map[string]any{
			"id":                   c.ID,
			"commenter":            commenter,
			"message":              map[string]any{"fragments": []map[string]any{{"text": c.Text}}},
			"createdAt":            c.CreatedAt.UTC().Format(time.RFC3339Nano),
			"contentOffsetSeconds": c.ContentOffset,
		},
	}
}

// CommentPage renders a comment page data payload.
func CommentPage(hasNext bool, comments ...Comment) map[string]any {
	edges := make([]map[string]any, 0, len(comments))
	for _, c := range comments {
		edges = append(edges, c.Edge())
	}
	return map[string]any{"video": map[string]any{"comments": map[string]any{
		"edges":    edges,
		"pageInfo": map[string]any{"hasNextPage": hasNext},
	}}}
}

// MockCommentFeed serves pages in order: the offset request gets pages[0],
// and a cursor request for any cursor of pages[i] gets pages[i+1].
// Unknown cursors answer 400.
func (m *MockGQLServer) MockCommentFeed(pages ...[]Comment) {
	byCursor := map[string]int{}
	for i, p := range pages {
		if i+1 >= len(pages) {
			break
		}
		for _, c := range p {
			byCursor[c.Cursor] = i + 1
		}
	}
	m.Handle("VideoCommentsByOffsetOrCursor", func(w http.ResponseWriter, req GQLRequest) {
		idx := 0
		if c, ok := req.Variables["cursor"]; ok {
			i, found := byCursor[fmt.Sprint(c)]
			if !found {
				http.Error(w, "unknown cursor", http.StatusBadRequest)
				return
			}
			idx = i
		}
		WriteGQLData(w, CommentPage(idx+1 < len(pages), pages[idx]...))
	})
}
