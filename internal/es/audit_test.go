package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/complaint_desk/internal/events"
)

type fakeES struct {
	mu      sync.Mutex
	indexed [][]byte
	query   map[string]any
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/_doc"):
		f.indexed = append(f.indexed, body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	case strings.HasSuffix(r.URL.Path, "/_search"):
		_ = json.Unmarshal(body, &f.query)
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_source":{"type":"user_logged_in","username":"alice","user_id":7,"at":"2026-01-02T03:04:05Z"}}]}}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func newTestIndex(t *testing.T) (*AuditIndex, *fakeES) {
	t.Helper()

	fake := &fakeES{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return &AuditIndex{Client: client, Index: "auth-audit"}, fake
}

func TestAuditIndex_Publish(t *testing.T) {
	t.Parallel()

	idx, fake := newTestIndex(t)
	err := idx.Publish(context.Background(), events.Event{Type: events.TokenRevoked, UserID: 7, At: time.Now().UTC()})
	require.NoError(t, err)

	require.Len(t, fake.indexed, 1)
	var got events.Event
	require.NoError(t, json.Unmarshal(fake.indexed[0], &got))
	assert.Equal(t, events.TokenRevoked, got.Type)
	assert.EqualValues(t, 7, got.UserID)
}

func TestAuditIndex_Search(t *testing.T) {
	t.Parallel()

	idx, fake := newTestIndex(t)
	total, hits, err := idx.Search(context.Background(), Query{Text: "alice", Type: "user_logged_in", From: 0, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, hits, 1)
	assert.Equal(t, "alice", hits[0].Username)
	assert.Equal(t, events.UserLoggedIn, hits[0].Type)

	q, ok := fake.query["query"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, q, "bool")
}

func TestSearchBody_MatchAllWithoutFilters(t *testing.T) {
	t.Parallel()

	body := searchBody(Query{From: 20, Size: 10})
	q := body["query"].(map[string]any)
	assert.Contains(t, q, "match_all")
	assert.Equal(t, 20, body["from"])
}
