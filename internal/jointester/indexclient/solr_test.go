package indexclient

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/model"
)

const okResponse = `{"responseHeader":{"status":0,"QTime":3}}`

type recordedRequest struct {
	method string
	path   string
	query  map[string]string
	body   []byte
}

type fakeSolr struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response string
}

func (f *fakeSolr) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	query := map[string]string{}
	for k := range r.URL.Query() {
		query[k] = r.URL.Query().Get(k)
	}
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, query: query, body: body})
	status, response := f.status, f.response
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	if response == "" {
		response = okResponse
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(response))
}

func newTestSolr(t *testing.T) (*Solr, *fakeSolr) {
	t.Helper()
	fake := &fakeSolr{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	solr, err := NewSolr(configuration.SolrConfig{
		URL:            server.URL + "/solr/",
		Collection:     "joins",
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return solr, fake
}

func (f *fakeSolr) updates() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var updates []recordedRequest
	for _, r := range f.requests {
		if strings.TrimSuffix(r.path, "/") == "/solr/joins/update" {
			updates = append(updates, r)
		}
	}
	return updates
}

// addedDocuments decodes an update body sent either as a bare document array or as an add command.
func addedDocuments(t *testing.T, body []byte) []map[string]any {
	t.Helper()
	var docs []map[string]any
	if err := json.Unmarshal(body, &docs); err == nil {
		return docs
	}
	var command struct {
		Add []map[string]any `json:"add"`
	}
	require.NoError(t, json.Unmarshal(body, &command))
	return command.Add
}

func isCommit(r recordedRequest) bool {
	return r.query["commit"] == "true" || strings.Contains(string(r.body), `"commit"`)
}

func TestSolr_Connect(t *testing.T) {
	solr, fake := newTestSolr(t)
	require.NoError(t, solr.Connect(context.Background()))
	require.Len(t, fake.requests, 1)
	assert.Equal(t, "/solr/joins/admin/ping", fake.requests[0].path)
	assert.Equal(t, http.MethodGet, fake.requests[0].method)
}

func TestSolr_ConnectFailure(t *testing.T) {
	solr, fake := newTestSolr(t)
	fake.status = http.StatusNotFound
	fake.response = "no such core"

	err := solr.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solr returned 404: no such core")
}

func TestSolr_Send(t *testing.T) {
	solr, fake := newTestSolr(t)

	require.NoError(t, solr.Send(context.Background(), testGroup("b_0", 2), 10*time.Minute))

	updates := fake.updates()
	require.Len(t, updates, 1)
	req := updates[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "600000", req.query["commitWithin"])

	docs := addedDocuments(t, req.body)
	require.Len(t, docs, 3)
	assert.Equal(t, "b_0", docs[0]["id"])
	assert.Equal(t, "alpha beta gamma", docs[0]["text_all"])
	assert.Equal(t, "b_0", docs[1]["join_id"])
	assert.Equal(t, float64(42), docs[1]["acl"])
}

func TestSolr_SendNested(t *testing.T) {
	solr, fake := newTestSolr(t)

	require.NoError(t, solr.Send(context.Background(), []model.Record{testNested("b_0", 2)}, time.Minute))

	updates := fake.updates()
	require.Len(t, updates, 1)
	docs := addedDocuments(t, updates[0].body)
	require.Len(t, docs, 1)
	children, ok := docs[0][childDocumentsKey].([]any)
	require.True(t, ok)
	assert.Len(t, children, 2)
}

func TestSolr_SendCancelled(t *testing.T) {
	solr, fake := newTestSolr(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, solr.Send(ctx, testGroup("b_0", 1), time.Minute), context.Canceled)
	assert.Empty(t, fake.updates())
}

func TestSolr_Commit(t *testing.T) {
	solr, fake := newTestSolr(t)

	require.NoError(t, solr.Commit(context.Background()))

	updates := fake.updates()
	require.Len(t, updates, 1)
	assert.True(t, isCommit(updates[0]))
}

func TestSolr_ErrorResponses(t *testing.T) {
	tests := map[string]struct {
		status   int
		response string
	}{
		"solr error body": {
			status:   http.StatusBadRequest,
			response: `{"responseHeader":{"status":400},"error":{"msg":"unknown field 'foo'","code":400}}`,
		},
		"plain error body": {
			status:   http.StatusServiceUnavailable,
			response: "overloaded",
		},
		"non zero status": {
			status:   http.StatusOK,
			response: `{"responseHeader":{"status":500}}`,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			solr, fake := newTestSolr(t)
			fake.status = tc.status
			fake.response = tc.response

			err := solr.Send(context.Background(), testGroup("b_0", 1), time.Minute)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "solr adding documents")
		})
	}
}

func TestNewSolr_InvalidConfig(t *testing.T) {
	for _, u := range []string{"", "localhost:8983", "://bad"} {
		_, err := NewSolr(configuration.SolrConfig{URL: u, Collection: "joins"})
		assert.Error(t, err, u)
	}
	_, err := NewSolr(configuration.SolrConfig{URL: "http://localhost:8983/solr"})
	assert.Error(t, err)
}
