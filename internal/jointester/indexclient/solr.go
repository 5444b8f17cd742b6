package indexclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vanng822/go-solr/solr"

	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/model"
)

const maxErrorBodyBytes = 1024

// Solr is a Backend adding JSON documents to a Solr core through its update handler.
type Solr struct {
	baseURL    string
	collection string
	si         *solr.SolrInterface
	probe      *http.Client
}

// NewSolr creates a Solr backend for the core named by config.Collection under config.URL.
func NewSolr(config configuration.SolrConfig) (*Solr, error) {
	u, err := url.Parse(config.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid solr url %q", config.URL)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid solr url %q", config.URL)
	}
	collection := strings.Trim(config.Collection, "/")
	if collection == "" {
		return nil, errors.New("solr collection must be set")
	}
	baseURL := strings.TrimSuffix(config.URL, "/")
	si, err := solr.NewSolrInterface(baseURL, collection)
	if err != nil {
		return nil, errors.Wrapf(err, "creating solr client for %s/%s", baseURL, collection)
	}
	return &Solr{
		baseURL:    baseURL,
		collection: collection,
		si:         si,
		probe:      &http.Client{Timeout: config.RequestTimeout},
	}, nil
}

// Connect pings the core.
func (s *Solr) Connect(ctx context.Context) error {
	u := s.baseURL + "/" + s.collection + "/admin/ping?wt=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	resp, err := s.probe.Do(req)
	if err != nil {
		return errors.Wrapf(err, "pinging solr core %s", s.collection)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "reading ping response from solr core %s", s.collection)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("pinging solr core %s: solr returned %d: %s", s.collection, resp.StatusCode, truncate(data))
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return errors.Wrapf(err, "decoding ping response from solr core %s", s.collection)
	}
	if status := headerStatus(decoded); status != 0 {
		return errors.Errorf("pinging solr core %s: solr returned status %d", s.collection, status)
	}
	return nil
}

func (s *Solr) Send(ctx context.Context, records []model.Record, commitWithin time.Duration) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if len(records) == 0 {
		return nil
	}
	docs := make([]solr.Document, len(records))
	for i, r := range records {
		docs[i] = solr.Document(document(r))
	}
	params := &url.Values{}
	params.Set("commitWithin", strconv.FormatInt(commitWithin.Milliseconds(), 10))
	resp, err := s.si.Add(docs, len(docs), params)
	return checkUpdate("adding documents", resp, err)
}

// Commit issues a hard commit and returns once Solr has opened a new searcher.
func (s *Solr) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	resp, err := s.si.Commit()
	return checkUpdate("committing", resp, err)
}

func (s *Solr) Close() error {
	s.probe.CloseIdleConnections()
	return nil
}

func checkUpdate(op string, resp *solr.SolrUpdateResponse, err error) error {
	if err != nil {
		return errors.Wrapf(err, "solr %s", op)
	}
	if resp == nil {
		return errors.Errorf("solr %s: empty response", op)
	}
	if !resp.Success {
		return errors.Errorf("solr %s failed: %s", op, updateError(resp.Result))
	}
	if status := headerStatus(resp.Result); status != 0 {
		return errors.Errorf("solr %s: solr returned status %d", op, status)
	}
	return nil
}

func updateError(result map[string]any) string {
	if e, ok := result["error"].(map[string]any); ok {
		if msg, ok := e["msg"].(string); ok {
			return msg
		}
	}
	return fmt.Sprint(result["error"])
}

func headerStatus(result map[string]any) int {
	header, ok := result["responseHeader"].(map[string]any)
	if !ok {
		return 0
	}
	status, _ := header["status"].(float64)
	return int(status)
}

func truncate(data []byte) string {
	if len(data) > maxErrorBodyBytes {
		data = data[:maxErrorBodyBytes]
	}
	return string(data)
}
