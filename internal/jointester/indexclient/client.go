package indexclient

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/metrics"
	"github.com/armadaproject/jointester/internal/jointester/model"
)

// childDocumentsKey is the field Solr reads nested block join children from.
const childDocumentsKey = "_childDocuments_"

// Client accepts batches of records for indexing.
type Client interface {
	// AddBatch hands records to the index, asking for them to become searchable within commitWithin. It may
	// return before the records have been sent; a failure sending an earlier batch is returned by a later call.
	AddBatch(ctx context.Context, records []model.Record, commitWithin time.Duration) error
	// Commit blocks until every batch added so far is durable and searchable.
	Commit(ctx context.Context) error
	Close() error
}

// Backend is a synchronous connection to a particular kind of index.
type Backend interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, records []model.Record, commitWithin time.Duration) error
	Commit(ctx context.Context) error
	Close() error
}

// New connects to the backend selected by config and returns a Client sending to it in the background.
func New(ctx context.Context, config configuration.IndexClientConfig, m *metrics.Metrics) (*Async, error) {
	backend, err := newBackend(config)
	if err != nil {
		return nil, err
	}
	if err := backend.Connect(ctx); err != nil {
		return nil, errors.WithMessagef(err, "connecting to %s index", config.Backend)
	}
	return NewAsync(ctx, backend, config.QueueSize, config.Threads, m), nil
}

func newBackend(config configuration.IndexClientConfig) (Backend, error) {
	switch config.Backend {
	case configuration.BackendSolr:
		return NewSolr(config.Solr)
	case configuration.BackendPostgres:
		return NewPostgres(config.Postgres), nil
	case configuration.BackendFile:
		return NewFile(config.File), nil
	case configuration.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, errors.Errorf("unknown index client backend %q", config.Backend)
	}
}

// document renders r, including any nested children, as a single index document.
func document(r model.Record) map[string]any {
	doc := r.Fields()
	if len(r.Children) > 0 {
		children := make([]map[string]any, len(r.Children))
		for i, child := range r.Children {
			children[i] = document(child)
		}
		doc[childDocumentsKey] = children
	}
	return doc
}

func documents(records []model.Record) []map[string]any {
	docs := make([]map[string]any, len(records))
	for i, r := range records {
		docs[i] = document(r)
	}
	return docs
}
