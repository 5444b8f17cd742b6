package indexclient

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/metrics"
)

func TestDocument_Flat(t *testing.T) {
	doc := document(testInstance("x_1", "b_0"))

	assert.Equal(t, "x_1", doc["id"])
	assert.Equal(t, "b_0", doc["join_id"])
	assert.Equal(t, "2012-03-04T05:06:07Z", doc["date_one"])
	assert.Equal(t, "51.500000,-0.125000", doc["place"])
	assert.NotContains(t, doc, childDocumentsKey)
}

func TestDocument_Nested(t *testing.T) {
	doc := document(testNested("b_0", 2))

	children, ok := doc[childDocumentsKey].([]map[string]any)
	require.True(t, ok)
	require.Len(t, children, 2)
	for _, child := range children {
		assert.Equal(t, "b_0", child["join_id"])
		assert.Equal(t, "instance", child["kind"])
	}
}

func TestNew_Memory(t *testing.T) {
	client, err := New(context.Background(), configuration.IndexClientConfig{
		Backend:   configuration.BackendMemory,
		QueueSize: 1,
		Threads:   1,
	}, metrics.New(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.AddBatch(context.Background(), testGroup("b_0", 2), 0))
	require.NoError(t, client.Commit(context.Background()))
}

func TestNew_InvalidSolrURL(t *testing.T) {
	_, err := New(context.Background(), configuration.IndexClientConfig{
		Backend:   configuration.BackendSolr,
		QueueSize: 1,
		Threads:   1,
		Solr:      configuration.SolrConfig{URL: "not a url"},
	}, metrics.New(prometheus.NewRegistry()))
	assert.Error(t, err)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), configuration.IndexClientConfig{
		Backend:   "elastic",
		QueueSize: 1,
		Threads:   1,
	}, metrics.New(prometheus.NewRegistry()))
	assert.Error(t, err)
}
