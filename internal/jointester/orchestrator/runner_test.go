package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/armadaproject/jointester/internal/jointester/attributes"
	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/indexclient"
	"github.com/armadaproject/jointester/internal/jointester/metrics"
	"github.com/armadaproject/jointester/internal/jointester/model"
)

// recordingClient is a synchronous Client failing on a chosen call to AddBatch.
type recordingClient struct {
	batches      [][]model.Record
	addCalls     int
	failOnAdd    int
	commits      int
	commitErr    error
	commitWithin []time.Duration
}

func (c *recordingClient) AddBatch(_ context.Context, records []model.Record, commitWithin time.Duration) error {
	c.addCalls++
	if c.addCalls == c.failOnAdd {
		return errors.New("index unavailable")
	}
	c.batches = append(c.batches, records)
	c.commitWithin = append(c.commitWithin, commitWithin)
	return nil
}

func (c *recordingClient) Commit(_ context.Context) error {
	if c.commitErr != nil {
		return c.commitErr
	}
	c.commits++
	return nil
}

func (c *recordingClient) Close() error {
	return nil
}

func (c *recordingClient) batchSizes() []int {
	sizes := make([]int, len(c.batches))
	for i, b := range c.batches {
		sizes[i] = model.CountRecords(b)
	}
	return sizes
}

func testConfig(parents, children, threshold int) configuration.Config {
	return configuration.Config{
		Corpus: configuration.CorpusConfig{
			Parents:           parents,
			ChildrenPerParent: children,
			WordsPerBody:      20,
			CommonWordRatio:   7,
			EnglishWordRatio:  3,
			IdCounterSeed:     26104000,
			RandomSeed:        1,
			ChildMode:         configuration.ChildModeFlat,
			DataSource:        "4",
			DataSourceName:    "JOINS",
			DataSourceType:    "Custom",
			Attributes: configuration.AttributesConfig{
				FewFraction:    0.2,
				FewCardinality: 5,
				AclMax:         500000,
				EarliestDate:   "2000-01-01",
				LatestDate:     "2015-12-31",
			},
		},
		Batch: configuration.BatchConfig{
			Threshold:    threshold,
			CommitWithin: 10 * time.Minute,
		},
		IndexClient: configuration.IndexClientConfig{
			Backend:   configuration.BackendMemory,
			QueueSize: 4,
			Threads:   2,
		},
	}
}

func newTestRunner(t *testing.T, config configuration.Config, client indexclient.Client) *Runner {
	t.Helper()
	attrs, err := attributes.NewWordLists(config.Corpus.Attributes, config.Corpus.RandomSeed)
	require.NoError(t, err)
	return NewRunner(config, attrs, client, clocktesting.NewFakePassiveClock(time.Now()))
}

func TestRunner_FlushesAtThresholdAndCommitsOnce(t *testing.T) {
	client := &recordingClient{}
	runner := newTestRunner(t, testConfig(3, 2, 5), client)

	require.NoError(t, runner.Run(context.Background()))

	assert.Equal(t, []int{6, 3}, client.batchSizes())
	assert.Equal(t, 1, client.commits)
	assert.Equal(t, []time.Duration{10 * time.Minute, 10 * time.Minute}, client.commitWithin)
	assert.Equal(t, StateDone, runner.State())

	summary := runner.Summary()
	assert.Equal(t, int64(9), summary.Added)
	assert.Equal(t, 2, summary.Flushes)
}

func TestRunner_AbortsOnAddBatchFailure(t *testing.T) {
	client := &recordingClient{failOnAdd: 2}
	runner := newTestRunner(t, testConfig(10, 2, 5), client)

	err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index unavailable")
	assert.Equal(t, StateAborted, runner.State())
	assert.Equal(t, []int{6}, client.batchSizes())
	assert.Equal(t, 2, client.addCalls, "generation continued after the failure")
	assert.Equal(t, 0, client.commits)
	assert.Equal(t, int64(6), runner.Summary().Added)
}

func TestRunner_AbortsOnFinalFlushFailure(t *testing.T) {
	client := &recordingClient{failOnAdd: 2}
	runner := newTestRunner(t, testConfig(3, 2, 5), client)

	require.Error(t, runner.Run(context.Background()))
	assert.Equal(t, []int{6}, client.batchSizes())
	assert.Equal(t, 0, client.commits)
}

func TestRunner_AbortsOnCommitFailure(t *testing.T) {
	client := &recordingClient{commitErr: errors.New("commit timed out")}
	runner := newTestRunner(t, testConfig(3, 2, 5), client)

	err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit timed out")
	assert.Equal(t, StateAborted, runner.State())
	assert.Equal(t, []int{6, 3}, client.batchSizes())
}

func TestRunner_AbortsWhenContextCancelled(t *testing.T) {
	client := &recordingClient{}
	runner := newTestRunner(t, testConfig(3, 2, 5), client)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateAborted, runner.State())
	assert.Empty(t, client.batches)
}

func TestRunner_CountInvariantAndJoinLocality(t *testing.T) {
	tests := map[string]configuration.ChildMode{
		"flat":   configuration.ChildModeFlat,
		"nested": configuration.ChildModeNested,
	}
	for name, mode := range tests {
		t.Run(name, func(t *testing.T) {
			config := testConfig(50, 5, 37)
			config.Corpus.ChildMode = mode
			client := &recordingClient{}
			runner := newTestRunner(t, config, client)

			require.NoError(t, runner.Run(context.Background()))

			total := 0
			bodies := 0
			instances := 0
			ids := map[string]bool{}
			for _, b := range client.batches {
				total += model.CountRecords(b)
				inBatch := map[string]bool{}
				var all []model.Record
				for _, r := range b {
					all = append(all, r)
					all = append(all, r.Children...)
				}
				for _, r := range all {
					assert.False(t, ids[r.ID], "duplicate id %s", r.ID)
					ids[r.ID] = true
					if r.Kind == model.KindBody {
						bodies++
						inBatch[r.ID] = true
					}
				}
				for _, r := range all {
					if r.Kind == model.KindInstance {
						instances++
						assert.True(t, inBatch[r.JoinID], "instance %s is not in the same batch as its body", r.ID)
					}
				}
				if mode == configuration.ChildModeNested {
					for _, r := range b {
						assert.Equal(t, model.KindBody, r.Kind)
						assert.Len(t, r.Children, 5)
					}
				}
			}
			assert.Equal(t, 300, total)
			assert.Equal(t, 50, bodies)
			assert.Equal(t, 250, instances)
			for _, size := range client.batchSizes()[:len(client.batches)-1] {
				assert.GreaterOrEqual(t, size, 37)
				assert.Less(t, size, 37+6)
			}
		})
	}
}

func TestRunner_RunTwice(t *testing.T) {
	runner := newTestRunner(t, testConfig(1, 1, 5), &recordingClient{})
	require.NoError(t, runner.Run(context.Background()))
	assert.Error(t, runner.Run(context.Background()))
}

func TestRunner_SummaryBeforeRun(t *testing.T) {
	runner := newTestRunner(t, testConfig(1, 1, 5), &recordingClient{})
	assert.Equal(t, StateIdle, runner.State())
	assert.Zero(t, runner.Summary())
	assert.True(t, runner.StartedAt().IsZero())
}

func TestRunner_AsyncClientSurfacesSendFailureAtCommit(t *testing.T) {
	backend := indexclient.NewMemory()
	backend.FailOnSend(2, errors.New("rejected"))
	require.NoError(t, backend.Connect(context.Background()))
	client := indexclient.NewAsync(context.Background(), backend, 4, 1, metrics.New(prometheus.NewRegistry()))
	defer client.Close()
	runner := newTestRunner(t, testConfig(3, 2, 5), client)

	err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
	assert.Equal(t, StateAborted, runner.State())
	assert.Equal(t, []int{6}, backend.BatchSizes())
	assert.Equal(t, 0, backend.Commits())
}

func TestExecute_WritesResultsFile(t *testing.T) {
	config := testConfig(3, 2, 5)
	config.ResultsFile = filepath.Join(t.TempDir(), "results.json")

	require.NoError(t, Execute(context.Background(), config, prometheus.NewRegistry()))

	data, err := os.ReadFile(config.ResultsFile)
	require.NoError(t, err)
	var result metrics.Result
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, metrics.StatusCompleted, result.Metadata.Status)
	assert.Equal(t, int64(9), result.Results.RecordsAdded)
	assert.Equal(t, int64(2), result.Results.BatchesSent)
	assert.Equal(t, int64(3), result.Results.BodiesSent)
	assert.Equal(t, int64(6), result.Results.InstancesSent)
	assert.Equal(t, int64(1), result.Results.Commits)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "FinalFlushing", StateFinalFlushing.String())
	assert.Equal(t, "Aborted", StateAborted.String())
	assert.Equal(t, "Unknown", State(99).String())
}
