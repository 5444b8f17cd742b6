package metrics

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/progress"
)

// SchemaVersion is bumped whenever the layout of Result changes.
const SchemaVersion = "1.0"

const (
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
)

type Result struct {
	Metadata      ResultMetadata `json:"metadata"`
	Configuration ResultConfig   `json:"configuration"`
	Results       RunResults     `json:"results"`
}

type ResultMetadata struct {
	Version    string    `json:"version"`
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

type ResultConfig struct {
	Backend           string `json:"backend"`
	ChildMode         string `json:"childMode"`
	Parents           int    `json:"parents"`
	ChildrenPerParent int    `json:"childrenPerParent"`
	WordsPerBody      int    `json:"wordsPerBody"`
	BatchThreshold    int    `json:"batchThreshold"`
	CommitWithin      string `json:"commitWithin"`
	QueueSize         int    `json:"queueSize"`
	Threads           int    `json:"threads"`
}

type RunResults struct {
	RecordsPlanned    int64   `json:"recordsPlanned"`
	RecordsAdded      int64   `json:"recordsAdded"`
	Flushes           int     `json:"flushes"`
	Duration          string  `json:"duration"`
	MeanRate          float64 `json:"meanRecordsPerSecond"`
	BatchesSent       int64   `json:"batchesSent"`
	BatchesFailed     int64   `json:"batchesFailed"`
	BodiesSent        int64   `json:"bodiesSent"`
	InstancesSent     int64   `json:"instancesSent"`
	Commits           int64   `json:"commits"`
	MeanSendLatency   string  `json:"meanSendLatency"`
	MaxSendLatency    string  `json:"maxSendLatency"`
	PeakQueuedBatches int     `json:"peakQueuedBatches"`
}

// BuildResult assembles the results file for a run. runErr is nil for a run that completed.
func BuildResult(
	runID uuid.UUID,
	config configuration.Config,
	summary progress.Summary,
	totals Totals,
	startedAt time.Time,
	runErr error,
) Result {
	status := StatusCompleted
	errMsg := ""
	if runErr != nil {
		status = StatusAborted
		errMsg = runErr.Error()
	}

	var meanLatency time.Duration
	if sent := totals.BatchesSent + totals.BatchesFailed; sent > 0 {
		meanLatency = totals.SumSendLatency / time.Duration(sent)
	}

	return Result{
		Metadata: ResultMetadata{
			Version:    SchemaVersion,
			RunID:      runID.String(),
			StartedAt:  startedAt.UTC(),
			FinishedAt: startedAt.Add(summary.Duration).UTC(),
			Status:     status,
			Error:      errMsg,
		},
		Configuration: ResultConfig{
			Backend:           string(config.IndexClient.Backend),
			ChildMode:         string(config.Corpus.ChildMode),
			Parents:           config.Corpus.Parents,
			ChildrenPerParent: config.Corpus.ChildrenPerParent,
			WordsPerBody:      config.Corpus.WordsPerBody,
			BatchThreshold:    config.Batch.Threshold,
			CommitWithin:      config.Batch.CommitWithin.String(),
			QueueSize:         config.IndexClient.QueueSize,
			Threads:           config.IndexClient.Threads,
		},
		Results: RunResults{
			RecordsPlanned:    config.Corpus.TotalRecords(),
			RecordsAdded:      summary.Added,
			Flushes:           summary.Flushes,
			Duration:          summary.Duration.String(),
			MeanRate:          summary.MeanRate,
			BatchesSent:       totals.BatchesSent,
			BatchesFailed:     totals.BatchesFailed,
			BodiesSent:        totals.BodiesSent,
			InstancesSent:     totals.InstancesSent,
			Commits:           totals.Commits,
			MeanSendLatency:   meanLatency.String(),
			MaxSendLatency:    totals.MaxSendLatency.String(),
			PeakQueuedBatches: totals.PeakQueuedCount,
		},
	}
}

func WriteResultToFile(result Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshalling results")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing results to %s", path)
	}
	return nil
}
