package orchestrator

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/utils/clock"

	log "github.com/armadaproject/jointester/internal/common/logging"
	"github.com/armadaproject/jointester/internal/jointester/attributes"
	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/indexclient"
	"github.com/armadaproject/jointester/internal/jointester/metrics"
)

// Execute builds the attribute generator and index client described by config, performs a run, and writes the
// results file if one is configured. The results file is written for aborted runs too.
// The run's collectors are registered with registerer, so each call needs a registerer that does not already
// hold them, such as a fresh prometheus.Registry.
func Execute(ctx context.Context, config configuration.Config, registerer prometheus.Registerer) error {
	runID := uuid.New()
	logger := log.WithField("runId", runID.String())
	logger.Infof("Starting run against %s index", config.IndexClient.Backend)

	attrs, err := attributes.NewWordLists(config.Corpus.Attributes, config.Corpus.RandomSeed)
	if err != nil {
		return errors.WithMessage(err, "creating attribute generator")
	}

	m := metrics.New(registerer)
	client, err := indexclient.New(ctx, config.IndexClient, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close index client")
		}
	}()

	runner := NewRunner(config, attrs, client, clock.RealClock{})
	runErr := runner.Run(ctx)

	if config.ResultsFile != "" {
		result := metrics.BuildResult(runID, config, runner.Summary(), m.Totals(), runner.StartedAt(), runErr)
		if err := metrics.WriteResultToFile(result, config.ResultsFile); err != nil {
			logger.WithError(err).Warn("Failed to write results file")
		} else {
			logger.Infof("Results written to %s", config.ResultsFile)
		}
	}
	return runErr
}
