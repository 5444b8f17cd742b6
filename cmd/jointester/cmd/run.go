package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/armadaproject/jointester/internal/common/app"
	log "github.com/armadaproject/jointester/internal/common/logging"
	"github.com/armadaproject/jointester/internal/common/serve"
	"github.com/armadaproject/jointester/internal/jointester/estimation"
	"github.com/armadaproject/jointester/internal/jointester/orchestrator"
)

const yesFlag = "yes"

func init() {
	rootCmd.AddCommand(runCmd)
	flags := runCmd.Flags()
	flags.Bool(yesFlag, false, "Skip the confirmation prompt for large runs")
	flags.Int("parents", 0, "Number of body records to generate")
	flags.String("backend", "", "Index client backend: solr, postgres, file or memory")
	flags.String("resultsFile", "", "Write a JSON summary of the run to this path")
	flags.Uint16("metricsPort", 0, "Serve Prometheus metrics on this port while the run is in progress")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate the corpus and index it",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		skipConfirmation, err := cmd.Flags().GetBool(yesFlag)
		if err != nil {
			return err
		}
		est := estimation.Estimate(config)
		if !skipConfirmation && estimation.ShouldPrompt(est) {
			ok, err := estimation.DisplayEstimationAndConfirm(est, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !ok {
				log.Info("Run cancelled")
				return nil
			}
		}

		registry := prometheus.NewRegistry()
		if config.Metrics.Port > 0 {
			stop := serve.ServeMetrics(config.Metrics.Port, prometheus.Gatherers{prometheus.DefaultGatherer, registry})
			defer stop()
		}

		ctx := app.CreateContextWithShutdown()
		return orchestrator.Execute(ctx, config, registry)
	},
}
