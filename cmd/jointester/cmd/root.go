package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	commonconfig "github.com/armadaproject/jointester/internal/common/config"
	log "github.com/armadaproject/jointester/internal/common/logging"
	"github.com/armadaproject/jointester/internal/jointester/configuration"
)

const (
	baseConfigFlag    = "baseConfig"
	customConfigFlag  = "config"
	defaultConfigPath = "./config/jointester/config.yaml"
	envPrefix         = "JOINTESTER"
)

// flagKeys maps command line flags to the configuration keys they override.
var flagKeys = map[string]string{
	"parents":     "corpus.parents",
	"backend":     "indexClient.backend",
	"resultsFile": "resultsFile",
	"metricsPort": "metrics.port",
}

var rootCmd = &cobra.Command{
	Use:   "jointester",
	Short: "Generate a parent/child join corpus and stream it into a document index",
	Long: `
jointester generates body records, each joined to a fixed number of instance records
through join_id, and indexes them in batches while reporting throughput and the
projected time to completion.

Configuration is read from --baseConfig, then every --config file is merged on top
in order. Any value can also be set from the environment, e.g.

JOINTESTER_CORPUS_PARENTS=1000 JOINTESTER_INDEXCLIENT_BACKEND=memory jointester run
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	addConfigFlags(rootCmd.PersistentFlags())
}

func addConfigFlags(flags *pflag.FlagSet) {
	flags.String(baseConfigFlag, defaultConfigPath, "Path of the base configuration file")
	flags.StringSlice(
		customConfigFlag,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)",
	)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.WithStacktrace(err).Error("jointester failed")
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration for cmd.
func loadConfig(cmd *cobra.Command) (configuration.Config, error) {
	var config configuration.Config

	baseConfig, err := cmd.Flags().GetString(baseConfigFlag)
	if err != nil {
		return config, errors.WithStack(err)
	}
	overrides, err := cmd.Flags().GetStringSlice(customConfigFlag)
	if err != nil {
		return config, errors.WithStack(err)
	}
	v := viper.New()
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config, errors.WithStack(err)
			}
		}
	}
	if err := commonconfig.LoadConfig(v, &config, baseConfig, overrides, envPrefix); err != nil {
		return config, err
	}
	if err := config.Validate(); err != nil {
		commonconfig.LogValidationErrors(err)
		return config, errors.New("invalid configuration")
	}
	return config, nil
}
