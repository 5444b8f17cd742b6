package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/jointester/internal/jointester/estimation"
)

func init() {
	rootCmd.AddCommand(estimateCmd)
	flags := estimateCmd.Flags()
	flags.Int("parents", 0, "Number of body records to generate")
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Print the size of the corpus a run would generate without indexing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		estimation.Display(estimation.Estimate(config), cmd.OutOrStdout())
		return nil
	},
}
