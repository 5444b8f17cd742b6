package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
corpus:
  parents: 1000
  childrenPerParent: 2
  wordsPerBody: 20
  commonWordRatio: 7
  englishWordRatio: 3
  idCounterSeed: 26104000
  childMode: flat
  dataSource: "4"
  dataSourceName: JOINS
  dataSourceType: Custom
  attributes:
    fewFraction: 0.1
    fewCardinality: 10
    aclMax: 500000
    earliestDate: "2000-01-01"
    latestDate: "2015-12-31"
batch:
  threshold: 100
  commitWithin: 10m
indexClient:
  backend: memory
  queueSize: 4
  threads: 2
resultsFile: ""
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd.PersistentFlags())
		resetFlags(estimateCmd.Flags())
		resetFlags(runCmd.Flags())
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default, as cobra keeps parsed values between executions.
func resetFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func TestEstimateCommand(t *testing.T) {
	path := writeConfig(t, testConfig)

	out, err := executeCommand(t, "estimate", "--baseConfig", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Total records:         3,000")
}

func TestEstimateCommand_FlagOverridesConfig(t *testing.T) {
	path := writeConfig(t, testConfig)
	override := writeConfig(t, "batch:\n  threshold: 7\n")

	out, err := executeCommand(t, "estimate", "--baseConfig", path, "--config", override, "--parents", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Total records:         60")
	assert.Contains(t, out, "Batches:               7 (9 records each)")
}

func TestEstimateCommand_InvalidConfig(t *testing.T) {
	path := writeConfig(t, testConfig)

	_, err := executeCommand(t, "estimate", "--baseConfig", path, "--parents", "-1")
	assert.EqualError(t, err, "invalid configuration")
}

func TestRunCommand_MemoryBackend(t *testing.T) {
	path := writeConfig(t, testConfig)
	results := filepath.Join(t.TempDir(), "results.json")

	_, err := executeCommand(t, "run", "--baseConfig", path, "--parents", "50", "--resultsFile", results)
	require.NoError(t, err)
	assert.FileExists(t, results)
}

func TestRunCommand_RunsTwiceInOneProcess(t *testing.T) {
	path := writeConfig(t, testConfig)

	for i := 0; i < 2; i++ {
		_, err := executeCommand(t, "run", "--baseConfig", path, "--parents", "10", "--yes")
		require.NoError(t, err)
	}
}
