//go:build mage

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const binaryPath = "bin/jointester"

// Check dependent tools are present and the correct version.
func CheckDeps() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"docker", dockerCheck},
		{"golangci-lint", golangciLintCheck},
	}
	failures := false
	for _, check := range checks {
		fmt.Printf("Checking %s... ", check.name)
		if err := check.check(); err != nil {
			fmt.Printf("FAILED\nReason: %v\n", err)
			failures = true
		} else {
			fmt.Println("PASSED")
		}
	}
	if failures {
		return errors.New("check(s) failed.")
	}
	return nil
}

// Removes build output and test reports.
func Clean() {
	fmt.Println("Cleaning...")
	for _, path := range []string{"bin", "test_reports"} {
		os.RemoveAll(path)
	}
}

// Builds the jointester binary into bin/.
func Build() error {
	timeTaken := time.Now()
	if err := sh.RunV("go", "build", "-o", binaryWithExt(binaryPath), "./cmd/jointester"); err != nil {
		return err
	}
	fmt.Println("Time to build:", time.Since(timeTaken))
	return nil
}

// Runs a small corpus against the local Solr started by LocalDev.
func Smoke() error {
	mg.Deps(Build)
	return sh.RunWithV(
		map[string]string{"JOINTESTER_INDEXCLIENT_SOLR_COLLECTION": solrCore},
		binaryWithExt(binaryPath), "run", "--parents", "1000", "--yes",
	)
}
