//go:build mage

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/pkg/errors"
)

const (
	solrContainer     = "jointester-solr"
	postgresContainer = "jointester-postgres"
	solrCore          = "joins"
	solrPingURL       = "http://localhost:8983/solr/" + solrCore + "/admin/ping"
)

// Starts Solr, with a "joins" core, and Postgres in docker.
func LocalDev() error {
	mg.Deps(dockerCheck)
	timeTaken := time.Now()

	if err := dockerRun("run", "-d", "--name="+solrContainer, "-p=8983:8983", "solr:9.4", "solr-precreate", solrCore); err != nil {
		return err
	}
	if err := dockerRun("run", "-d", "--name="+postgresContainer, "-p=5432:5432",
		"-e", "POSTGRES_PASSWORD=psw", "-e", "POSTGRES_DB=jointester", "postgres:14.2"); err != nil {
		return err
	}

	fmt.Println("Waiting for Solr to start...")
	if err := waitForSolr(2 * time.Minute); err != nil {
		return err
	}
	fmt.Println("Time to start dependencies:", time.Since(timeTaken))
	return nil
}

// Stops the containers started by LocalDev.
func LocalDevStop() error {
	return dockerRemove(solrContainer, postgresContainer)
}

func waitForSolr(timeout time.Duration) error {
	client := &http.Client{Timeout: 5 * time.Second}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(solrPingURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(2 * time.Second)
	}
	return errors.Errorf("solr was not ready after %s", timeout)
}
