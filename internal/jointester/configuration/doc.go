/*
Package configuration defines the input configuration for jointester.

jointester generates a parent/child corpus (one "body" text record joined to a fixed
number of "instance" records) and streams it into a document index in bounded batches.

# Configuration Structure

The main configuration type is Config, which defines:

  - Corpus shape: parent count, children per parent, body size and word mix, id seed
  - Batching: flush threshold and the soft commit deadline sent with every batch
  - Index client: which backend receives the batches and how many are in flight
  - Metrics: the optional Prometheus listener

# Example YAML Configuration

	corpus:
	  parents: 4500000
	  childrenPerParent: 5
	  wordsPerBody: 1024
	  commonWordRatio: 7
	  englishWordRatio: 3
	  idCounterSeed: 26104000
	  childMode: flat
	  dataSource: "4"
	  dataSourceName: JOINS
	  dataSourceType: Custom
	batch:
	  threshold: 10000
	  commitWithin: 10m
	indexClient:
	  backend: solr
	  queueSize: 4
	  threads: 1
	  solr:
	    url: http://localhost:8983/solr
	    collection: joins

Config.Validate() checks the struct tag constraints first and then rules spanning
several fields, such as the backend specific settings.
*/
package configuration
