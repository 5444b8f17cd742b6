package configuration

import (
	"fmt"
	"strings"
	"time"
)

// ChildMode controls how instance records are attached to their body record.
type ChildMode string

const (
	// ChildModeFlat indexes instance records as top-level documents next to their body record.
	ChildModeFlat ChildMode = "flat"
	// ChildModeNested indexes instance records as children of their body record (block join).
	ChildModeNested ChildMode = "nested"
)

func (m *ChildMode) UnmarshalText(text []byte) error {
	switch mode := ChildMode(strings.ToLower(string(text))); mode {
	case ChildModeFlat, ChildModeNested:
		*m = mode
		return nil
	case "":
		*m = ChildModeFlat
		return nil
	default:
		return fmt.Errorf("unknown child mode %q", string(text))
	}
}

// Backend selects the Index Client implementation.
type Backend string

const (
	BackendSolr     Backend = "solr"
	BackendPostgres Backend = "postgres"
	BackendFile     Backend = "file"
	BackendMemory   Backend = "memory"
)

func (b *Backend) UnmarshalText(text []byte) error {
	switch backend := Backend(strings.ToLower(string(text))); backend {
	case BackendSolr, BackendPostgres, BackendFile, BackendMemory:
		*b = backend
		return nil
	default:
		return fmt.Errorf("unknown index client backend %q", string(text))
	}
}

type Config struct {
	Corpus      CorpusConfig      `yaml:"corpus"`
	Batch       BatchConfig       `yaml:"batch"`
	IndexClient IndexClientConfig `yaml:"indexClient"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	// If set, a JSON summary of the run is written to this path once the run completes.
	ResultsFile string `yaml:"resultsFile"`
}

type CorpusConfig struct {
	// Number of body records to generate.
	Parents int `yaml:"parents" validate:"gt=0"`
	// Number of instance records generated for every body record.
	ChildrenPerParent int `yaml:"childrenPerParent" validate:"gte=0"`
	// Minimum number of words in the text_all field of a body record.
	WordsPerBody int `yaml:"wordsPerBody" validate:"gt=0"`
	// Common words drawn per ratio group.
	CommonWordRatio int `yaml:"commonWordRatio" validate:"gte=0"`
	// English words drawn per ratio group.
	EnglishWordRatio int `yaml:"englishWordRatio" validate:"gte=0"`
	// First value of the id counter.
	IdCounterSeed int64 `yaml:"idCounterSeed" validate:"gte=0"`
	// Seed for the attribute generator.
	RandomSeed     int64     `yaml:"randomSeed"`
	ChildMode      ChildMode `yaml:"childMode"`
	DataSource     string    `yaml:"dataSource" validate:"required"`
	DataSourceName string    `yaml:"dataSourceName" validate:"required"`
	DataSourceType string    `yaml:"dataSourceType" validate:"required"`

	Attributes AttributesConfig `yaml:"attributes"`
}

// RatioGroupSize is the number of words drawn between two checks of the body word count.
func (c CorpusConfig) RatioGroupSize() int {
	return c.CommonWordRatio + c.EnglishWordRatio
}

// TotalRecords is the number of records a complete run produces.
func (c CorpusConfig) TotalRecords() int64 {
	return int64(c.Parents) * int64(1+c.ChildrenPerParent)
}

type AttributesConfig struct {
	// Proportion of body records that get a real few_id. The rest share a single "none" key.
	FewFraction float64 `yaml:"fewFraction" validate:"gte=0,lte=1"`
	// Number of distinct few_id values.
	FewCardinality int `yaml:"fewCardinality" validate:"gt=0"`
	// Exclusive upper bound of the acl field.
	AclMax int `yaml:"aclMax" validate:"gt=0"`
	// Generated dates fall within [EarliestDate, LatestDate].
	EarliestDate string `yaml:"earliestDate" validate:"required,datetime=2006-01-02"`
	LatestDate   string `yaml:"latestDate" validate:"required,datetime=2006-01-02"`
}

type BatchConfig struct {
	// Buffered record count at which a batch is flushed to the index client.
	Threshold int `yaml:"threshold" validate:"gt=0"`
	// Soft commit deadline passed with every batch.
	CommitWithin time.Duration `yaml:"commitWithin" validate:"gt=0"`
}

type IndexClientConfig struct {
	Backend Backend `yaml:"backend" validate:"required"`
	// Number of batches that may wait to be sent before AddBatch blocks.
	QueueSize int `yaml:"queueSize" validate:"gt=0"`
	// Number of goroutines sending batches. With more than one, batches already in flight when a send fails
	// may still be indexed.
	Threads  int            `yaml:"threads" validate:"gt=0"`
	Solr     SolrConfig     `yaml:"solr"`
	Postgres PostgresConfig `yaml:"postgres"`
	File     FileConfig     `yaml:"file"`
}

type SolrConfig struct {
	// Base url of the Solr server, e.g. http://localhost:8983/solr
	URL string `yaml:"url"`
	// Core or collection the documents are added to.
	Collection string `yaml:"collection"`
	// Timeout for the reachability check made before generation starts.
	RequestTimeout time.Duration `yaml:"requestTimeout" validate:"gte=0"`
}

type PostgresConfig struct {
	// libpq style connection parameters, e.g. host, port, user, password, dbname, sslmode
	Connection map[string]string `yaml:"connection"`
	// Whether to create the body and instance tables if they do not exist.
	CreateSchema bool `yaml:"createSchema"`
}

type FileConfig struct {
	// Path of the zstd compressed JSON lines file.
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	// Port on which /metrics is served. Zero disables the listener.
	Port uint16 `yaml:"port"`
}
