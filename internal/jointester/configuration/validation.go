package configuration

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// Validate checks field constraints declared in struct tags and then the rules that span several fields.
// Field errors are returned as validator.ValidationErrors so callers can report them one by one.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if err := c.Corpus.validate(); err != nil {
		return err
	}
	if err := c.IndexClient.validate(); err != nil {
		return err
	}
	return nil
}

func (c CorpusConfig) validate() error {
	if c.RatioGroupSize() <= 0 {
		return fmt.Errorf("corpus.commonWordRatio + corpus.englishWordRatio must be positive")
	}
	earliest, err := c.Attributes.Earliest()
	if err != nil {
		return err
	}
	latest, err := c.Attributes.Latest()
	if err != nil {
		return err
	}
	if latest.Before(earliest) {
		return fmt.Errorf("corpus.attributes.latestDate %s is before earliestDate %s", c.Attributes.LatestDate, c.Attributes.EarliestDate)
	}
	return nil
}

func (c IndexClientConfig) validate() error {
	switch c.Backend {
	case BackendSolr:
		if c.Solr.URL == "" {
			return fmt.Errorf("indexClient.solr.url must be set for the solr backend")
		}
		if c.Solr.Collection == "" {
			return fmt.Errorf("indexClient.solr.collection must be set for the solr backend")
		}
	case BackendPostgres:
		if len(c.Postgres.Connection) == 0 {
			return fmt.Errorf("indexClient.postgres.connection must be set for the postgres backend")
		}
	case BackendFile:
		if c.File.Path == "" {
			return fmt.Errorf("indexClient.file.path must be set for the file backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown index client backend %q", c.Backend)
	}
	return nil
}

func (c AttributesConfig) Earliest() (time.Time, error) {
	return parseDate("earliestDate", c.EarliestDate)
}

func (c AttributesConfig) Latest() (time.Time, error) {
	return parseDate("latestDate", c.LatestDate)
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("corpus.attributes.%s: %w", field, err)
	}
	return t, nil
}
