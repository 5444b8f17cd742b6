package model

import (
	"strconv"
	"time"
)

// Kind distinguishes parent records from their children.
type Kind string

const (
	KindBody     Kind = "body"
	KindInstance Kind = "instance"
)

// Field names as they appear in the index.
const (
	FieldID             = "id"
	FieldKind           = "kind"
	FieldDataSource     = "data_source"
	FieldDataSourceName = "data_source_name"
	FieldDataSourceType = "data_source_type"
	FieldTextAll        = "text_all"
	FieldFewID          = "few_id"
	FieldJoinID         = "join_id"
	FieldFewJoinID      = "few_join_id"
	FieldDateOne        = "date_one"
	FieldDateTwo        = "date_two"
	FieldAcl            = "acl"
	FieldSource         = "source"
	FieldPlace          = "place"
)

// SourceIdentity is the constant triple identifying the synthetic feed.
type SourceIdentity struct {
	DataSource     string
	DataSourceName string
	DataSourceType string
}

// LatLon is a coordinate pair.
type LatLon struct {
	Lat float64
	Lon float64
}

// String renders the pair the way Solr's LatLon field types expect it.
func (l LatLon) String() string {
	return strconv.FormatFloat(l.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(l.Lon, 'f', 6, 64)
}

// Record is a single indexed document. Body records set TextAll and FewID; instance records set the join and
// attribute fields. Children is only populated for body records in nested child mode.
type Record struct {
	ID     string
	Kind   Kind
	Source SourceIdentity

	TextAll string
	FewID   string

	JoinID     string
	FewJoinID  string
	DateOne    time.Time
	DateTwo    time.Time
	Acl        int
	SourceCode string
	Place      LatLon

	Children []Record
}

// Size is the number of documents the record accounts for, itself plus any nested children.
func (r Record) Size() int {
	return 1 + len(r.Children)
}

// Fields returns the record as an index document. Child records are not included.
func (r Record) Fields() map[string]any {
	fields := map[string]any{
		FieldID:             r.ID,
		FieldKind:           string(r.Kind),
		FieldDataSource:     r.Source.DataSource,
		FieldDataSourceName: r.Source.DataSourceName,
		FieldDataSourceType: r.Source.DataSourceType,
	}
	switch r.Kind {
	case KindBody:
		fields[FieldTextAll] = r.TextAll
		fields[FieldFewID] = r.FewID
	case KindInstance:
		fields[FieldJoinID] = r.JoinID
		fields[FieldFewJoinID] = r.FewJoinID
		fields[FieldDateOne] = FormatDate(r.DateOne)
		fields[FieldDateTwo] = FormatDate(r.DateTwo)
		fields[FieldAcl] = r.Acl
		fields[FieldSource] = r.SourceCode
		fields[FieldPlace] = r.Place.String()
	}
	return fields
}

// FormatDate renders t in UTC with a trailing Z, the format Solr accepts for date fields.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// CountRecords returns the total number of documents in records, including nested children.
func CountRecords(records []Record) int {
	total := 0
	for _, r := range records {
		total += r.Size()
	}
	return total
}
