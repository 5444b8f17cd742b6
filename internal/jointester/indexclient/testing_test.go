package indexclient

import (
	"time"

	"github.com/armadaproject/jointester/internal/jointester/model"
)

var testSource = model.SourceIdentity{DataSource: "4", DataSourceName: "JOINS", DataSourceType: "Custom"}

func testBody(id string) model.Record {
	return model.Record{
		ID:      id,
		Kind:    model.KindBody,
		Source:  testSource,
		TextAll: "alpha beta gamma",
		FewID:   "few_0001",
	}
}

func testInstance(id, joinID string) model.Record {
	return model.Record{
		ID:         id,
		Kind:       model.KindInstance,
		Source:     testSource,
		JoinID:     joinID,
		FewJoinID:  "few_0001",
		DateOne:    time.Date(2012, 3, 4, 5, 6, 7, 0, time.UTC),
		DateTwo:    time.Date(2013, 3, 4, 5, 6, 7, 0, time.UTC),
		Acl:        42,
		SourceCode: "WEB",
		Place:      model.LatLon{Lat: 51.5, Lon: -0.125},
	}
}

func testGroup(bodyID string, children int) []model.Record {
	records := []model.Record{testBody(bodyID)}
	for i := 0; i < children; i++ {
		records = append(records, testInstance(bodyID+"_child"+string(rune('a'+i)), bodyID))
	}
	return records
}

func testNested(bodyID string, children int) model.Record {
	group := testGroup(bodyID, children)
	body := group[0]
	body.Children = group[1:]
	return body
}
