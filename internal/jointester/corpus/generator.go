package corpus

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/jointester/internal/jointester/attributes"
	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/model"
)

// Generator builds parent groups: one body record followed by its instance records. It does no I/O; the caller
// decides what to do with each group.
type Generator struct {
	config configuration.CorpusConfig
	attrs  attributes.Generator
	source model.SourceIdentity
	text   strings.Builder
}

func NewGenerator(config configuration.CorpusConfig, attrs attributes.Generator) *Generator {
	return &Generator{
		config: config,
		attrs:  attrs,
		source: model.SourceIdentity{
			DataSource:     config.DataSource,
			DataSourceName: config.DataSourceName,
			DataSourceType: config.DataSourceType,
		},
	}
}

// NextParentGroup generates a body record and its instance records. Every instance carries the body's id as
// join_id and the body's few_id as few_join_id. Ids are drawn from runCtx in generation order.
func (g *Generator) NextParentGroup(runCtx *model.RunContext) (model.Record, []model.Record, error) {
	body, err := g.bodyRecord(runCtx)
	if err != nil {
		return model.Record{}, nil, err
	}

	instances := make([]model.Record, 0, g.config.ChildrenPerParent)
	for i := 0; i < g.config.ChildrenPerParent; i++ {
		instance, err := g.instanceRecord(runCtx, body.ID, body.FewID)
		if err != nil {
			return model.Record{}, nil, err
		}
		instances = append(instances, instance)
	}
	return body, instances, nil
}

// Arrange lays a parent group out for indexing. In flat mode the body is followed by its instances; in nested
// mode the instances become children of the body.
func Arrange(mode configuration.ChildMode, body model.Record, instances []model.Record) []model.Record {
	if mode == configuration.ChildModeNested {
		body.Children = instances
		return []model.Record{body}
	}
	group := make([]model.Record, 0, 1+len(instances))
	group = append(group, body)
	return append(group, instances...)
}

func (g *Generator) bodyRecord(runCtx *model.RunContext) (model.Record, error) {
	text, err := g.textBlob()
	if err != nil {
		return model.Record{}, err
	}
	record, err := g.minimalRecord(runCtx, model.KindBody)
	if err != nil {
		return model.Record{}, err
	}
	fewID, err := g.attrs.GroupKey()
	if err != nil {
		return model.Record{}, errors.Wrap(err, "generating few_id")
	}
	record.TextAll = text
	record.FewID = fewID
	return record, nil
}

func (g *Generator) instanceRecord(runCtx *model.RunContext, joinID, fewID string) (model.Record, error) {
	record, err := g.minimalRecord(runCtx, model.KindInstance)
	if err != nil {
		return model.Record{}, err
	}
	record.JoinID = joinID
	record.FewJoinID = fewID

	if record.DateOne, err = g.attrs.Date(); err != nil {
		return model.Record{}, errors.Wrap(err, "generating date_one")
	}
	if record.Acl, err = g.attrs.BoundedInt(g.config.Attributes.AclMax); err != nil {
		return model.Record{}, errors.Wrap(err, "generating acl")
	}
	if record.DateTwo, err = g.attrs.Date(); err != nil {
		return model.Record{}, errors.Wrap(err, "generating date_two")
	}
	if record.SourceCode, err = g.attrs.SourceCode(); err != nil {
		return model.Record{}, errors.Wrap(err, "generating source")
	}
	if record.Place, err = g.attrs.LatLon(); err != nil {
		return model.Record{}, errors.Wrap(err, "generating place")
	}
	return record, nil
}

// minimalRecord fills the fields every record has: the id and the source identity.
func (g *Generator) minimalRecord(runCtx *model.RunContext, kind model.Kind) (model.Record, error) {
	word, err := g.attrs.CommonWord()
	if err != nil {
		return model.Record{}, errors.Wrap(err, "generating id")
	}
	return model.Record{
		ID:     word + "_" + strconv.FormatInt(runCtx.NextID(), 10),
		Kind:   kind,
		Source: g.source,
	}, nil
}

// textBlob draws words in ratio groups of common then English words until at least WordsPerBody words have
// been drawn. The count is only checked between groups, so the blob can overshoot by up to a group less one.
func (g *Generator) textBlob() (string, error) {
	if g.config.RatioGroupSize() <= 0 {
		return "", errors.Errorf("word ratio group is empty (common %d, english %d)", g.config.CommonWordRatio, g.config.EnglishWordRatio)
	}
	g.text.Reset()
	separator := g.attrs.Separator()
	wordCount := 0
	appendWord := func(word string) {
		if wordCount > 0 {
			g.text.WriteString(separator)
		}
		g.text.WriteString(word)
		wordCount++
	}

	for wordCount < g.config.WordsPerBody {
		for i := 0; i < g.config.CommonWordRatio; i++ {
			word, err := g.attrs.CommonWord()
			if err != nil {
				return "", errors.Wrap(err, "generating common word")
			}
			appendWord(word)
		}
		for i := 0; i < g.config.EnglishWordRatio; i++ {
			word, err := g.attrs.EnglishWord()
			if err != nil {
				return "", errors.Wrap(err, "generating english word")
			}
			appendWord(word)
		}
	}
	return g.text.String(), nil
}
