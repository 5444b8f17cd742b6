package batch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/jointester/internal/jointester/model"
)

func group(parent, children int) []model.Record {
	records := []model.Record{{ID: fmt.Sprintf("body_%d", parent), Kind: model.KindBody}}
	for i := 0; i < children; i++ {
		records = append(records, model.Record{ID: fmt.Sprintf("instance_%d_%d", parent, i), Kind: model.KindInstance})
	}
	return records
}

func TestAccumulator_FlushThreshold(t *testing.T) {
	acc := NewAccumulator(5, 3)

	acc.Append(group(1, 2)...)
	assert.Equal(t, 3, acc.Len())
	_, flushed := acc.TryFlush()
	assert.False(t, flushed)

	acc.Append(group(2, 2)...)
	assert.Equal(t, 6, acc.Len())
	b, flushed := acc.TryFlush()
	require.True(t, flushed)
	assert.Equal(t, 6, b.Size)
	assert.Len(t, b.Records, 6)
	assert.Equal(t, 0, acc.Len())

	acc.Append(group(3, 2)...)
	_, flushed = acc.TryFlush()
	assert.False(t, flushed)

	rest, drained := acc.Drain()
	require.True(t, drained)
	assert.Equal(t, 3, rest.Size)
	assert.Equal(t, "body_3", rest.Records[0].ID)

	_, drained = acc.Drain()
	assert.False(t, drained)
}

func TestAccumulator_FlushAtExactThreshold(t *testing.T) {
	acc := NewAccumulator(6, 3)
	acc.Append(group(1, 2)...)
	acc.Append(group(2, 2)...)
	b, flushed := acc.TryFlush()
	require.True(t, flushed)
	assert.Equal(t, 6, b.Size)
}

func TestAccumulator_FlushedBatchIsNotAliased(t *testing.T) {
	acc := NewAccumulator(1, 1)
	acc.Append(group(1, 0)...)
	first, flushed := acc.TryFlush()
	require.True(t, flushed)

	acc.Append(group(2, 0)...)
	second, flushed := acc.TryFlush()
	require.True(t, flushed)

	assert.Equal(t, "body_1", first.Records[0].ID)
	assert.Equal(t, "body_2", second.Records[0].ID)
}

func TestAccumulator_CountsNestedChildren(t *testing.T) {
	acc := NewAccumulator(5, 3)
	nested := model.Record{ID: "body", Kind: model.KindBody, Children: group(0, 2)[1:]}

	acc.Append(nested)
	assert.Equal(t, 3, acc.Len())
	_, flushed := acc.TryFlush()
	assert.False(t, flushed)

	acc.Append(nested)
	b, flushed := acc.TryFlush()
	require.True(t, flushed)
	assert.Len(t, b.Records, 2)
	assert.Equal(t, 6, b.Size)
}
