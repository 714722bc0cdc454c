package merge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeIdenticalListsSucceeds(t *testing.T) {
	base := json.RawMessage(`[{"id":"1","text":"a"},{"id":"2","text":"b"}]`)
	m := NewNodeListMerger("id")

	merged, ok := m.Merge(base, base, base)
	require.True(t, ok)

	var nodes []map[string]any
	require.NoError(t, json.Unmarshal(merged, &nodes))
	assert.Len(t, nodes, 2)
}

func TestMergeDisjointEditsSucceeds(t *testing.T) {
	base := json.RawMessage(`[{"id":"1","text":"a"},{"id":"2","text":"b"}]`)
	mine := json.RawMessage(`[{"id":"1","text":"a-mine"},{"id":"2","text":"b"}]`)
	theirs := json.RawMessage(`[{"id":"1","text":"a"},{"id":"2","text":"b-theirs"}]`)

	m := NewNodeListMerger("id")
	merged, ok := m.Merge(base, mine, theirs)
	require.True(t, ok)

	var nodes []map[string]any
	require.NoError(t, json.Unmarshal(merged, &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "a-mine", nodes[0]["text"])
	assert.Equal(t, "b-theirs", nodes[1]["text"])
}

func TestMergeConflictingEditsFails(t *testing.T) {
	base := json.RawMessage(`[{"id":"1","text":"a"}]`)
	mine := json.RawMessage(`[{"id":"1","text":"a-mine"}]`)
	theirs := json.RawMessage(`[{"id":"1","text":"a-theirs"}]`)

	m := NewNodeListMerger("id")
	_, ok := m.Merge(base, mine, theirs)
	assert.False(t, ok)
}

func TestMergeNonArrayStructureFails(t *testing.T) {
	base := json.RawMessage(`{"id":"1"}`)
	m := NewNodeListMerger("id")
	_, ok := m.Merge(base, base, base)
	assert.False(t, ok)
}

func TestMergeDeleteUntouchedOnOtherSideSucceeds(t *testing.T) {
	base := json.RawMessage(`[{"id":"1","text":"a"},{"id":"2","text":"b"}]`)
	mine := json.RawMessage(`[{"id":"2","text":"b"}]`)
	theirs := json.RawMessage(`[{"id":"1","text":"a"},{"id":"2","text":"b"}]`)

	m := NewNodeListMerger("id")
	merged, ok := m.Merge(base, mine, theirs)
	require.True(t, ok)

	var nodes []map[string]any
	require.NoError(t, json.Unmarshal(merged, &nodes))
	require.Len(t, nodes, 1)
	assert.Equal(t, "2", nodes[0]["id"])
}

func TestMergeDeleteVsEditFails(t *testing.T) {
	base := json.RawMessage(`[{"id":"1","text":"a"}]`)
	mine := json.RawMessage(`[{"id":"1","text":"a-mine"}]`)
	theirs := json.RawMessage(`[]`)

	m := NewNodeListMerger("id")
	_, ok := m.Merge(base, mine, theirs)
	assert.False(t, ok)
}

func TestMergeEditVsDeleteFails(t *testing.T) {
	base := json.RawMessage(`[{"id":"1","text":"a"}]`)
	mine := json.RawMessage(`[]`)
	theirs := json.RawMessage(`[{"id":"1","text":"a-theirs"}]`)

	m := NewNodeListMerger("id")
	_, ok := m.Merge(base, mine, theirs)
	assert.False(t, ok)
}

func TestMergeAddedOnBothSidesSucceeds(t *testing.T) {
	base := json.RawMessage(`[]`)
	mine := json.RawMessage(`[{"id":"1","text":"new-mine"}]`)
	theirs := json.RawMessage(`[{"id":"2","text":"new-theirs"}]`)

	m := NewNodeListMerger("id")
	merged, ok := m.Merge(base, mine, theirs)
	require.True(t, ok)

	var nodes []map[string]any
	require.NoError(t, json.Unmarshal(merged, &nodes))
	assert.Len(t, nodes, 2)
}
