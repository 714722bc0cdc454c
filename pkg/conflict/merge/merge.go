// Package merge implements the pluggable three-way merge used by the
// conflict resolution engine's "merge" action.
package merge

import "encoding/json"

// Merger computes a three-way merge of a structured document value. It
// returns ok=false when the structures have diverged too far to merge
// automatically, in which case the caller disables the merge option and
// falls back to a manual choice between keep_mine and use_theirs.
type Merger interface {
	Merge(base, mine, theirs json.RawMessage) (merged json.RawMessage, ok bool)
}

// NodeListMerger performs an ordered-node-list merge keyed by an identity
// field present on every element of a top-level JSON array. Each side's
// list is diffed against base by identity: elements unchanged from base
// are taken as-is, elements changed on exactly one side take that side's
// version, and elements changed on both sides (a true conflict) cause the
// merge to fail.
type NodeListMerger struct {
	IdentityField string
}

// NewNodeListMerger constructs a NodeListMerger keyed by identityField
// (e.g. "id").
func NewNodeListMerger(identityField string) *NodeListMerger {
	return &NodeListMerger{IdentityField: identityField}
}

func (m *NodeListMerger) Merge(base, mine, theirs json.RawMessage) (json.RawMessage, bool) {
	baseNodes, ok := m.decodeList(base)
	if !ok {
		return nil, false
	}
	mineNodes, ok := m.decodeList(mine)
	if !ok {
		return nil, false
	}
	theirNodes, ok := m.decodeList(theirs)
	if !ok {
		return nil, false
	}

	baseByID := indexByIdentity(baseNodes, m.IdentityField)
	mineByID := indexByIdentity(mineNodes, m.IdentityField)
	theirByID := indexByIdentity(theirNodes, m.IdentityField)

	ids := orderedUnion(baseNodes, mineNodes, theirNodes, m.IdentityField)

	result := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		b, hasBase := baseByID[id]
		mv, hasMine := mineByID[id]
		tv, hasTheirs := theirByID[id]

		switch {
		case !hasMine && !hasTheirs:
			continue // deleted on both sides
		case hasMine && !hasTheirs && hasBase:
			if !equalNodes(b, mv) {
				return nil, false // deleted on theirs, edited on mine: true conflict
			}
			continue // deleted on theirs, untouched on mine -> honor deletion
		case !hasMine && hasTheirs && hasBase:
			if !equalNodes(b, tv) {
				return nil, false // deleted on mine, edited on theirs: true conflict
			}
			continue // deleted on mine, untouched on theirs -> honor deletion
		case hasMine && !hasBase && !hasTheirs:
			result = append(result, mv) // added on mine only
		case hasTheirs && !hasBase && !hasMine:
			result = append(result, tv) // added on theirs only
		case equalNodes(mv, tv):
			result = append(result, mv) // identical change or untouched
		case equalNodes(b, mv):
			result = append(result, tv) // only theirs changed it
		case equalNodes(b, tv):
			result = append(result, mv) // only mine changed it
		default:
			return nil, false // both sides changed the same node differently: true conflict
		}
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, false
	}
	return encoded, true
}

func (m *NodeListMerger) decodeList(raw json.RawMessage) ([]map[string]any, bool) {
	if len(raw) == 0 {
		return nil, true
	}
	var nodes []map[string]any
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, false
	}
	for _, n := range nodes {
		if _, ok := n[m.IdentityField]; !ok {
			return nil, false
		}
	}
	return nodes, true
}

func indexByIdentity(nodes []map[string]any, field string) map[string]map[string]any {
	idx := make(map[string]map[string]any, len(nodes))
	for _, n := range nodes {
		id := identityOf(n, field)
		idx[id] = n
	}
	return idx
}

func identityOf(node map[string]any, field string) string {
	v, _ := node[field].(string)
	if v == "" {
		encoded, _ := json.Marshal(node[field])
		return string(encoded)
	}
	return v
}

// orderedUnion preserves base's ordering, appending any identities added
// only by mine or theirs in the order each list introduces them.
func orderedUnion(base, mine, theirs []map[string]any, field string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, list := range [][]map[string]any{base, mine, theirs} {
		for _, n := range list {
			id := identityOf(n, field)
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func equalNodes(a, b map[string]any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ea, err1 := json.Marshal(a)
	eb, err2 := json.Marshal(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(ea) == string(eb)
}
