package apiclient

import (
	"encoding/json"
	"fmt"
)

// ConflictRecord mirrors conflict.ConflictRecord's wire shape.
type ConflictRecord struct {
	ID             string          `json:"id"`
	OperationID    string          `json:"operationId"`
	AuthScope      string          `json:"authScope"`
	CanonicalURL   string          `json:"canonicalUrl"`
	Base           json.RawMessage `json:"base"`
	Mine           json.RawMessage `json:"mine"`
	Theirs         json.RawMessage `json:"theirs"`
	Status         string          `json:"status"`
	MergeAvailable bool            `json:"mergeAvailable"`
	CreatedAt      string          `json:"createdAt"`
	DeadlineAt     string          `json:"deadlineAt"`
	TimeoutCount   int             `json:"timeoutCount"`
	ResolvedAction string          `json:"resolvedAction,omitempty"`
	ResolvedAt     string          `json:"resolvedAt,omitempty"`
}

// ListConflicts fetches conflicts in the given status, defaulting to
// awaiting_user on the server side when status is empty.
func (c *Client) ListConflicts(status string) ([]ConflictRecord, error) {
	path := "/conflicts"
	if status != "" {
		path += "?status=" + status
	}
	var records []ConflictRecord
	if err := c.get(path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

type resolveRequest struct {
	Choice      string          `json:"choice"`
	MergedValue json.RawMessage `json:"mergedValue,omitempty"`
}

// ResolveConflict submits the operator's choice for a conflict awaiting
// resolution: keep_mine, use_theirs, merge, or force_save.
func (c *Client) ResolveConflict(id, choice string) error {
	return c.post(fmt.Sprintf("/conflicts/%s/resolve", pathEscape(id)), resolveRequest{Choice: choice}, nil)
}
