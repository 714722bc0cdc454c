package apiclient

import "fmt"

// Operation mirrors replayqueue.Operation's wire shape, kept independent of
// the server package so offlinectl does not import server-side code.
type Operation struct {
	ID             string            `json:"id"`
	AuthScope      string            `json:"authScope"`
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           string            `json:"body,omitempty"`
	IdempotencyKey string            `json:"idempotencyKey"`
	Status         string            `json:"status"`
	Attempts       int               `json:"attempts"`
	EnqueuedAt     string            `json:"enqueuedAt"`
	NextAttemptAt  string            `json:"nextAttemptAt"`
	LastError      string            `json:"lastError,omitempty"`
}

// QueueStats mirrors replayqueue.Stats.
type QueueStats struct {
	Counts map[string]int `json:"counts"`
}

// ListQueue fetches queued operations, optionally filtered by status.
func (c *Client) ListQueue(status string) ([]Operation, error) {
	path := "/queue"
	if status != "" {
		path += "?status=" + status
	}
	var ops []Operation
	if err := c.get(path, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

// QueueStats fetches per-status operation counts.
func (c *Client) QueueStats() (QueueStats, error) {
	var stats QueueStats
	if err := c.get("/queue/stats", &stats); err != nil {
		return QueueStats{}, err
	}
	return stats, nil
}

// RequeueOperation moves a dead-lettered or conflicted operation back to
// pending for another drain attempt.
func (c *Client) RequeueOperation(id string) error {
	return c.post(fmt.Sprintf("/queue/%s/requeue", pathEscape(id)), nil, nil)
}

// DiscardOperation permanently drops a queued operation.
func (c *Client) DiscardOperation(id string) error {
	return c.post(fmt.Sprintf("/queue/%s/discard", pathEscape(id)), nil, nil)
}
