package apiclient

// NamespaceStats mirrors cachemgr.NamespaceStats.
type NamespaceStats struct {
	Namespace   string  `json:"namespace"`
	ByteSize    int64   `json:"byteSize"`
	BudgetBytes int64   `json:"budgetBytes"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hitRate"`
}

// CacheStats fetches per-namespace cache occupancy and hit rate.
func (c *Client) CacheStats() ([]NamespaceStats, error) {
	var stats []NamespaceStats
	if err := c.get("/cache/stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
