package apiclient

// ReadinessStatus mirrors handlers.ReadinessStatus.
type ReadinessStatus struct {
	DetectorAttached bool   `json:"detectorAttached"`
	NetworkQuality   string `json:"networkQuality,omitempty"`
	BreakerState     string `json:"breakerState,omitempty"`
	QueueDepth       int    `json:"queueDepth"`
}

// Readiness fetches the daemon's readiness status.
func (c *Client) Readiness() (ReadinessStatus, error) {
	var status ReadinessStatus
	if err := c.get("/readyz", &status); err != nil {
		return ReadinessStatus{}, err
	}
	return status, nil
}
