package domain

import "fmt"

// MetricsSummary is the headline counters block of the dashboard snapshot.
type MetricsSummary struct {
	TotalDocs     float64 `json:"totalDocs"`
	TotalQueries  float64 `json:"totalQueries"`
	AvgLatencyMs  float64 `json:"avgLatencyMs"`
	LastIndexedAt string  `json:"lastIndexedAt,omitempty"`
}

// MetricsTimeseriesPoint is one day of query activity.
type MetricsTimeseriesPoint struct {
	Date         string   `json:"date"`
	Queries      float64  `json:"queries"`
	AvgLatencyMs float64  `json:"avgLatencyMs"`
	Tokens       *float64 `json:"tokens,omitempty"`
}

// MetricsResponse is a read-only snapshot reported by the upstream engine.
type MetricsResponse struct {
	Summary    MetricsSummary           `json:"summary"`
	Timeseries []MetricsTimeseriesPoint `json:"timeseries"`
}

// Validate checks the metrics shape. Numeric dashboards fail closed on
// mismatch, so every counter must be present and non-negative.
func (m *MetricsResponse) Validate() error {
	if m.Summary.TotalDocs < 0 || m.Summary.TotalQueries < 0 || m.Summary.AvgLatencyMs < 0 {
		return fmt.Errorf("metrics: negative summary counter")
	}
	if m.Timeseries == nil {
		return fmt.Errorf("metrics: missing timeseries")
	}
	for _, p := range m.Timeseries {
		if p.Date == "" {
			return fmt.Errorf("metrics: timeseries point missing date")
		}
		if p.Queries < 0 || p.AvgLatencyMs < 0 {
			return fmt.Errorf("metrics: negative timeseries counter on %s", p.Date)
		}
		if p.Tokens != nil && *p.Tokens < 0 {
			return fmt.Errorf("metrics: negative token count on %s", p.Date)
		}
	}
	return nil
}

// RetrievalItem is one indexed passage listed on the retrieval page.
type RetrievalItem struct {
	ID            string         `json:"id"`
	Score         float64        `json:"score"`
	DocumentTitle string         `json:"documentTitle,omitempty"`
	DocumentURI   string         `json:"documentUri,omitempty"`
	Snippet       string         `json:"snippet"`
	Collection    string         `json:"collection,omitempty"`
	CreatedAt     string         `json:"createdAt,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// RetrievalResponse lists the currently indexed passages.
type RetrievalResponse struct {
	Items []RetrievalItem `json:"items"`
}

// Validate checks the retrieval listing shape.
func (r *RetrievalResponse) Validate() error {
	if r.Items == nil {
		return fmt.Errorf("retrieval: missing items")
	}
	for _, item := range r.Items {
		if item.ID == "" {
			return fmt.Errorf("retrieval: item missing id")
		}
		if item.Score < 0 || item.Score > 1 {
			return fmt.Errorf("retrieval: item %s score %v out of range [0,1]", item.ID, item.Score)
		}
	}
	return nil
}
