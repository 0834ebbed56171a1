package usecase

import "sync/atomic"

// stats holds the in-process dispatch counters. Nothing is persisted:
// predictions are stateless per request, so these reset with the process.
type stats struct {
	received atomic.Int64
	images   atomic.Int64
	replies  atomic.Int64
	failures atomic.Int64
}

// MetricsSummary is a point-in-time snapshot of the dispatch counters.
type MetricsSummary struct {
	EventsReceived   int64 `json:"events_received"`
	ImageEvents      int64 `json:"image_events"`
	RepliesDelivered int64 `json:"replies_delivered"`
	Failures         int64 `json:"failures"`
}

// GetMetricsSummary snapshots the counters for the health endpoint.
func (d *Dispatcher) GetMetricsSummary() MetricsSummary {
	return MetricsSummary{
		EventsReceived:   d.stats.received.Load(),
		ImageEvents:      d.stats.images.Load(),
		RepliesDelivered: d.stats.replies.Load(),
		Failures:         d.stats.failures.Load(),
	}
}
