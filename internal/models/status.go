package models

import "time"

// ServiceMetrics is a lightweight snapshot of process metrics.
type ServiceMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Refreshes                uint64    `json:"refreshes"`
	RefreshFailures          uint64    `json:"refresh_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// RefreshStatus reports the state of the served dataset.
type RefreshStatus struct {
	Source        string     `json:"source"`
	FetchedAt     *time.Time `json:"fetched_at,omitempty"`
	LastRefreshAt *time.Time `json:"last_refresh_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	Buildings     int        `json:"buildings"`
	Rooms         int        `json:"rooms"`
	Term          string     `json:"term,omitempty"`
}
