package api

import "time"

// DashboardEvent is the wrapper for everything pushed over the
// websocket. Code is empty for global events like job boundaries.
type DashboardEvent struct {
	Type      string    `json:"type"` // "status", "order", "job"
	Timestamp time.Time `json:"timestamp"`
	Code      string    `json:"code,omitempty"`
	Data      any       `json:"data"`
}

// OrderEvent is pushed when the trader's order is accepted.
type OrderEvent struct {
	Code    string `json:"code"`
	Type    string `json:"type"` // "B" or "SS"
	Qty     int    `json:"qty"`
	Price   int    `json:"price"`
	OrderNo string `json:"order_no"`
}

// JobEvent marks a scheduled job boundary.
type JobEvent struct {
	Job   string `json:"job"`
	Phase string `json:"phase"` // "started", "finished", "failed"
	Error string `json:"error,omitempty"`
}
