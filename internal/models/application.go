// internal/models/application.go
package models

import "time"

// Application is a worker's bid on a task. A worker has at most one
// application per task; the pair (task_id, user_id) is unique in storage.
type Application struct {
	TaskID    string    `json:"task_id,omitempty"`
	UserID    string    `json:"user_id"`
	BidPrice  float64   `json:"bid_price"`
	Username  string    `json:"username,omitempty"` // joined, not stored
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Bid is a worker's application joined with the task it targets, as
// served by the "my bids" view.
type Bid struct {
	BidPrice float64 `json:"bid_price"`
	Task     Task    `json:"task"`
}
