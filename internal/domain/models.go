package domain

import "time"

// DatetimeLayout renders iteration start times with millisecond precision.
const DatetimeLayout = "2006/01/02 15:04:05,000"

// Record is one persisted probe outcome, labelled with the iteration that
// produced it. Times are milliseconds.
type Record struct {
	RunID         string    `json:"run_id"`
	Iteration     int       `json:"iter_number"`
	StartedAt     time.Time `json:"datetime"`
	TransactionID string    `json:"transaction_id"`
	Server        string    `json:"server"`
	HTTPRequest   string    `json:"http_request"`
	TCPSuccess    bool      `json:"tcp_success"`
	TCPTimeMS     float64   `json:"tcp_time_ms"`
	HTTPTimeMS    float64   `json:"http_time_ms"`
	TotalTimeMS   float64   `json:"total_time_ms"`
	PageSize      int       `json:"pagesize"`
	IsSuccess     bool      `json:"is_success"`
}

// Datetime formats StartedAt the way the CSV output expects it.
func (r Record) Datetime() string {
	return r.StartedAt.Format(DatetimeLayout)
}
