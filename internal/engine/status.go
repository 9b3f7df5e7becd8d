package engine

import "time"

type Status string

const (
	NotStarted Status = "not_started"
	Running    Status = "running"
	Completed  Status = "completed"
	Failed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

// StatusInfo describes the current or most recent run.
type StatusInfo struct {
	RunID  string `json:"run_id,omitempty"`
	Status Status `json:"status"`
	// Err is set when the run ended Failed.
	Err string `json:"error,omitempty"`
	// Halted is set when a run was stopped before exhausting its series.
	Halted     bool      `json:"halted,omitempty"`
	Start      int       `json:"start"`
	Cursor     int       `json:"cursor"`
	Total      int       `json:"total"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

func (s StatusInfo) Processed() int {
	if s.Cursor < s.Start {
		return 0
	}
	return s.Cursor - s.Start
}

func (s StatusInfo) Ticks() int {
	if s.Total < s.Start {
		return 0
	}
	return s.Total - s.Start
}
