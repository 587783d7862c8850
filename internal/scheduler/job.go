package scheduler

import (
	"context"
	"time"
)

// Job is one schedulable unit of work
type Job interface {
	Name() string
	Run(ctx context.Context) error

	// Schedule returns the standard 5-field cron expression,
	// e.g. "10 16 * * MON-FRI".
	Schedule() string
}

// JobResult records one execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the most recent executions of one job
type JobHistory struct {
	Results []JobResult
}

const historyLimit = 100

// AddResult appends a result, trimming to the retention limit
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// Latest returns the most recent result, if any
func (h *JobHistory) Latest() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// SuccessRate returns the fraction of successful runs in the window
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	success := 0
	for _, r := range h.Results {
		if r.Success {
			success++
		}
	}
	return float64(success) / float64(len(h.Results))
}
