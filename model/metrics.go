// api/model/metrics.go
package model

// AttendanceMetrics is the per-student, per-term attendance summary read from
// the ledger. Slow-changing, so reads go through the read cache.
type AttendanceMetrics struct {
	Present int     `json:"present"`
	Total   int     `json:"total"`
	Rate    float64 `json:"rate"`
}

// ProgressReport summarizes milestone completion for a student in a term.
type ProgressReport struct {
	CompletedMilestones int `json:"completedMilestones"`
	TotalMilestones     int `json:"totalMilestones"`
}
