package entity

import "time"

// ResultRecord is the cached output payload for a job, stored separately from
// the status record under its own TTL so late pollers can still retrieve
// output after the status record has expired.
type ResultRecord struct {
	RequestID   string    `json:"request_id"`
	VideoID     string    `json:"video_id"`
	Model       string    `json:"model"`
	Transcript  string    `json:"transcript"`
	Insights    string    `json:"insights,omitempty"`
	Error       string    `json:"error,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Final reports whether the record carries the full output. A non-final
// record is either the mid-pipeline partial or the best-effort output of a
// partial_success job.
func (r *ResultRecord) Final() bool {
	return r.Insights != ""
}
