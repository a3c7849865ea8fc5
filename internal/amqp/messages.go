package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fooddiary/internal/core"
)

// ExportRequestedMessage announces a queued export job. It carries the job
// reference and its range; the worker loads everything else from the database.
type ExportRequestedMessage struct {
	JobID     string    `json:"jobId"`
	StartDate core.Date `json:"startDate"`
	EndDate   core.Date `json:"endDate"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExportRequestedMessage(job core.ExportJob) *ExportRequestedMessage {
	return &ExportRequestedMessage{
		JobID:     job.ID,
		StartDate: job.Range.Start,
		EndDate:   job.Range.End,
		Timestamp: time.Now(),
	}
}

// Range returns the requested date range.
func (m *ExportRequestedMessage) Range() core.DateRange {
	return core.DateRange{Start: m.StartDate, End: m.EndDate}
}

func (m *ExportRequestedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestedMessageFromJSON decodes a message and rejects one without a job id.
func ExportRequestedMessageFromJSON(data []byte) (*ExportRequestedMessage, error) {
	var msg ExportRequestedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.JobID == "" {
		return nil, fmt.Errorf("export request without job id")
	}
	return &msg, nil
}
