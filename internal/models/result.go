package models

import "time"

// Status classifies a document's extraction outcome.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusPartial Status = "Partial"
	StatusFailed  Status = "Failed"
)

// EntityType tells whether a name belongs to a person or a business.
type EntityType string

const (
	EntityUnknown    EntityType = "unknown"
	EntityIndividual EntityType = "individual"
	EntityBusiness   EntityType = "business"
)

// ExtractionResult is what the pipeline found in one document's text.
// Empty strings mean "not found".
type ExtractionResult struct {
	AccountNumber string     `json:"accountNumber,omitempty"`
	AccountLine   string     `json:"accountLine,omitempty"`
	CustomerName  string     `json:"customerName,omitempty"`
	NameLine      string     `json:"nameLine,omitempty"`
	NameTier      string     `json:"nameTier,omitempty"`
	EntityType    EntityType `json:"entityType,omitempty"`
	HeaderLines   []string   `json:"headerLines"`
	CleanedLines  []string   `json:"cleanedLines"`
}

func (r ExtractionResult) HasName() bool    { return r.CustomerName != "" }
func (r ExtractionResult) HasAccount() bool { return r.AccountNumber != "" }

// Status is Success when both fields were found, Partial when exactly one
// was, and Failed otherwise.
func (r ExtractionResult) Status() Status {
	switch {
	case r.HasName() && r.HasAccount():
		return StatusSuccess
	case r.HasName() || r.HasAccount():
		return StatusPartial
	default:
		return StatusFailed
	}
}

// DocumentReport is one row of a batch report.
type DocumentReport struct {
	File     string           `json:"file"`
	Status   Status           `json:"status"`
	Result   ExtractionResult `json:"result"`
	Error    string           `json:"error,omitempty"`
	Method   string           `json:"method,omitempty"` // text extraction method that succeeded
	Duration time.Duration    `json:"duration"`
	Trace    *Trace           `json:"trace,omitempty"`
}

// BatchSummary counts outcomes across a batch.
type BatchSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Partial int `json:"partial"`
	Failed  int `json:"failed"`
}

// Add counts one document.
func (s *BatchSummary) Add(status Status) {
	s.Total++
	switch status {
	case StatusSuccess:
		s.Success++
	case StatusPartial:
		s.Partial++
	default:
		s.Failed++
	}
}

// SuccessRate is the percentage of documents with at least one field found.
func (s BatchSummary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success+s.Partial) / float64(s.Total) * 100
}

// BatchReport is the outcome of processing one input directory.
type BatchReport struct {
	RunID     string           `json:"runId"`
	Dir       string           `json:"dir"`
	StartedAt time.Time        `json:"startedAt"`
	Duration  time.Duration    `json:"duration"`
	Documents []DocumentReport `json:"documents"`
	Summary   BatchSummary     `json:"summary"`
}
