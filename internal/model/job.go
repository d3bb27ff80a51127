package model

import "time"

// JobStatus is the lifecycle stage of a translation job.
type JobStatus string

const (
	StatusPending     JobStatus = "pending"
	StatusExtracting  JobStatus = "extracting"
	StatusTranslating JobStatus = "translating"
	StatusRebuilding  JobStatus = "rebuilding"
	StatusCompleted   JobStatus = "completed"
	StatusError       JobStatus = "error"
	StatusCancelled   JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is a valid
// forward step. The pipeline only ever moves forward; error and
// cancelled are reachable from any active stage.
func (s JobStatus) CanTransition(next JobStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusError || next == StatusCancelled {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusExtracting
	case StatusExtracting:
		return next == StatusTranslating
	case StatusTranslating:
		return next == StatusRebuilding
	case StatusRebuilding:
		return next == StatusCompleted
	default:
		return false
	}
}

// Job is a single deck translation request and its pipeline state.
type Job struct {
	ID            int64
	FileName      string
	SourcePath    string
	SourceLang    string
	TargetLangs   []string
	Status        JobStatus
	Progress      int
	ErrorMessage  *string
	SpreadsheetID *string
	Results       []TranslationResult
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiresAt     time.Time
}

// Result kinds. Pipeline results come from the automatic translation
// run; import results come from an uploaded review sheet.
const (
	ResultKindPipeline = "pipeline"
	ResultKindImport   = "import"
)

// TranslationResult is one translated deck produced by a job.
type TranslationResult struct {
	ID        int64
	JobID     int64
	Language  string
	FileName  string
	FileID    string
	Path      string
	Size      int64
	Kind      string
	CreatedAt time.Time
}

// TranslationMap holds imported translations keyed by slide number,
// then by language code.
type TranslationMap map[int]map[string]string
