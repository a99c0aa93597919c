package domain

import "time"

// SyncRun is one processing of a bank file, as kept in the run log.
type SyncRun struct {
	ID           int64      `json:"id"`
	Key          string     `json:"key"`
	SourceFile   string     `json:"source_file"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	TotalRecords int        `json:"total_records"`
	Created      int        `json:"created"`
	Updated      int        `json:"updated"`
	Removed      int        `json:"removed"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Config       []byte     `json:"-"`
}

const (
	RunStatusRunning = "processando"
	RunStatusDone    = "concluido"
	RunStatusFailed  = "erro"
)

// SyncStats counts what a run did against the CRM.
type SyncStats struct {
	TotalDebtors   int      `json:"total_debtors"`
	PersonsCreated int      `json:"persons_created"`
	PersonsUpdated int      `json:"persons_updated"`
	DealsCreated   int      `json:"deals_created"`
	DealsUpdated   int      `json:"deals_updated"`
	DealsMoved     int      `json:"deals_moved"`
	DealsReopened  int      `json:"deals_reopened"`
	DealsLost      int      `json:"deals_lost"`
	JudicialKept   int      `json:"judicial_kept"`
	ExceptionKept  int      `json:"exception_kept"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors,omitempty"`
}
