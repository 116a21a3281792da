package models

// IngestionReport summarizes one polling pass. Per-item failures are counted
// here, never propagated.
type IngestionReport struct {
	Seen             int
	Created          int
	AlreadyProcessed int
	PushesCreated    int
	Errors           int
	ETag             string
	NotModified      bool
}
