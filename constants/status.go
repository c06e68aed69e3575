package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning   JobStatus = "RUNNING"   // in progress
	JobStatusSucceeded JobStatus = "SUCCEEDED" // records extracted
	JobStatusEmpty     JobStatus = "EMPTY"     // parsed, but no qualifying rows
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)
