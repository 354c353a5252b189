package constants

// RunStatus is the canonical status for rows in parse_history.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusSuccess   RunStatus = "SUCCESS"   // every block produced a record
	RunStatusFailed    RunStatus = "FAILED"    // terminal failure, error_message set
	RunStatusDuplicate RunStatus = "DUPLICATE" // same content hash already processed
)
