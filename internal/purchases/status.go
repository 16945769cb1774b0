package purchases

// Remote order statuses are free-form strings; these are the values the
// system recognizes. Anything not terminal stays in the reconciliation queue.
const (
	StatusNew        = "new"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}
