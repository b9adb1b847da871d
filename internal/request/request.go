package request

// SchedulerRequest represents the JSON body for retention scheduler control.
type SchedulerRequest struct {
	// Action controls the scheduler. Allowed values:
	// - "start": start pruning the dispatch journal
	// - "stop":  stop pruning
	Action string `json:"action"`
}

// SendRequest is the JSON body of POST /sms.
type SendRequest struct {
	Content      string   `json:"content" example:"hello"`
	Destinations []string `json:"destinations" example:"+995555000001,+995555000002"`
}

// IdempotencyHeader carries an optional client-chosen key for POST /sms.
const IdempotencyHeader = "Idempotency-Key"
