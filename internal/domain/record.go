package domain

import "time"

// DispatchRecord is the audit event emitted for every handled request.
type DispatchRecord struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	SessionID   string    `json:"session_id,omitempty"`
	RequestType string    `json:"request_type"`
	IntentName  string    `json:"intent_name,omitempty"`
	Kind        string    `json:"kind"`
	Speech      string    `json:"speech"`
	EndSession  bool      `json:"end_session"`
	Failed      bool      `json:"failed"`
	HandledAt   time.Time `json:"handled_at"`
}
