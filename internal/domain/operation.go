package domain

import "time"

// OperationStatus enumerates video operation lifecycle states.
type OperationStatus string

const (
	OperationProcessing OperationStatus = "processing"
	OperationComplete   OperationStatus = "complete"
	OperationFailed     OperationStatus = "failed"
)

// Operation captures the lifecycle state of a single video-generation request.
// A record moves from processing to exactly one terminal state and never back;
// the orchestrator is its sole writer.
type Operation struct {
	ID        string          `json:"operation_id"`
	Status    OperationStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
	VideoURL  string          `json:"video_url,omitempty"`
	Error     string          `json:"error,omitempty"`
	Credits   int             `json:"credits,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Terminal reports whether the operation reached a final state.
func (o *Operation) Terminal() bool {
	return o != nil && (o.Status == OperationComplete || o.Status == OperationFailed)
}

// Processing builds the initial record for a freshly minted operation ID.
func Processing(id, message string) *Operation {
	return &Operation{
		ID:        id,
		Status:    OperationProcessing,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// Complete builds the terminal success record.
func Complete(id, videoURL string, credits int) *Operation {
	return &Operation{
		ID:        id,
		Status:    OperationComplete,
		VideoURL:  videoURL,
		Credits:   credits,
		CreatedAt: time.Now(),
	}
}

// Failed builds the terminal failure record.
func Failed(id, errMsg string) *Operation {
	return &Operation{
		ID:        id,
		Status:    OperationFailed,
		Error:     errMsg,
		CreatedAt: time.Now(),
	}
}
