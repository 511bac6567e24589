package api

// ExecStatus is the terminal status of one execution request.
type ExecStatus string

const (
	Success        ExecStatus = "success"
	Rejected       ExecStatus = "rejected"
	Timeout        ExecStatus = "timeout"
	MemExceeded    ExecStatus = "mem_exceeded"
	OutputExceeded ExecStatus = "output_exceeded"
	RuntimeError   ExecStatus = "runtime_error"
	Cancelled      ExecStatus = "cancelled"
	InternalError  ExecStatus = "internal_error"
)

// ExecResponse is the complete, non-streaming result of a request. Blocks is
// always present and renderable, whatever the status.
type ExecResponse struct {
	CorrelationId string `json:"correlation_id"`

	Status ExecStatus `json:"status"`

	Blocks []ContentBlock `json:"blocks"`

	// Rejection reason when Status == Rejected.
	RejectionReason *string `json:"rejection_reason,omitempty"`

	ErrorMessage *string `json:"error_message,omitempty"`

	StartTime   string `json:"start_time"`
	FinishTime  string `json:"finish_time"`
	TotalTimeMs int64  `json:"total_time_ms"`
}
