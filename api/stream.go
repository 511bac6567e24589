package api

import "time"

// MsgType is a message type for streaming result events
type MsgType string

// Streaming message type constants
const (
	StartJobMsg   MsgType = "job_start"
	RejectCodeMsg MsgType = "code_reject"
	StartExecMsg  MsgType = "exec_start"
	FinishExecMsg MsgType = "exec_finish"
	EmitBlocksMsg MsgType = "blocks_emit"
	FailJobMsg    MsgType = "job_fail"
	FinishJobMsg  MsgType = "job_finish"
)

// Captured output size constraints for streaming
const (
	MaxRunDataHeight = 40
	MaxRunDataWidth  = 80
)

// Header is the common header for all streaming result messages
type Header struct {
	CorrelationId string  `json:"correlation_id"`
	MsgType       MsgType `json:"msg_type"`
}

// StartJob message sent when a request is accepted
type StartJob struct {
	Header
	SystemInfo  string `json:"system_info"`
	StartedTime string `json:"started_time"`
}

// RejectCode message sent when the normalizer refuses the candidate
type RejectCode struct {
	Header
	Reason string `json:"reason"`
}

// StartExec message sent when the sandboxed worker starts
type StartExec struct {
	Header
}

// FinishExec message sent when the worker reaches a terminal state
type FinishExec struct {
	Header
	Status  ExecStatus `json:"status"`
	RunData *RunData   `json:"run_data"`
}

// EmitBlocks message carrying the classified block sequence
type EmitBlocks struct {
	Header
	Blocks []ContentBlock `json:"blocks"`
}

// FailJob message sent when status != success so the orchestration layer can
// decide whether to regenerate code
type FailJob struct {
	Header
	Status ExecStatus `json:"status"`
	Stderr string     `json:"stderr"`
}

// FinishJob message sent when the request is fully processed
type FinishJob struct {
	Header
	ErrorMessage  *string `json:"error_message"`
	InternalError bool    `json:"internal_error"`
}

// Helper function to create a header
func NewHeader(correlationId string, msgType MsgType) Header {
	return Header{
		CorrelationId: correlationId,
		MsgType:       msgType,
	}
}

// Helper functions to create specific streaming message types
func NewStartJob(correlationId, systemInfo string) StartJob {
	return StartJob{
		Header:      NewHeader(correlationId, StartJobMsg),
		SystemInfo:  systemInfo,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewRejectCode(correlationId, reason string) RejectCode {
	return RejectCode{
		Header: NewHeader(correlationId, RejectCodeMsg),
		Reason: reason,
	}
}

func NewStartExec(correlationId string) StartExec {
	return StartExec{
		Header: NewHeader(correlationId, StartExecMsg),
	}
}

func NewFinishExec(correlationId string, status ExecStatus, runData *RunData) FinishExec {
	return FinishExec{
		Header:  NewHeader(correlationId, FinishExecMsg),
		Status:  status,
		RunData: runData,
	}
}

func NewEmitBlocks(correlationId string, blocks []ContentBlock) EmitBlocks {
	return EmitBlocks{
		Header: NewHeader(correlationId, EmitBlocksMsg),
		Blocks: blocks,
	}
}

func NewFailJob(correlationId string, status ExecStatus, stderr string) FailJob {
	return FailJob{
		Header: NewHeader(correlationId, FailJobMsg),
		Status: status,
		Stderr: stderr,
	}
}

func NewFinishJob(correlationId string, errorMessage *string, internalError bool) FinishJob {
	return FinishJob{
		Header:        NewHeader(correlationId, FinishJobMsg),
		ErrorMessage:  errorMessage,
		InternalError: internalError,
	}
}
