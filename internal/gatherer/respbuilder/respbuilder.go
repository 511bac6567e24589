package respbuilder

import (
	"time"

	"github.com/programme-lv/analyst/api"
)

// Builder gathers execution events and builds a complete api.ExecResponse.
type Builder struct {
	correlationId string
	systemInfo    string

	started  time.Time
	finished *time.Time

	blocks []api.ContentBlock

	status          api.ExecStatus
	rejectionReason *string
	errorMessage    *string
}

func New(correlationId string) *Builder {
	return &Builder{
		correlationId: correlationId,
		started:       time.Now(),
		status:        api.Success,
	}
}

// StartJob implements ResultGatherer.
func (b *Builder) StartJob(systemInfo string) {
	b.systemInfo = systemInfo
}

// RejectCode implements ResultGatherer.
func (b *Builder) RejectCode(reason string) {
	b.status = api.Rejected
	b.rejectionReason = &reason
}

// StartExec implements ResultGatherer.
func (b *Builder) StartExec() {}

// FinishExec implements ResultGatherer.
func (b *Builder) FinishExec(status api.ExecStatus, data *api.RunData) {
	b.status = status
}

// EmitBlocks implements ResultGatherer.
func (b *Builder) EmitBlocks(blocks []api.ContentBlock) {
	b.blocks = append(b.blocks, blocks...)
}

// FailJob implements ResultGatherer.
func (b *Builder) FailJob(status api.ExecStatus, stderr string) {
	b.status = status
}

// FinishJob implements ResultGatherer.
func (b *Builder) FinishJob(errMsg *string, internalError bool) {
	now := time.Now()
	b.finished = &now
	if internalError {
		b.status = api.InternalError
	}
	if errMsg != nil {
		v := *errMsg
		b.errorMessage = &v
	}
}

// Response builds the api.ExecResponse from gathered events.
func (b *Builder) Response() api.ExecResponse {
	start := b.started.Format(time.RFC3339)
	finish := start
	total := int64(0)
	if b.finished != nil {
		finish = b.finished.Format(time.RFC3339)
		total = b.finished.Sub(b.started).Milliseconds()
	}
	blocks := b.blocks
	if blocks == nil {
		blocks = []api.ContentBlock{}
	}
	return api.ExecResponse{
		CorrelationId:   b.correlationId,
		Status:          b.status,
		Blocks:          blocks,
		RejectionReason: b.rejectionReason,
		ErrorMessage:    b.errorMessage,
		StartTime:       start,
		FinishTime:      finish,
		TotalTimeMs:     total,
	}
}
