package internal

import "github.com/programme-lv/analyst/api"

// ResultGatherer receives execution events as they happen. Implementations
// stream them to a queue, print them, or accumulate a complete response.
type ResultGatherer interface {
	StartJob(systemInfo string)

	RejectCode(reason string)

	StartExec()
	FinishExec(status api.ExecStatus, data *api.RunData)

	EmitBlocks(blocks []api.ContentBlock)

	FailJob(status api.ExecStatus, stderr string)
	FinishJob(errMsg *string, internalError bool)
}
