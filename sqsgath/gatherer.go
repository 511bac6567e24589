package sqsgath

import (
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/programme-lv/analyst/api"
)

type sqsResQueueGatherer struct {
	sqsClient     *sqs.Client
	queueUrl      string
	correlationId string
}

func (s *sqsResQueueGatherer) StartJob(systemInfo string) {
	s.send(api.NewStartJob(s.correlationId, systemInfo))
}

func (s *sqsResQueueGatherer) RejectCode(reason string) {
	s.send(api.NewRejectCode(s.correlationId, reason))
}

func (s *sqsResQueueGatherer) StartExec() {
	s.send(api.NewStartExec(s.correlationId))
}

func (s *sqsResQueueGatherer) FinishExec(status api.ExecStatus, data *api.RunData) {
	s.send(api.NewFinishExec(
		s.correlationId,
		status,
		trimRunDataStrings(data, api.MaxRunDataHeight, api.MaxRunDataWidth),
	))
}

func (s *sqsResQueueGatherer) EmitBlocks(blocks []api.ContentBlock) {
	s.send(api.NewEmitBlocks(s.correlationId, blocks))
}

func (s *sqsResQueueGatherer) FailJob(status api.ExecStatus, stderr string) {
	s.send(api.NewFailJob(
		s.correlationId,
		status,
		trimStrToRect(stderr, api.MaxRunDataHeight, api.MaxRunDataWidth),
	))
}

func (s *sqsResQueueGatherer) FinishJob(errMsg *string, internalError bool) {
	s.send(api.NewFinishJob(s.correlationId, errMsg, internalError))
}
