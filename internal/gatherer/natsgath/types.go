package natsgath

import (
	"github.com/nats-io/nats.go"
	"github.com/programme-lv/analyst/api"
)

type natsGatherer struct {
	nc            *nats.Conn
	inbox         string
	correlationId string
}

func (s *natsGatherer) StartJob(systemInfo string) {
	s.send(api.NewStartJob(s.correlationId, systemInfo))
}

func (s *natsGatherer) RejectCode(reason string) {
	s.send(api.NewRejectCode(s.correlationId, reason))
}

func (s *natsGatherer) StartExec() {
	s.send(api.NewStartExec(s.correlationId))
}

func (s *natsGatherer) FinishExec(status api.ExecStatus, data *api.RunData) {
	s.send(api.NewFinishExec(
		s.correlationId,
		status,
		trimRunDataStrings(data, api.MaxRunDataHeight, api.MaxRunDataWidth),
	))
}

func (s *natsGatherer) EmitBlocks(blocks []api.ContentBlock) {
	s.send(api.NewEmitBlocks(s.correlationId, blocks))
}

func (s *natsGatherer) FailJob(status api.ExecStatus, stderr string) {
	s.send(api.NewFailJob(
		s.correlationId,
		status,
		trimStrToRect(stderr, api.MaxRunDataHeight, api.MaxRunDataWidth),
	))
}

func (s *natsGatherer) FinishJob(errMsg *string, internalError bool) {
	s.send(api.NewFinishJob(s.correlationId, errMsg, internalError))
}

func trimRunDataStrings(data *api.RunData, ioHeight int, ioWidth int) *api.RunData {
	if data == nil {
		return nil
	}
	return &api.RunData{
		Stdout:        trimStrToRect(data.Stdout, ioHeight, ioWidth),
		Stderr:        trimStrToRect(data.Stderr, ioHeight, ioWidth),
		ExitCode:      data.ExitCode,
		CpuMillis:     data.CpuMillis,
		WallMillis:    data.WallMillis,
		RamKiBytes:    data.RamKiBytes,
		ExitSignal:    data.ExitSignal,
		CgOomKilled:   data.CgOomKilled,
		IsolateStatus: data.IsolateStatus,
		IsolateMsg:    data.IsolateMsg,
	}
}
