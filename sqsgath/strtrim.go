package sqsgath

import (
	"strings"

	"github.com/programme-lv/analyst/api"
)

func trimRunDataStrings(data *api.RunData, maxHeight int, maxWidth int) *api.RunData {
	if data == nil {
		return nil
	}

	return &api.RunData{
		Stdout:        trimStrToRect(data.Stdout, maxHeight, maxWidth),
		Stderr:        trimStrToRect(data.Stderr, maxHeight, maxWidth),
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

func trimStrToRect(s string, maxHeight int, maxWidth int) string {
	if s == "" {
		return ""
	}
	// split into lines
	res := ""
	lines := strings.Split(s, "\n")
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
		lines = append(lines, "[...]")
	}
	for i, line := range lines {
		if i > 0 {
			res += "\n"
		}
		if len(line) > maxWidth {
			res += line[:maxWidth] + "[...]"
		} else {
			res += line
		}
	}
	return res
}
