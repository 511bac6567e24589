package termgath

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/programme-lv/analyst/api"
)

// TerminalGatherer prints result events to stdout for local runs.
type TerminalGatherer struct {
	StartedAt time.Time
}

func New() *TerminalGatherer { return &TerminalGatherer{StartedAt: time.Now()} }

func (t *TerminalGatherer) StartJob(systemInfo string) {
	fmt.Println("== Analysis job started ==")
	if systemInfo != "" {
		fmt.Println("System info:")
		fmt.Println(systemInfo)
	}
}

func (t *TerminalGatherer) RejectCode(reason string) {
	color.Yellow("== Code rejected: %s ==", reason)
}

func (t *TerminalGatherer) StartExec() {
	fmt.Println("-- Execution started --")
}

func (t *TerminalGatherer) FinishExec(status api.ExecStatus, data *api.RunData) {
	fmt.Printf("-- Execution finished: %s --\n", status)
	if data != nil {
		fmt.Printf("exit=%d cpu=%dms wall=%dms mem=%dKiB\n",
			data.ExitCode, data.CpuMillis, data.WallMillis, data.RamKiBytes)
		if len(data.Stderr) > 0 {
			fmt.Printf("stderr:\n%s\n", data.Stderr)
		}
	}
}

func (t *TerminalGatherer) EmitBlocks(blocks []api.ContentBlock) {
	for i, b := range blocks {
		fmt.Printf("<- Block %d (%s)\n", i, b.Kind)
		switch {
		case b.Image != nil && b.Image.Url != "":
			fmt.Printf("  %s\n", b.Image.Url)
		case b.Image != nil:
			fmt.Printf("  image, %d bytes\n", len(b.Image.Bytes))
		default:
			fmt.Println(indent(b.Raw, "  "))
		}
	}
}

func (t *TerminalGatherer) FailJob(status api.ExecStatus, stderr string) {
	color.Red("== Execution failed: %s ==", status)
	if stderr != "" {
		fmt.Println(stderr)
	}
}

func (t *TerminalGatherer) FinishJob(errMsg *string, internalError bool) {
	if internalError {
		msg := ""
		if errMsg != nil {
			msg = *errMsg
		}
		color.Red("== Internal error: %s ==", msg)
		return
	}
	dur := time.Since(t.StartedAt).Round(time.Millisecond)
	color.Green("== Job finished in %s ==", dur)
}

func indent(s string, prefix string) string {
	out := prefix
	for _, r := range s {
		out += string(r)
		if r == '\n' {
			out += prefix
		}
	}
	return out
}
