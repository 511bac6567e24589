package sandbox

import "fmt"

// ScratchDirName is the directory inside the box the worker may write
// artifacts to. ContextDirName is where the working context is mounted
// read-only.
const (
	ScratchDirName = "artifacts"
	ContextDirName = "data"
)

// Constraints are the isolate-level resource bounds for one worker run.
type Constraints struct {
	WallTimeLimInSec float64
	MemoryLimitInKB  int64
	MaxProcesses     int
	MaxOpenFiles     int
	MaxFileSizeKB    int64

	// Host path mounted read-only at /box/data, empty for none.
	ContextMount string
}

func DefaultConstraints() Constraints {
	return Constraints{
		WallTimeLimInSec: 10.0,
		MemoryLimitInKB:  512 * 1024,
		MaxProcesses:     16,
		MaxOpenFiles:     128,
		MaxFileSizeKB:    64 * 1024,
	}
}

func (constraints *Constraints) ToArgs() []string {
	args := []string{
		constraints.WallTimeLimArg(),
		constraints.MemLimArg(),
		constraints.MaxProcessesArg(),
		constraints.MaxOpenFilesArg(),
		constraints.MaxFileSizeArg(),
	}
	if constraints.ContextMount != "" {
		args = append(args, constraints.ContextMountArg())
	}
	return args
}

func (constraints *Constraints) WallTimeLimArg() string {
	return fmt.Sprintf("--wall-time=%f", constraints.WallTimeLimInSec)
}

func (constraints *Constraints) MemLimArg() string {
	return fmt.Sprintf("--cg-mem=%d", constraints.MemoryLimitInKB)
}

func (constraints *Constraints) MaxProcessesArg() string {
	return fmt.Sprintf("--processes=%d", constraints.MaxProcesses)
}

func (constraints *Constraints) MaxOpenFilesArg() string {
	return fmt.Sprintf("--open-files=%d", constraints.MaxOpenFiles)
}

func (constraints *Constraints) MaxFileSizeArg() string {
	return fmt.Sprintf("--fsize=%d", constraints.MaxFileSizeKB)
}

// ContextMountArg binds the working context into the box without write or
// exec permission.
func (constraints *Constraints) ContextMountArg() string {
	return fmt.Sprintf("--dir=%s=%s:noexec", ContextDirName, constraints.ContextMount)
}
