package api

// RunData contains execution information for a worker process (streaming
// version).
type RunData struct {
	Stdout   string `json:"out"`
	Stderr   string `json:"err"`
	ExitCode int64  `json:"exit"`

	CpuMillis  int64 `json:"cpu_ms"`
	WallMillis int64 `json:"wall_ms"`
	RamKiBytes int64 `json:"ram_kib"`

	ExitSignal  *int64 `json:"signal"`
	CgOomKilled bool   `json:"cg_oom_killed"` // killed on memory allocation?

	IsolateStatus *string `json:"isolate_status"`
	IsolateMsg    *string `json:"isolate_msg"`
}
