package policy

import (
	"fmt"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pelletier/go-toml/v2"
)

// AdmissionMode decides what happens when the worker pool is full.
type AdmissionMode string

const (
	// AdmissionBlock makes Submit wait for a free worker slot.
	AdmissionBlock AdmissionMode = "block"
	// AdmissionFailFast rejects the request immediately when the pool is full.
	AdmissionFailFast AdmissionMode = "fail-fast"
)

// Policy is the read-only execution policy shared across all executions.
type Policy struct {
	// Command that runs a candidate inside the sandbox, e.g. "python3 main.py".
	ExecCmd string
	// Filename the candidate source is written to inside the box.
	CodeFname string

	WallMs       int64
	MemKiB       int64
	MaxOutputKiB int64

	PoolSize  int
	Admission AdmissionMode

	allowedImports mapset.Set[string]
}

// specRoot maps to the policy TOML file.
type specRoot struct {
	Interpreter struct {
		ExecCmd   string `toml:"exec_cmd"`
		CodeFname string `toml:"code_fname"`
	} `toml:"interpreter"`
	Limits struct {
		WallMs       int64 `toml:"wall_ms"`
		MemKiB       int64 `toml:"mem_kib"`
		MaxOutputKiB int64 `toml:"max_output_kib"`
	} `toml:"limits"`
	Pool struct {
		Size      int    `toml:"size"`
		Admission string `toml:"admission"`
	} `toml:"pool"`
	AllowedImports []string `toml:"allowed_imports"`
}

// Parse reads a policy TOML file and applies defaults for missing fields.
func Parse(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	var root specRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse policy TOML: %w", err)
	}

	p := Default()

	if root.Interpreter.ExecCmd != "" {
		p.ExecCmd = root.Interpreter.ExecCmd
	}
	if root.Interpreter.CodeFname != "" {
		p.CodeFname = root.Interpreter.CodeFname
	}
	if root.Limits.WallMs != 0 {
		p.WallMs = root.Limits.WallMs
	}
	if root.Limits.MemKiB != 0 {
		p.MemKiB = root.Limits.MemKiB
	}
	if root.Limits.MaxOutputKiB != 0 {
		p.MaxOutputKiB = root.Limits.MaxOutputKiB
	}
	if root.Pool.Size != 0 {
		p.PoolSize = root.Pool.Size
	}
	switch root.Pool.Admission {
	case "":
	case string(AdmissionBlock):
		p.Admission = AdmissionBlock
	case string(AdmissionFailFast):
		p.Admission = AdmissionFailFast
	default:
		return nil, fmt.Errorf("unknown admission mode: %s", root.Pool.Admission)
	}
	if len(root.AllowedImports) > 0 {
		p.allowedImports = mapset.NewSet(root.AllowedImports...)
	}

	return p, nil
}

// Default returns the policy used when no file is provided.
func Default() *Policy {
	return &Policy{
		ExecCmd:      "python3 main.py",
		CodeFname:    "main.py",
		WallMs:       10_000,
		MemKiB:       512 * 1024,
		MaxOutputKiB: 1024,
		PoolSize:     4,
		Admission:    AdmissionBlock,
		allowedImports: mapset.NewSet(
			"math", "statistics", "json", "csv", "re", "datetime",
			"collections", "itertools", "functools", "random",
			"pandas", "numpy", "matplotlib",
		),
	}
}

// ImportAllowed reports whether the top-level module name may be imported by
// a candidate.
func (p *Policy) ImportAllowed(module string) bool {
	return p.allowedImports.Contains(module)
}

// AllowedImports returns the allow-list as a sorted-insensitive slice, for
// rejection messages.
func (p *Policy) AllowedImports() []string {
	return p.allowedImports.ToSlice()
}

// EffectiveWallMs applies a per-request override to the default.
func (p *Policy) EffectiveWallMs(override int64) int64 {
	if override > 0 {
		return override
	}
	return p.WallMs
}

// EffectiveMemKiB applies a per-request override to the default.
func (p *Policy) EffectiveMemKiB(override int64) int64 {
	if override > 0 {
		return override
	}
	return p.MemKiB
}

// EffectiveMaxOutputKiB applies a per-request override to the default.
func (p *Policy) EffectiveMaxOutputKiB(override int64) int64 {
	if override > 0 {
		return override
	}
	return p.MaxOutputKiB
}
