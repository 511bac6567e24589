package sandbox

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Box is one initialized isolate box. The worker's filesystem root is
// <path>/box; the scratch directory for artifacts lives inside it.
type Box struct {
	id      int
	path    string
	isolate *Isolate
}

func newBox(isolate *Isolate, id int, path string) *Box {
	return &Box{
		id:      id,
		path:    path,
		isolate: isolate,
	}
}

func (box *Box) Id() int {
	return box.id
}

func (box *Box) Path() string {
	return box.path
}

// ScratchDir returns the host path of the per-execution scratch directory,
// creating it on first call.
func (box *Box) ScratchDir() (string, error) {
	dir := filepath.Join(box.path, "box", ScratchDirName)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", fmt.Errorf("failed to create scratch dir: %w", err)
	}
	return dir, nil
}

func (box *Box) Close() error {
	return box.isolate.releaseBox(box.id)
}

// Run starts command inside the box under the given constraints. The
// returned process has not been waited on yet.
func (box *Box) Run(command string, constraints *Constraints) (*Process, error) {
	if constraints == nil {
		c := DefaultConstraints()
		constraints = &c
	}

	process := &Process{}

	err := assignMetaFilePathToProcess(process)
	if err != nil {
		return nil, err
	}

	args := []string{"--env=HOME=/box", "--meta=" + process.metaFilePath}
	args = append(args, constraints.ToArgs()...)

	cmdStr := fmt.Sprintf(
		"isolate --cg --box-id %d %s --run /usr/bin/env %s",
		box.id,
		strings.Join(args, " "),
		command,
	)

	cmd := exec.Command("/usr/bin/bash", "-c", cmdStr)
	process.stdout, err = cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	process.stderr, err = cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	process.cmd = cmd

	if err = cmd.Start(); err != nil {
		return nil, err
	}

	return process, nil
}

func assignMetaFilePathToProcess(process *Process) error {
	tempFilePath, err := newTempMetaFilePath()
	if err != nil {
		return err
	}
	process.metaFilePath = tempFilePath
	return nil
}

func newTempMetaFilePath() (string, error) {
	file, err := os.CreateTemp("", "isolate.*.txt")
	if err != nil {
		return "", err
	}
	err = file.Close()
	if err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (box *Box) AddFile(path string, content []byte) error {
	path = filepath.Join(box.path, "box", path)
	err := os.WriteFile(path, content, 0644)
	if err != nil {
		return err
	}
	return nil
}
