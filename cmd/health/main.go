package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/programme-lv/analyst/internal/environment"
	"github.com/programme-lv/analyst/internal/policy"
)

type feedbackRow struct {
	unit    string
	health  int // 0 - OK, 1 - Warning, 2 - Error
	message string
}

func main() {
	feedback := []feedbackRow{
		checkIsolate(),
		checkInterpreter(),
		checkArtifactDir(),
		checkPolicy(),
	}

	exitCode := 0
	for _, row := range feedback {
		printRow(row)
		if row.health == 2 {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func printRow(row feedbackRow) {
	var label string
	switch row.health {
	case 0:
		label = color.GreenString("OK  ")
	case 1:
		label = color.YellowString("WARN")
	default:
		label = color.RedString("FAIL")
	}
	msg := strings.TrimSpace(row.message)
	if msg == "" {
		color.New().Printf("%s %s\n", label, row.unit)
		return
	}
	color.New().Printf("%s %s: %s\n", label, row.unit, msg)
}

func checkIsolate() feedbackRow {
	cmd := exec.Command("isolate", "--cg", "--cleanup")
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitError *exec.ExitError
		msg := err.Error()
		if errors.As(err, &exitError) && len(out) > 0 {
			msg = msg + ": " + string(out)
		}
		return feedbackRow{unit: "isolate", health: 2, message: msg}
	}
	return feedbackRow{unit: "isolate", health: 0, message: string(out)}
}

func checkInterpreter() feedbackRow {
	pol := policy.Default()
	interp := strings.Fields(pol.ExecCmd)[0]
	out, err := exec.Command(interp, "--version").CombinedOutput()
	if err != nil {
		return feedbackRow{unit: interp, health: 2, message: err.Error()}
	}
	return feedbackRow{unit: interp, health: 0, message: string(out)}
}

func checkArtifactDir() feedbackRow {
	env := environment.ReadEnvConfig()
	if env.ArtifactBucket != "" {
		return feedbackRow{unit: "artifact store", health: 0, message: "s3 bucket " + env.ArtifactBucket}
	}
	probe := filepath.Join(env.ArtifactDir, ".health")
	if err := os.MkdirAll(env.ArtifactDir, 0755); err != nil {
		return feedbackRow{unit: "artifact store", health: 2, message: err.Error()}
	}
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return feedbackRow{unit: "artifact store", health: 2, message: err.Error()}
	}
	_ = os.Remove(probe)
	return feedbackRow{unit: "artifact store", health: 0, message: env.ArtifactDir}
}

func checkPolicy() feedbackRow {
	env := environment.ReadEnvConfig()
	if env.PolicyPath == "" {
		return feedbackRow{unit: "policy", health: 1, message: "POLICY_PATH not set, using built-in defaults"}
	}
	if _, err := policy.Parse(env.PolicyPath); err != nil {
		return feedbackRow{unit: "policy", health: 2, message: err.Error()}
	}
	return feedbackRow{unit: "policy", health: 0, message: env.PolicyPath}
}
