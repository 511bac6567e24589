package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/programme-lv/analyst/api"
	"github.com/programme-lv/analyst/internal/artifact"
	"github.com/programme-lv/analyst/internal/datastore"
	"github.com/programme-lv/analyst/internal/gatherer/termgath"
	"github.com/programme-lv/analyst/internal/pipeline"
	"github.com/programme-lv/analyst/internal/policy"
	"github.com/programme-lv/analyst/internal/sandbox"
	"github.com/urfave/cli/v3"
)

func execCmd() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "run a single code file locally and print the result",
		ArgsUsage: "<code-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "policy",
				Usage: "path to a policy TOML file",
			},
			&cli.StringFlag{
				Name:  "artifact-dir",
				Usage: "directory for produced chart files",
				Value: "artifacts",
			},
			&cli.StringSliceFlag{
				Name:  "data",
				Usage: "dataset file to mount into the sandbox (repeatable)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one code file argument")
			}
			return execLocal(ctx, cmd)
		},
	}
}

func execLocal(ctx context.Context, cmd *cli.Command) error {
	rawText, err := os.ReadFile(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read code file: %w", err)
	}

	pol := policy.Default()
	if path := cmd.String("policy"); path != "" {
		pol, err = policy.Parse(path)
		if err != nil {
			return fmt.Errorf("failed to parse policy file: %w", err)
		}
	}

	contextFiles, err := localContextFiles(cmd.StringSlice("data"))
	if err != nil {
		return err
	}

	noDownload := func(url string, path string) error {
		return fmt.Errorf("remote downloads are disabled in local mode")
	}
	ds, err := datastore.New(
		filepath.Join(os.TempDir(), "analyst-files"),
		filepath.Join(os.TempDir(), "analyst-tmp"),
		noDownload,
	)
	if err != nil {
		return err
	}

	store, err := artifact.NewFSStore(cmd.String("artifact-dir"))
	if err != nil {
		return err
	}

	analyst := pipeline.New(pol, sandbox.NewSupervisor(pol), ds, store)

	return analyst.Submit(ctx, termgath.New(), api.ExecReq{
		CorrelationId: uuid.NewString(),
		RawText:       string(rawText),
		Context:       contextFiles,
		SessionId:     "local",
	})
}

func localContextFiles(paths []string) ([]api.ContextFile, error) {
	files := make([]api.ContextFile, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset file %s: %w", path, err)
		}
		sha := fmt.Sprintf("%x", sha256.Sum256(content))
		body := string(content)
		files = append(files, api.ContextFile{
			Fname:   filepath.Base(path),
			Sha256:  &sha,
			Content: &body,
		})
	}
	return files, nil
}
