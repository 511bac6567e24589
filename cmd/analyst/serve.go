package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/nats-io/nats.go"
	"github.com/programme-lv/analyst/api"
	"github.com/programme-lv/analyst/internal"
	"github.com/programme-lv/analyst/internal/artifact"
	"github.com/programme-lv/analyst/internal/datastore"
	"github.com/programme-lv/analyst/internal/environment"
	"github.com/programme-lv/analyst/internal/gatherer/natsgath"
	"github.com/programme-lv/analyst/internal/pipeline"
	"github.com/programme-lv/analyst/internal/policy"
	"github.com/programme-lv/analyst/internal/sandbox"
	"github.com/programme-lv/analyst/sqsgath"
	"github.com/urfave/cli/v3"
)

const (
	fileCacheDir = "/var/cache/analyst/files"
	fileTmpDir   = "/var/cache/analyst/tmp"

	// NATS subject carrying correlation ids of executions to kill
	cancelSubject = "analyst.cancel"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "poll the request queue and run analysis jobs",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	env := environment.ReadEnvConfig()
	if env.RequestQueueUrl == "" {
		return fmt.Errorf("REQUEST_QUEUE_URL is not set")
	}

	pol := policy.Default()
	if env.PolicyPath != "" {
		var err error
		pol, err = policy.Parse(env.PolicyPath)
		if err != nil {
			return fmt.Errorf("failed to parse policy file: %w", err)
		}
	}

	download, err := datastore.S3DownloadFunc(env.AwsRegion)
	if err != nil {
		return err
	}
	ds, err := datastore.New(fileCacheDir, fileTmpDir, download)
	if err != nil {
		return err
	}

	var store artifact.Store
	if env.ArtifactBucket != "" {
		store, err = artifact.NewS3Store(ctx, env.ArtifactBucket, env.AwsRegion)
	} else {
		store, err = artifact.NewFSStore(env.ArtifactDir)
	}
	if err != nil {
		return err
	}

	analyst := pipeline.New(pol, sandbox.NewSupervisor(pol), ds, store)

	var nc *nats.Conn
	if env.NatsUrl != "" {
		nc, err = nats.Connect(env.NatsUrl)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()
		_, err = nc.Subscribe(cancelSubject, func(m *nats.Msg) {
			id := string(m.Data)
			if analyst.Cancel(id) {
				slog.Info("cancelled execution", "correlation_id", id)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to cancel subject: %w", err)
		}
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(env.AwsRegion))
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %w", err)
	}
	sqsClient := sqs.NewFromConfig(cfg)

	slog.Info("polling request queue", "url", env.RequestQueueUrl)
	for {
		output, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(env.RequestQueueUrl),
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     5,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("failed to receive messages", "error", err)
			time.Sleep(1 * time.Second)
			continue
		}

		for _, message := range output.Messages {
			var req api.ExecReq
			if err := json.Unmarshal([]byte(*message.Body), &req); err != nil {
				slog.Error("failed to unmarshal request", "error", err)
				deleteMessage(ctx, sqsClient, env.RequestQueueUrl, message.ReceiptHandle)
				continue
			}

			var gath internal.ResultGatherer
			if req.ResNatsInbox != "" && nc != nil {
				gath = natsgath.New(nc, req.CorrelationId, req.ResNatsInbox)
			} else {
				resUrl := req.ResSqsUrl
				if resUrl == "" {
					resUrl = env.ResponseQueueUrl
				}
				gath = sqsgath.NewSqsResponseQueueGatherer(req.CorrelationId, resUrl, env.AwsRegion)
			}

			receipt := message.ReceiptHandle
			go func() {
				slog.Info("processing request", "correlation_id", req.CorrelationId)
				if err := analyst.Submit(ctx, gath, req); err != nil {
					// leave the message for redelivery
					slog.Error("job failed", "correlation_id", req.CorrelationId, "error", err)
					return
				}
				deleteMessage(ctx, sqsClient, env.RequestQueueUrl, receipt)
			}()
		}
	}
}

func deleteMessage(ctx context.Context, client *sqs.Client, queueUrl string, receipt *string) {
	_, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueUrl),
		ReceiptHandle: receipt,
	})
	if err != nil {
		slog.Error("failed to delete message", "error", err)
	}
}
