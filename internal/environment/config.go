package environment

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	// SQS queue the worker polls for execution requests
	RequestQueueUrl string
	// default queue for responses when the request names none
	ResponseQueueUrl string
	AwsRegion        string
	// S3 bucket for generated chart artifacts; empty means local fs store
	ArtifactBucket string
	// local directory for the fs artifact store
	ArtifactDir string
	NatsUrl     string
	// path to the interpreter policy TOML; empty means built-in defaults
	PolicyPath string
}

func ReadEnvConfig() *EnvConfig {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using process environment")
	}

	return &EnvConfig{
		RequestQueueUrl:  os.Getenv("REQUEST_QUEUE_URL"),
		ResponseQueueUrl: os.Getenv("RESPONSE_QUEUE_URL"),
		AwsRegion:        getenvDefault("AWS_REGION", "eu-central-1"),
		ArtifactBucket:   os.Getenv("ARTIFACT_BUCKET"),
		ArtifactDir:      getenvDefault("ARTIFACT_DIR", "/var/lib/analyst/artifacts"),
		NatsUrl:          os.Getenv("NATS_URL"),
		PolicyPath:       os.Getenv("POLICY_PATH"),
	}
}

func getenvDefault(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
