package api

// ExecReq is a request to run an LLM-proposed analysis snippet against a
// working context. RawText is the completion exactly as the model returned
// it; normalization happens inside the core.
type ExecReq struct {
	CorrelationId string `json:"correlation_id"`

	RawText string `json:"raw_text"`

	// Dataset files mounted read-only into the worker.
	Context []ContextFile `json:"context"`

	// Optional overrides; zero fields fall back to policy defaults.
	Limits *Limits `json:"limits,omitempty"`

	// Queue that receives streaming result events.
	ResSqsUrl string `json:"res_sqs_url,omitempty"`

	// NATS inbox for streaming result events, preferred over SQS when set.
	ResNatsInbox string `json:"res_nats_inbox,omitempty"`

	// Session the produced artifacts belong to.
	SessionId string `json:"session_id,omitempty"`
}

// ContextFile references one dataset file by content hash. Exactly one of
// Url or Content should be set when the file is not already cached.
type ContextFile struct {
	Fname string `json:"fname"`

	// Sha256 to check if the file exists in cache
	Sha256 *string `json:"sha256"`
	// URL to download the file if missing
	Url *string `json:"url"`
	// Content directly as an alternative to URL
	Content *string `json:"content"`
}

// Limits bounds a single execution.
type Limits struct {
	WallMs       int64 `json:"wall_ms"`
	MemKiB       int64 `json:"mem_kib"`
	MaxOutputKiB int64 `json:"max_output_kib"`
}
