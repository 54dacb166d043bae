package eventbus

import (
	"time"

	"food-analyzer-go/internal/domain/nutrition"
)

const (
	EventAnalysisCompleted = "analysis:completed"
	EventAnalysisFailed    = "analysis:failed"
)

// AnalysisCompletedEvent describes one successful analysis. It carries the
// image digest and dimensions, never the image bytes.
type AnalysisCompletedEvent struct {
	RequestID    string            `json:"request_id,omitempty"`
	ImageDigest  string            `json:"image_digest"`
	ImageWidth   int               `json:"image_width"`
	ImageHeight  int               `json:"image_height"`
	SourceFormat string            `json:"source_format"`
	Provider     string            `json:"provider"`
	Model        string            `json:"model"`
	Result       nutrition.Result  `json:"result"`
	RawReply     string            `json:"raw_reply"`
	Fields       map[string]string `json:"fields,omitempty"`
	Structured   bool              `json:"structured"`
	Latency      time.Duration     `json:"latency"`
	CompletedAt  time.Time         `json:"completed_at"`
}

type AnalysisFailedEvent struct {
	RequestID string    `json:"request_id,omitempty"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	FailedAt  time.Time `json:"failed_at"`
}
