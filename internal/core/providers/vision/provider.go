package vision

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"food-analyzer-go/internal/platform/errors"
	"food-analyzer-go/internal/platform/observability"
	"food-analyzer-go/internal/utils"
)

const (
	TypeGemini = "gemini"
	TypeOpenAI = "openai"

	defaultTimeout = 30 * time.Second
)

// Config selects and parameterizes a hosted vision model.
type Config struct {
	Type        string
	ModelName   string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// Request is one instruction plus one image.
type Request struct {
	Instruction string
	Image       []byte
	MIMEType    string
	// JSONOutput asks the backend for a JSON object reply where supported.
	JSONOutput bool
}

// Reply is the model's text answer. Text may be empty when the backend
// returned no candidate, which callers treat as an unusable reply.
type Reply struct {
	Text         string
	Provider     string
	Model        string
	FinishReason string
	PromptTokens int
	OutputTokens int
}

// Model is the hosted capability. Implementations are safe for concurrent use
// and are never mutated after Initialize.
type Model interface {
	Initialize() error
	Cleanup() error
	Describe(ctx context.Context, req Request) (*Reply, error)
	Provider() string
	ModelName() string
}

// New builds and initializes the backend named by cfg.Type.
func New(cfg Config, logger *utils.Logger) (Model, error) {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	var model Model
	switch strings.ToLower(cfg.Type) {
	case TypeGemini, "":
		model = newGemini(cfg, logger)
	case TypeOpenAI:
		model = newOpenAI(cfg, logger)
	default:
		return nil, errors.New(errors.KindConfig, "vision.new", fmt.Sprintf("unsupported model type: %s", cfg.Type))
	}

	if err := model.Initialize(); err != nil {
		return nil, errors.Wrap(errors.KindConfig, "vision.init", "failed to initialize model client", err)
	}
	logger.InfoTag("Model", "vision model ready: provider=%s model=%s timeout=%s",
		model.Provider(), model.ModelName(), cfg.Timeout)
	return model, nil
}

// invoke bounds call by timeout and classifies its failure: a deadline becomes
// KindTimeout, everything else KindAIResponse.
func invoke(ctx context.Context, provider string, timeout time.Duration, call func(context.Context) (*Reply, error)) (reply *Reply, err error) {
	ctx, end := observability.StartSpan(ctx, "model", provider)
	defer func() { end(err) }()

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	reply, err = call(callCtx)
	observability.RecordMetric(ctx, "model.latency_ms", float64(time.Since(start).Milliseconds()), map[string]string{"provider": provider})
	if err == nil {
		return reply, nil
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, errors.Wrap(errors.KindTimeout, "vision."+provider, "model request timed out", err)
	}
	return nil, errors.Wrap(errors.KindAIResponse, "vision."+provider, "model request failed", err)
}

func validateRequest(req Request) error {
	if len(req.Image) == 0 {
		return errors.New(errors.KindAIResponse, "vision.request", "image is required")
	}
	if strings.TrimSpace(req.Instruction) == "" {
		return errors.New(errors.KindAIResponse, "vision.request", "instruction is required")
	}
	return nil
}

func mimeOrDefault(mime string) string {
	if mime == "" {
		return "image/jpeg"
	}
	return mime
}

func keyPreview(key string) string {
	if len(key) > 6 {
		return key[:6] + "..."
	}
	return "***"
}
