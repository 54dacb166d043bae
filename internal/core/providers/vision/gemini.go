package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"food-analyzer-go/internal/utils"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// maxGeminiBody caps how much of an API response is read.
const maxGeminiBody = 4 << 20

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// geminiModel calls the generateContent REST endpoint with an inline image part.
type geminiModel struct {
	config     Config
	logger     *utils.Logger
	httpClient *http.Client
	endpoint   string
}

func newGemini(cfg Config, logger *utils.Logger) *geminiModel {
	return &geminiModel{config: cfg, logger: logger}
}

func (g *geminiModel) Provider() string  { return TypeGemini }
func (g *geminiModel) ModelName() string { return g.config.ModelName }

func (g *geminiModel) Initialize() error {
	if strings.TrimSpace(g.config.APIKey) == "" {
		return fmt.Errorf("gemini API key is required")
	}
	if g.config.ModelName == "" {
		return fmt.Errorf("gemini model name is required")
	}
	base := strings.TrimRight(g.config.BaseURL, "/")
	if base == "" {
		base = defaultGeminiBaseURL
	}
	g.endpoint = fmt.Sprintf("%s/models/%s:generateContent", base, g.config.ModelName)
	// Deadlines come from the per-call context.
	g.httpClient = &http.Client{}

	g.logger.DebugTag("Model", "gemini client initialized: endpoint=%s key=%s", g.endpoint, keyPreview(g.config.APIKey))
	return nil
}

func (g *geminiModel) Cleanup() error {
	if g.httpClient != nil {
		g.httpClient.CloseIdleConnections()
	}
	return nil
}

func (g *geminiModel) Describe(ctx context.Context, req Request) (*Reply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return invoke(ctx, TypeGemini, g.config.Timeout, func(ctx context.Context) (*Reply, error) {
		return g.generate(ctx, req)
	})
}

func (g *geminiModel) generate(ctx context.Context, req Request) (*Reply, error) {
	body := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: req.Instruction},
				{InlineData: &geminiInlineData{
					MimeType: mimeOrDefault(req.MIMEType),
					Data:     base64.StdEncoding.EncodeToString(req.Image),
				}},
			},
		}},
	}
	// Temperature is always sent so an explicit 0 reaches the API.
	temperature := g.config.Temperature
	gen := &geminiGenConfig{MaxOutputTokens: g.config.MaxTokens, Temperature: &temperature}
	if req.JSONOutput {
		gen.ResponseMimeType = "application/json"
	}
	body.GenerationConfig = gen

	payload, err := sonic.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.config.APIKey)

	g.logger.DebugTag("Model", "gemini request: model=%s image_bytes=%d json=%t",
		g.config.ModelName, len(req.Image), req.JSONOutput)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGeminiBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed geminiResponse
	decodeErr := sonic.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && parsed.Error != nil {
			return nil, fmt.Errorf("gemini API error %d (%s): %s", parsed.Error.Code, parsed.Error.Status, parsed.Error.Message)
		}
		return nil, fmt.Errorf("gemini API returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("parse response: %w", decodeErr)
	}

	reply := &Reply{Provider: TypeGemini, Model: g.config.ModelName}
	if parsed.UsageMetadata != nil {
		reply.PromptTokens = parsed.UsageMetadata.PromptTokenCount
		reply.OutputTokens = parsed.UsageMetadata.CandidatesTokenCount
	}

	if len(parsed.Candidates) == 0 {
		if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
			reply.FinishReason = parsed.PromptFeedback.BlockReason
		}
		g.logger.WarnTag("Model", "gemini returned no candidates: reason=%s", reply.FinishReason)
		return reply, nil
	}

	candidate := parsed.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	reply.Text = text.String()
	reply.FinishReason = candidate.FinishReason
	return reply, nil
}
