package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"

	"food-analyzer-go/internal/utils"
)

// openaiModel speaks the chat completions API, so it also serves any
// OpenAI-compatible endpoint configured through BaseURL.
type openaiModel struct {
	config Config
	logger *utils.Logger
	client *openai.Client
}

func newOpenAI(cfg Config, logger *utils.Logger) *openaiModel {
	return &openaiModel{config: cfg, logger: logger}
}

func (o *openaiModel) Provider() string  { return TypeOpenAI }
func (o *openaiModel) ModelName() string { return o.config.ModelName }

func (o *openaiModel) Initialize() error {
	if strings.TrimSpace(o.config.APIKey) == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	if o.config.ModelName == "" {
		return fmt.Errorf("OpenAI model name is required")
	}

	clientConfig := openai.DefaultConfig(o.config.APIKey)
	if o.config.BaseURL != "" {
		clientConfig.BaseURL = o.config.BaseURL
	}
	o.client = openai.NewClientWithConfig(clientConfig)

	o.logger.DebugTag("Model", "openai client initialized: base_url=%s model=%s key=%s",
		clientConfig.BaseURL, o.config.ModelName, keyPreview(o.config.APIKey))
	return nil
}

func (o *openaiModel) Cleanup() error { return nil }

func (o *openaiModel) Describe(ctx context.Context, req Request) (*Reply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return invoke(ctx, TypeOpenAI, o.config.Timeout, func(ctx context.Context) (*Reply, error) {
		return o.complete(ctx, req)
	})
}

func (o *openaiModel) complete(ctx context.Context, req Request) (*Reply, error) {
	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeOrDefault(req.MIMEType), base64.StdEncoding.EncodeToString(req.Image))

	chatReq := openai.ChatCompletionRequest{
		Model: o.config.ModelName,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: req.Instruction,
				},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURI,
						Detail: openai.ImageURLDetailAuto,
					},
				},
			},
		}},
		MaxTokens:   o.config.MaxTokens,
		Temperature: openaiTemperature(o.config.Temperature),
	}
	if req.JSONOutput {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	o.logger.DebugTag("Model", "openai request: model=%s image_bytes=%d json=%t",
		o.config.ModelName, len(req.Image), req.JSONOutput)

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	reply := &Reply{
		Provider:     TypeOpenAI,
		Model:        o.config.ModelName,
		PromptTokens: resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	if resp.Model != "" {
		reply.Model = resp.Model
	}
	if len(resp.Choices) == 0 {
		o.logger.WarnTag("Model", "openai returned no choices")
		return reply, nil
	}
	reply.Text = resp.Choices[0].Message.Content
	reply.FinishReason = string(resp.Choices[0].FinishReason)
	return reply, nil
}

// openaiTemperature keeps an explicit 0 on the wire; go-openai drops a zero
// temperature as omitempty, which the API then reads as its default of 1.
func openaiTemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
