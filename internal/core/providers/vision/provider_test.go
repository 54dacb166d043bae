package vision

import (
	"context"
	"encoding/base64"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-analyzer-go/internal/platform/errors"
)

var jpegStub = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

func TestNew_UnsupportedType(t *testing.T) {
	_, err := New(Config{Type: "ollama", APIKey: "k", ModelName: "m"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfig))
}

func TestNew_MissingKey(t *testing.T) {
	_, err := New(Config{Type: TypeGemini, ModelName: "gemini-2.5-flash"}, nil)
	require.Error(t, err)
	_, err = New(Config{Type: TypeOpenAI, ModelName: "gpt-4o-mini"}, nil)
	require.Error(t, err)
}

func TestGemini_Describe(t *testing.T) {
	var captured geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"parts": [{"text": "food_name: Apple\n"}, {"text": "calories: 95 kcal"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 260, "candidatesTokenCount": 40}
		}`)
	}))
	defer srv.Close()

	model, err := New(Config{
		Type:      TypeGemini,
		ModelName: "gemini-2.5-flash",
		BaseURL:   srv.URL + "/v1beta",
		APIKey:    "test-key",
		Timeout:   time.Second,
	}, nil)
	require.NoError(t, err)

	reply, err := model.Describe(context.Background(), Request{
		Instruction: "describe",
		Image:       jpegStub,
		MIMEType:    "image/jpeg",
	})
	require.NoError(t, err)

	assert.Equal(t, "food_name: Apple\ncalories: 95 kcal", reply.Text)
	assert.Equal(t, "STOP", reply.FinishReason)
	assert.Equal(t, 260, reply.PromptTokens)
	assert.Equal(t, TypeGemini, reply.Provider)

	require.Len(t, captured.Contents, 1)
	parts := captured.Contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "describe", parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MimeType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(jpegStub), parts[1].InlineData.Data)
	assert.Empty(t, captured.GenerationConfig.ResponseMimeType)
}

func TestGemini_JSONOutput(t *testing.T) {
	var captured geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(body, &captured))
		_, _ = io.WriteString(w, `{"candidates": [{"content": {"parts": [{"text": "{}"}]}}]}`)
	}))
	defer srv.Close()

	model, err := New(Config{Type: TypeGemini, ModelName: "m", BaseURL: srv.URL, APIKey: "k"}, nil)
	require.NoError(t, err)

	_, err = model.Describe(context.Background(), Request{Instruction: "x", Image: jpegStub, JSONOutput: true})
	require.NoError(t, err)
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
}

func TestGemini_SendsZeroTemperature(t *testing.T) {
	var captured geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(body, &captured))
		_, _ = io.WriteString(w, `{"candidates": [{"content": {"parts": [{"text": "food_name: Apple"}]}}]}`)
	}))
	defer srv.Close()

	model, err := New(Config{Type: TypeGemini, ModelName: "m", BaseURL: srv.URL, APIKey: "k", Temperature: 0}, nil)
	require.NoError(t, err)

	_, err = model.Describe(context.Background(), Request{Instruction: "x", Image: jpegStub})
	require.NoError(t, err)
	require.NotNil(t, captured.GenerationConfig)
	require.NotNil(t, captured.GenerationConfig.Temperature)
	assert.Equal(t, 0.0, *captured.GenerationConfig.Temperature)
}

func TestOpenAITemperature(t *testing.T) {
	assert.Equal(t, float32(math.SmallestNonzeroFloat32), openaiTemperature(0))
	assert.Equal(t, float32(0.2), openaiTemperature(0.2))
}

func TestGemini_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"promptFeedback": {"blockReason": "SAFETY"}}`)
	}))
	defer srv.Close()

	model, err := New(Config{Type: TypeGemini, ModelName: "m", BaseURL: srv.URL, APIKey: "k"}, nil)
	require.NoError(t, err)

	reply, err := model.Describe(context.Background(), Request{Instruction: "x", Image: jpegStub})
	require.NoError(t, err)
	assert.Empty(t, reply.Text)
	assert.Equal(t, "SAFETY", reply.FinishReason)
}

func TestGemini_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`)
	}))
	defer srv.Close()

	model, err := New(Config{Type: TypeGemini, ModelName: "m", BaseURL: srv.URL, APIKey: "k"}, nil)
	require.NoError(t, err)

	_, err = model.Describe(context.Background(), Request{Instruction: "x", Image: jpegStub})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAIResponse))
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGemini_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	model, err := New(Config{Type: TypeGemini, ModelName: "m", BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	_, err = model.Describe(context.Background(), Request{Instruction: "x", Image: jpegStub})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTimeout))
}

func TestOpenAI_Describe(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1", "object": "chat.completion", "model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "food_name: Pizza"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 100, "completion_tokens": 10, "total_tokens": 110}
		}`)
	}))
	defer srv.Close()

	model, err := New(Config{
		Type:      TypeOpenAI,
		ModelName: "gpt-4o-mini",
		BaseURL:   srv.URL + "/v1",
		APIKey:    "test-key",
		Timeout:   time.Second,
		MaxTokens: 256,
	}, nil)
	require.NoError(t, err)

	reply, err := model.Describe(context.Background(), Request{
		Instruction: "describe",
		Image:       jpegStub,
		MIMEType:    "image/jpeg",
		JSONOutput:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "food_name: Pizza", reply.Text)
	assert.Equal(t, "stop", reply.FinishReason)
	assert.Equal(t, 10, reply.OutputTokens)

	messages := captured["messages"].([]interface{})
	content := messages[0].(map[string]interface{})["content"].([]interface{})
	require.Len(t, content, 2)
	imagePart := content[1].(map[string]interface{})["image_url"].(map[string]interface{})
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(jpegStub), imagePart["url"])
	assert.Equal(t, "json_object", captured["response_format"].(map[string]interface{})["type"])
}

func TestOpenAI_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error": {"message": "upstream exploded", "type": "server_error"}}`)
	}))
	defer srv.Close()

	model, err := New(Config{Type: TypeOpenAI, ModelName: "m", BaseURL: srv.URL, APIKey: "k"}, nil)
	require.NoError(t, err)

	_, err = model.Describe(context.Background(), Request{Instruction: "x", Image: jpegStub})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAIResponse))
}

func TestDescribe_RejectsEmptyImage(t *testing.T) {
	model, err := New(Config{Type: TypeGemini, ModelName: "m", APIKey: "k"}, nil)
	require.NoError(t, err)

	_, err = model.Describe(context.Background(), Request{Instruction: "x"})
	assert.Error(t, err)
}
