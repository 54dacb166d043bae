package testing

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"food-analyzer-go/internal/core/providers/vision"
	"food-analyzer-go/internal/platform/config"
	"food-analyzer-go/internal/platform/logging"
)

// SetupTestConfig returns defaults with a dummy credential and a memory journal.
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.IP = "127.0.0.1"
	cfg.Log.Level = "DEBUG"
	cfg.Log.Dir = t.TempDir()
	cfg.Log.File = "test.log"
	cfg.Model.APIKey = "test-key"
	cfg.Model.Timeout = 2 * time.Second
	cfg.Web.StaticDir = ""
	cfg.Journal.Driver = config.JournalDriverMemory
	return cfg
}

func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })
	return logger
}

// PNGBytes encodes a solid w x h PNG.
func PNGBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 220, 120, 40, 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// NoisePNGBytes encodes a w x h PNG of random pixels. It barely compresses,
// so the encoded size stays close to w*h*4 bytes.
func NoisePNGBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewSource(1))
	rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// DecodedSize reports the dimensions and color model of an encoded image.
func DecodedSize(t *testing.T, data []byte) (int, int, color.Model) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	return cfg.Width, cfg.Height, cfg.ColorModel
}

// MockModel is a testify mock of vision.Model.
type MockModel struct {
	mock.Mock
}

func (m *MockModel) Initialize() error { return nil }
func (m *MockModel) Cleanup() error    { return nil }
func (m *MockModel) Provider() string  { return "mock" }
func (m *MockModel) ModelName() string { return "mock-vision" }

func (m *MockModel) Describe(ctx context.Context, req vision.Request) (*vision.Reply, error) {
	args := m.Called(ctx, req)
	reply, _ := args.Get(0).(*vision.Reply)
	return reply, args.Error(1)
}

// TextReply builds the reply a backend would return for text.
func TextReply(text string) *vision.Reply {
	return &vision.Reply{Text: text, Provider: "mock", Model: "mock-vision", FinishReason: "STOP"}
}
