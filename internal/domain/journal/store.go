package journal

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"food-analyzer-go/internal/domain/eventbus"
	"food-analyzer-go/internal/domain/nutrition"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = stderrors.New("analysis record not found")

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Entry is one completed analysis. It holds no image bytes.
type Entry struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
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
	LatencyMS    int64             `json:"latency_ms"`
}

// Stats summarizes a store for the status endpoint.
type Stats struct {
	Driver string     `json:"driver"`
	Count  int64      `json:"count"`
	Newest *time.Time `json:"newest,omitempty"`
}

// Store persists journal entries. List returns newest first.
type Store interface {
	Save(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, limit int) ([]*Entry, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// EntryFromEvent converts a completion event into a new entry with a fresh id.
func EntryFromEvent(ev eventbus.AnalysisCompletedEvent) *Entry {
	created := ev.CompletedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return &Entry{
		ID:           uuid.NewString(),
		CreatedAt:    created,
		RequestID:    ev.RequestID,
		ImageDigest:  ev.ImageDigest,
		ImageWidth:   ev.ImageWidth,
		ImageHeight:  ev.ImageHeight,
		SourceFormat: ev.SourceFormat,
		Provider:     ev.Provider,
		Model:        ev.Model,
		Result:       ev.Result,
		RawReply:     ev.RawReply,
		Fields:       ev.Fields,
		LatencyMS:    ev.Latency.Milliseconds(),
	}
}

// ClampLimit applies the listing default and ceiling.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
