package journal

import (
	"context"
	"sync"
	"time"

	"food-analyzer-go/internal/domain/eventbus"
	"food-analyzer-go/internal/utils"
)

const saveTimeout = 5 * time.Second

// Subscriber is the part of the event bus the recorder needs.
type Subscriber interface {
	Subscribe(topic string, fn interface{}) error
	Unsubscribe(topic string, handler interface{}) error
}

// Recorder writes completed analyses to a store and counts failures by kind.
type Recorder struct {
	store  Store
	logger *utils.Logger

	mu       sync.Mutex
	saved    int64
	errors   int64
	failures map[string]int64
}

// RecorderStats is exposed on the status endpoint.
type RecorderStats struct {
	Saved      int64            `json:"saved"`
	SaveErrors int64            `json:"save_errors"`
	Failures   map[string]int64 `json:"failures"`
}

func NewRecorder(store Store, logger *utils.Logger) *Recorder {
	return &Recorder{
		store:    store,
		logger:   logger,
		failures: make(map[string]int64),
	}
}

// Attach subscribes the recorder to analysis events.
func (r *Recorder) Attach(bus Subscriber) error {
	if err := bus.Subscribe(eventbus.EventAnalysisCompleted, r.onCompleted); err != nil {
		return err
	}
	if err := bus.Subscribe(eventbus.EventAnalysisFailed, r.onFailed); err != nil {
		_ = bus.Unsubscribe(eventbus.EventAnalysisCompleted, r.onCompleted)
		return err
	}
	return nil
}

func (r *Recorder) onCompleted(ev eventbus.AnalysisCompletedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	entry := EntryFromEvent(ev)
	if err := r.store.Save(ctx, entry); err != nil {
		r.mu.Lock()
		r.errors++
		r.mu.Unlock()
		r.logger.WarnFields(utils.FormatLog("Journal", "save failed"), map[string]interface{}{
			"request_id": ev.RequestID,
			"error":      err.Error(),
		})
		return
	}

	r.mu.Lock()
	r.saved++
	r.mu.Unlock()
	r.logger.DebugFields(utils.FormatLog("Journal", "analysis recorded"), map[string]interface{}{
		"id":         entry.ID,
		"request_id": ev.RequestID,
		"food_item":  utils.SafeLogValue(ev.Result.FoodItem, 64),
	})
}

func (r *Recorder) onFailed(ev eventbus.AnalysisFailedEvent) {
	kind := ev.Kind
	if kind == "" {
		kind = "unknown"
	}
	r.mu.Lock()
	r.failures[kind]++
	r.mu.Unlock()
}

func (r *Recorder) Stats() RecorderStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	failures := make(map[string]int64, len(r.failures))
	for k, v := range r.failures {
		failures[k] = v
	}
	return RecorderStats{Saved: r.saved, SaveErrors: r.errors, Failures: failures}
}
