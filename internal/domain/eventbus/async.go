package eventbus

import (
	"context"
	"sync"
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"

	"food-analyzer-go/internal/utils"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 256
)

// AsyncEventBus delivers events to subscribers on a fixed pool of workers.
// Publishing never blocks: when the queue is full the event is dropped.
type AsyncEventBus struct {
	bus       evbus.Bus
	workerNum int
	workChan  chan asyncEvent
	stopChan  chan struct{}
	wg        sync.WaitGroup
	pending   sync.WaitGroup
	logger    *utils.Logger

	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once

	delivered atomic.Int64
	dropped   atomic.Int64
	panics    atomic.Int64
}

type asyncEvent struct {
	topic string
	args  []interface{}
}

// Stats is a point-in-time view of the bus.
type Stats struct {
	Workers    int   `json:"workers"`
	QueueDepth int   `json:"queue_depth"`
	Delivered  int64 `json:"delivered"`
	Dropped    int64 `json:"dropped"`
	Panics     int64 `json:"panics"`
}

func NewAsyncEventBus(workerNum, queueSize int, logger *utils.Logger) *AsyncEventBus {
	if workerNum <= 0 {
		workerNum = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = utils.DefaultLogger
	}

	return &AsyncEventBus{
		bus:       New(),
		workerNum: workerNum,
		workChan:  make(chan asyncEvent, queueSize),
		stopChan:  make(chan struct{}),
		logger:    logger,
	}
}

func (aeb *AsyncEventBus) Start() {
	for i := 0; i < aeb.workerNum; i++ {
		aeb.wg.Add(1)
		go aeb.worker()
	}
}

// Stop refuses new events, delivers what is already queued and waits for the workers.
func (aeb *AsyncEventBus) Stop() {
	aeb.stopOnce.Do(func() {
		aeb.mu.Lock()
		aeb.stopped = true
		aeb.mu.Unlock()

		close(aeb.stopChan)
		aeb.wg.Wait()
	})
}

func (aeb *AsyncEventBus) worker() {
	defer aeb.wg.Done()

	for {
		select {
		case event := <-aeb.workChan:
			aeb.dispatch(event)
		case <-aeb.stopChan:
			for {
				select {
				case event := <-aeb.workChan:
					aeb.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (aeb *AsyncEventBus) dispatch(event asyncEvent) {
	defer aeb.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			aeb.panics.Add(1)
			aeb.logger.ErrorTag("Events", "subscriber panic on %s: %v", event.topic, r)
		}
	}()
	aeb.bus.Publish(event.topic, event.args...)
	aeb.delivered.Add(1)
}

// Publish delivers synchronously on the caller's goroutine.
func (aeb *AsyncEventBus) Publish(topic string, args ...interface{}) {
	aeb.bus.Publish(topic, args...)
}

// PublishAsync queues an event and reports whether it was accepted.
func (aeb *AsyncEventBus) PublishAsync(topic string, args ...interface{}) bool {
	aeb.mu.RLock()
	defer aeb.mu.RUnlock()
	if aeb.stopped {
		aeb.dropped.Add(1)
		return false
	}

	aeb.pending.Add(1)
	select {
	case aeb.workChan <- asyncEvent{topic: topic, args: args}:
		return true
	default:
		aeb.pending.Done()
		aeb.dropped.Add(1)
		aeb.logger.WarnTag("Events", "queue full, dropped %s", topic)
		return false
	}
}

func (aeb *AsyncEventBus) Subscribe(topic string, fn interface{}) error {
	return aeb.bus.Subscribe(topic, fn)
}

func (aeb *AsyncEventBus) Unsubscribe(topic string, handler interface{}) error {
	return aeb.bus.Unsubscribe(topic, handler)
}

func (aeb *AsyncEventBus) HasCallback(topic string) bool {
	return aeb.bus.HasCallback(topic)
}

// WaitIdle blocks until every accepted event has been delivered or ctx ends.
func (aeb *AsyncEventBus) WaitIdle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		aeb.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (aeb *AsyncEventBus) Stats() Stats {
	return Stats{
		Workers:    aeb.workerNum,
		QueueDepth: len(aeb.workChan),
		Delivered:  aeb.delivered.Load(),
		Dropped:    aeb.dropped.Load(),
		Panics:     aeb.panics.Load(),
	}
}
