package api

import (
	"context"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"prism-todo/prism-api/domain"
)

// DispatcherConfig sizes the event worker pool.
type DispatcherConfig struct {
	Workers        int
	Buffer         int
	PublishTimeout time.Duration
	HandoffTimeout time.Duration
}

// DispatcherConfigFromEnv reads EVENT_WORKERS, EVENT_BUFFER, EVENT_TIMEOUT and
// EVENT_HANDOFF_TIMEOUT, falling back to CPU based defaults.
func DispatcherConfigFromEnv(publishers int) DispatcherConfig {
	workers, buffer := computeWorkerDefaults(publishers, runtime.NumCPU())
	return DispatcherConfig{
		Workers:        envInt("EVENT_WORKERS", workers),
		Buffer:         envInt("EVENT_BUFFER", buffer),
		PublishTimeout: envDur("EVENT_TIMEOUT", 10*time.Second),
		HandoffTimeout: envDur("EVENT_HANDOFF_TIMEOUT", 15*time.Millisecond),
	}
}

func computeWorkerDefaults(publishers, cpu int) (workers, buffer int) {
	if publishers < 1 {
		publishers = 1
	}
	if cpu < 1 {
		cpu = 1
	}
	workers = publishers * cpu * 2
	if workers < 4 {
		workers = 4
	}
	if workers > 64 {
		workers = 64
	}
	return workers, workers * 128
}

// EventDispatcher publishes task events in the background so that a slow or
// failing publisher never delays or fails an API response. Events that do not
// fit in the buffer within the handoff timeout are dropped and logged.
type EventDispatcher struct {
	cfg        DispatcherConfig
	publishers []Publisher
	logger     *log.Logger

	mu       sync.RWMutex
	jobs     chan domain.TaskEvent
	workerWG sync.WaitGroup
}

// NewEventDispatcher starts cfg.Workers goroutines delivering to publishers.
func NewEventDispatcher(publishers []Publisher, cfg DispatcherConfig, logger *log.Logger) *EventDispatcher {
	if logger == nil {
		panic("Logger is not initialized")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Buffer < 0 {
		cfg.Buffer = 0
	}
	d := &EventDispatcher{
		cfg:        cfg,
		publishers: publishers,
		logger:     logger,
		jobs:       make(chan domain.TaskEvent, cfg.Buffer),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.workerWG.Add(1)
		go d.worker(i, d.jobs)
	}
	logger.Infof("event dispatcher started, workers: %d, buffer: %d, timeout: %v, handoff: %v, publishers: %d",
		cfg.Workers, cfg.Buffer, cfg.PublishTimeout, cfg.HandoffTimeout, len(publishers))
	return d
}

func (d *EventDispatcher) worker(id int, jobCh <-chan domain.TaskEvent) {
	defer d.workerWG.Done()
	for ev := range jobCh {
		for _, p := range d.publishers {
			ctx, cancel := context.WithTimeout(context.Background(), d.cfg.PublishTimeout)
			err := p.Publish(ctx, ev)
			cancel()
			if err != nil {
				d.logger.WithFields(log.Fields{
					"publisher": p.Name(),
					"event":     ev.Type,
					"task_id":   ev.TaskID,
					"worker":    id,
				}).WithError(err).Error("publish task event failed")
			}
		}
	}
}

// Dispatch hands ev to the worker pool.
func (d *EventDispatcher) Dispatch(ev domain.TaskEvent) {
	if !d.tryEnqueue(ev) {
		d.logger.WithFields(log.Fields{"event": ev.Type, "task_id": ev.TaskID}).Warn("event buffer saturated; dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *EventDispatcher) Close() {
	d.mu.Lock()
	if d.jobs != nil {
		close(d.jobs)
		d.jobs = nil
	}
	d.mu.Unlock()
	d.workerWG.Wait()
}

func (d *EventDispatcher) tryEnqueue(ev domain.TaskEvent) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.jobs == nil {
		return false
	}

	if trySendNonBlocking(d.jobs, ev) {
		return true
	}

	if d.cfg.HandoffTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(d.cfg.HandoffTimeout)
	defer timer.Stop()
	return sendWithTimer(d.jobs, ev, timer.C)
}

func trySendNonBlocking(ch chan domain.TaskEvent, ev domain.TaskEvent) bool {
	select {
	case ch <- ev:
		return true
	default:
		return false
	}
}

func sendWithTimer(ch chan domain.TaskEvent, ev domain.TaskEvent, timer <-chan time.Time) bool {
	select {
	case ch <- ev:
		return true
	case <-timer:
		return false
	}
}
