package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RecorderConfig configures the async audit recorder.
type RecorderConfig struct {
	// Enabled enables audit recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing an event to the sink.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *RecorderConfig) ApplyDefaults() {
	if c.AsyncBuffer == 0 {
		c.AsyncBuffer = 1000
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
}

// Recorder writes audit events asynchronously so decision paths never
// block on sink writes. A full buffer drops the event with a log entry
// rather than stalling the engine.
type Recorder struct {
	sink      Sink
	config    RecorderConfig
	eventChan chan *Event
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewRecorder creates an audit recorder and starts its background
// writer.
func NewRecorder(sink Sink, config RecorderConfig, logger *slog.Logger) *Recorder {
	config.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		sink:      sink,
		config:    config,
		eventChan: make(chan *Event, config.AsyncBuffer),
		done:      make(chan struct{}),
		logger:    logger.With("component", "audit"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
		"enabled", config.Enabled,
	)

	return r
}

// Record enqueues an event for async writing. The event id and
// timestamp are filled in when absent. Record never blocks on the sink.
func (r *Recorder) Record(event *Event) {
	if !r.config.Enabled || event == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	select {
	case r.eventChan <- event:
	default:
		r.logger.Error("audit channel full, dropping event",
			"event_id", event.ID,
			"type", event.Type,
			"channel_capacity", r.config.AsyncBuffer,
		)
	}
}

// Close drains the channel and waits for pending writes to complete.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down audit recorder")
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

// worker drains the event channel and writes to the sink.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case event := <-r.eventChan:
			r.writeEvent(event)

		case <-r.done:
			// Drain remaining events before exit.
			for {
				select {
				case event := <-r.eventChan:
					r.writeEvent(event)
				default:
					r.logger.Info("audit channel drained")
					return
				}
			}
		}
	}
}

func (r *Recorder) writeEvent(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.sink.Store(ctx, event); err != nil {
		r.logger.Error("failed to store audit event",
			"event_id", event.ID,
			"type", event.Type,
			"error", err,
		)
		return
	}

	r.logger.Debug("audit event recorded",
		"event_id", event.ID,
		"type", event.Type,
		"session_id", event.SessionID,
	)
}
