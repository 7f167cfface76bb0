// Package usage emits fire-and-forget success/failure telemetry for
// provider attempts. Events are buffered and dropped under pressure; the
// logger can never fail or block the primary request.
package usage

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

// Event is one attempt outcome.
type Event struct {
	RequestID    string
	Provider     string
	Model        string
	QueryType    models.QueryType
	Tier         int
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Cached       bool
	FallbackUsed bool
	Success      bool
	Error        string
}

// Logger drains events on a single goroutine.
type Logger struct {
	log *logrus.Logger
	ch  chan Event
	wg  sync.WaitGroup

	closeOnce sync.Once
}

func NewLogger(log *logrus.Logger, buffer int) *Logger {
	if log == nil {
		log = logrus.New()
	}
	if buffer <= 0 {
		buffer = 256
	}
	l := &Logger{
		log: log,
		ch:  make(chan Event, buffer),
	}
	l.wg.Add(1)
	go l.drain()
	return l
}

func (l *Logger) drain() {
	defer l.wg.Done()
	for ev := range l.ch {
		fields := logrus.Fields{
			"request_id":    ev.RequestID,
			"provider":      ev.Provider,
			"model":         ev.Model,
			"query_type":    ev.QueryType,
			"tier":          ev.Tier,
			"input_tokens":  ev.InputTokens,
			"output_tokens": ev.OutputTokens,
			"latency_ms":    ev.LatencyMs,
			"cached":        ev.Cached,
			"fallback_used": ev.FallbackUsed,
		}
		if ev.Success {
			l.log.WithFields(fields).Info("Usage: request completed")
		} else {
			fields["error"] = ev.Error
			l.log.WithFields(fields).Warn("Usage: attempt failed")
		}
	}
}

// LogSuccess records a completed request. Never blocks; drops when full.
func (l *Logger) LogSuccess(ev Event) {
	ev.Success = true
	l.send(ev)
}

// LogFailure records a failed attempt. Never blocks; drops when full.
func (l *Logger) LogFailure(ev Event) {
	ev.Success = false
	l.send(ev)
}

func (l *Logger) send(ev Event) {
	defer func() {
		// Sends on a closed channel panic; a late event after Close is
		// not worth failing a request over.
		_ = recover()
	}()
	select {
	case l.ch <- ev:
	default:
	}
}

// Close flushes buffered events and stops the drain goroutine.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		close(l.ch)
		l.wg.Wait()
	})
}
