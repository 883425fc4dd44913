package notify

import (
	"context"
	"log/slog"
	"sync"
)

type taskKind int

const (
	taskNotification taskKind = iota
	taskEmail
)

type task struct {
	kind         taskKind
	notification Notification
	email        Email
}

// AsyncSink decouples delivery latency from the caller's request path: submits
// are non-blocking channel sends and the supervisor goroutine only logs
// failures. When the queue is saturated the task is dropped with a warning
// rather than blocking a state transition.
type AsyncSink struct {
	inner  Sink
	queue  chan task
	logger *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

func NewAsyncSink(inner Sink, queueSize int, logger *slog.Logger) *AsyncSink {
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncSink{
		inner:  inner,
		queue:  make(chan task, queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the delivery supervisor. Safe to call once; delivery stops
// when ctx is cancelled or Close is called.
func (s *AsyncSink) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.run(ctx)
	})
}

func (s *AsyncSink) Close() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

func (s *AsyncSink) CreateNotification(_ context.Context, notification Notification) error {
	s.submit(task{kind: taskNotification, notification: notification})
	return nil
}

func (s *AsyncSink) SendEmail(_ context.Context, email Email) error {
	s.submit(task{kind: taskEmail, email: email})
	return nil
}

func (s *AsyncSink) submit(t task) {
	select {
	case s.queue <- t:
	default:
		s.logger.Warn("dropping notification for saturated queue",
			"event", "notify_async_queue_drop",
			"module", "internal/shared/notify",
			"layer", "platform",
			"user_id", t.notification.UserID,
			"scenario", t.email.Scenario,
		)
	}
}

func (s *AsyncSink) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case t := <-s.queue:
			s.deliver(ctx, t)
		}
	}
}

func (s *AsyncSink) deliver(ctx context.Context, t task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notification delivery panicked",
				"event", "notify_async_delivery_panic",
				"module", "internal/shared/notify",
				"layer", "platform",
				"panic", r,
			)
		}
	}()

	switch t.kind {
	case taskNotification:
		if err := s.inner.CreateNotification(ctx, t.notification); err != nil {
			s.logger.Warn("notification delivery failed",
				"event", "notify_async_notification_failed",
				"module", "internal/shared/notify",
				"layer", "platform",
				"user_id", t.notification.UserID,
				"type", t.notification.Type,
				"error", err.Error(),
			)
		}
	case taskEmail:
		if err := s.inner.SendEmail(ctx, t.email); err != nil {
			s.logger.Warn("email delivery failed",
				"event", "notify_async_email_failed",
				"module", "internal/shared/notify",
				"layer", "platform",
				"to", t.email.To,
				"scenario", t.email.Scenario,
				"error", err.Error(),
			)
		}
	}
}
