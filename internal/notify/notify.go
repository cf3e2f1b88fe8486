// Package notify contains the delivery channels for fired reminders.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Sink delivers one reminder message about a task.
type Sink interface {
	Notify(ctx context.Context, taskID, message string) error
}

// LogSink writes reminders to the application log.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("reminders")}
}

func (s *LogSink) Notify(_ context.Context, taskID, message string) error {
	s.log.Info("reminder", zap.String("task_id", taskID), zap.String("message", message))
	return nil
}

// Multi delivers to every sink, even when an earlier one fails, and joins
// the errors.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, taskID, message string) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Notify(ctx, taskID, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
