// Package scheduler fires one-shot task reminders at precomputed times on a
// goroutine of its own, away from any request path.
package scheduler

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yukikurage/ai-todo/internal/constants"
	"github.com/yukikurage/ai-todo/internal/metrics"
	"github.com/yukikurage/ai-todo/internal/notify"
	"go.uber.org/zap"
)

type State string

const (
	StateScheduled State = "scheduled"
	StateFired     State = "fired"
	StateCancelled State = "cancelled"
)

// Job is a pending or finished reminder for one task.
type Job struct {
	TaskID  string
	Message string
	FireAt  time.Time
	State   State

	seq   uint64
	index int
}

type Options struct {
	// LeadTime is subtracted from the due time to get the fire time.
	LeadTime time.Duration
	// NotifyTimeout bounds a single sink call.
	NotifyTimeout time.Duration
	Logger        *zap.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Scheduler keeps at most one queued reminder per task and fires them in
// fire time order. Ties fire in the order they were scheduled.
type Scheduler struct {
	sink          notify.Sink
	leadTime      time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
	log           *zap.Logger

	mu     sync.Mutex
	queue  jobQueue
	byTask map[string]*Job
	seq    uint64
	// task ID to the seq of the job currently being delivered
	inFlight map[string]uint64

	wake chan struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Scheduler delivering to sink. It does nothing until Start or
// Run is called.
func New(sink notify.Sink, opts Options) *Scheduler {
	if opts.LeadTime <= 0 {
		opts.LeadTime = constants.DefaultReminderLeadTime
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = constants.DefaultNotifyTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scheduler{
		sink:          sink,
		leadTime:      opts.LeadTime,
		notifyTimeout: opts.NotifyTimeout,
		now:           opts.Now,
		log:           opts.Logger.Named("scheduler"),
		byTask:        make(map[string]*Job),
		inFlight:      make(map[string]uint64),
		wake:          make(chan struct{}, 1),
	}
}

// LeadTime returns how long before the due time reminders fire.
func (s *Scheduler) LeadTime() time.Duration {
	return s.leadTime
}

// Schedule queues a reminder for taskID at dueAt minus the lead time,
// replacing any reminder already queued for the task. It returns false and
// queues nothing when that fire time is not strictly in the future.
func (s *Scheduler) Schedule(taskID string, dueAt time.Time, message string) bool {
	fireAt := dueAt.Add(-s.leadTime)

	s.mu.Lock()
	replaced := s.removeLocked(taskID)
	if replaced {
		metrics.RemindersReplaced.Inc()
	}

	if !fireAt.After(s.now()) {
		s.mu.Unlock()
		metrics.RemindersSkipped.Inc()
		s.log.Debug("reminder skipped, fire time already passed",
			zap.String("task_id", taskID),
			zap.Time("fire_at", fireAt),
		)
		return false
	}

	s.seq++
	job := &Job{
		TaskID:  taskID,
		Message: message,
		FireAt:  fireAt,
		State:   StateScheduled,
		seq:     s.seq,
	}
	heap.Push(&s.queue, job)
	s.byTask[taskID] = job
	metrics.RemindersPending.Set(float64(len(s.queue)))
	s.mu.Unlock()

	metrics.RemindersScheduled.Inc()
	s.log.Debug("reminder scheduled", zap.String("task_id", taskID), zap.Time("fire_at", fireAt))
	s.poke()
	return true
}

// Cancel removes the queued reminder for taskID. It reports whether one was
// queued.
func (s *Scheduler) Cancel(taskID string) bool {
	s.mu.Lock()
	removed := s.removeLocked(taskID)
	s.mu.Unlock()

	if removed {
		metrics.RemindersCancelled.Inc()
		s.poke()
	}
	return removed
}

// Lookup returns the queued reminder for taskID.
func (s *Scheduler) Lookup(taskID string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byTask[taskID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Pending returns a snapshot of the queued reminders in firing order.
func (s *Scheduler) Pending() []Job {
	s.mu.Lock()
	jobs := make([]Job, 0, len(s.queue))
	for _, job := range s.queue {
		jobs = append(jobs, *job)
	}
	s.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].FireAt.Equal(jobs[j].FireAt) {
			return jobs[i].seq < jobs[j].seq
		}
		return jobs[i].FireAt.Before(jobs[j].FireAt)
	})
	return jobs
}

// Start runs the firing loop in the background until Stop.
func (s *Scheduler) Start() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		s.Run(ctx)
	}()
}

// Stop ends the firing loop and waits for an in-flight delivery to return.
// Queued reminders are kept.
func (s *Scheduler) Stop() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run fires reminders until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		due, wait := s.takeDue()
		for i, job := range due {
			if ctx.Err() != nil {
				s.clearInFlight(due[:i])
				s.requeue(due[i:])
				return
			}
			s.deliver(ctx, job)
		}
		s.clearInFlight(due)
		if len(due) > 0 {
			// delivery took time; look again before sleeping
			continue
		}

		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		if wait >= 0 {
			timer = time.NewTimer(wait)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-s.wake:
		case <-timerC:
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

// takeDue pops every job whose fire time has been reached and marks it fired.
// wait is the delay until the next job, or -1 when the queue is empty.
func (s *Scheduler) takeDue() ([]Job, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var due []Job
	for len(s.queue) > 0 && !s.queue[0].FireAt.After(now) {
		job := heap.Pop(&s.queue).(*Job)
		job.State = StateFired
		delete(s.byTask, job.TaskID)
		s.inFlight[job.TaskID] = job.seq
		due = append(due, *job)
	}
	metrics.RemindersPending.Set(float64(len(s.queue)))

	if len(s.queue) == 0 {
		return due, -1
	}
	return due, s.queue[0].FireAt.Sub(now)
}

// requeue puts jobs taken for delivery back in the queue, keeping their
// place. Jobs whose task was cancelled or rescheduled in the meantime are
// dropped.
func (s *Scheduler) requeue(jobs []Job) {
	s.mu.Lock()
	restored := 0
	for _, j := range jobs {
		seq, ok := s.inFlight[j.TaskID]
		delete(s.inFlight, j.TaskID)
		if !ok || seq != j.seq {
			continue
		}
		job := j
		job.State = StateScheduled
		heap.Push(&s.queue, &job)
		s.byTask[job.TaskID] = &job
		restored++
	}
	metrics.RemindersPending.Set(float64(len(s.queue)))
	s.mu.Unlock()

	s.log.Info("undelivered reminders kept for next start", zap.Int("count", restored))
}

// deliver hands job to the sink once. Failures are logged and not retried.
func (s *Scheduler) deliver(ctx context.Context, job Job) {
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	if err := s.sink.Notify(ctx, job.TaskID, job.Message); err != nil {
		metrics.RemindersFired.WithLabelValues(metrics.ResultFailed).Inc()
		s.log.Warn("reminder delivery failed",
			zap.String("task_id", job.TaskID),
			zap.Time("fire_at", job.FireAt),
			zap.Error(err),
		)
		return
	}

	metrics.RemindersFired.WithLabelValues(metrics.ResultDelivered).Inc()
	s.log.Info("reminder delivered", zap.String("task_id", job.TaskID), zap.Time("fire_at", job.FireAt))
}

func (s *Scheduler) clearInFlight(jobs []Job) {
	if len(jobs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range jobs {
		if s.inFlight[j.TaskID] == j.seq {
			delete(s.inFlight, j.TaskID)
		}
	}
}

func (s *Scheduler) removeLocked(taskID string) bool {
	delete(s.inFlight, taskID)
	job, ok := s.byTask[taskID]
	if !ok {
		return false
	}
	heap.Remove(&s.queue, job.index)
	job.State = StateCancelled
	delete(s.byTask, taskID)
	metrics.RemindersPending.Set(float64(len(s.queue)))
	return true
}

// poke wakes the firing loop so it recomputes its sleep.
func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
