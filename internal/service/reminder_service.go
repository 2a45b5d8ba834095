package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"nagger/internal/logger"
	"nagger/internal/model"
	"nagger/internal/reminder"
)

// ReminderStore is the storage side of the sweep.
type ReminderStore interface {
	FetchPendingPairs(ctx context.Context, now time.Time) ([]model.PendingReminder, error)
	// RecordDelivery persists the new fire times and the history row atomically.
	RecordDelivery(ctx context.Context, pair model.PendingReminder, flavor model.Flavor, firedAt, nextFire time.Time) error
}

// Dispatcher delivers a rendered reminder to a chat. It returns an error wrapping
// ErrDestinationUnreachable for permanent failures; any other error is transient.
type Dispatcher interface {
	Send(ctx context.Context, chatID int64, text string, flavor model.Flavor) error
}

// SweepStats summarizes one sweep.
type SweepStats struct {
	Pairs       int
	Sent        int
	Unreachable int
	Failed      int
}

type outcome int

const (
	outcomeIdle outcome = iota
	outcomeSent
	outcomeUnreachable
	outcomeFailed
	outcomeAbandoned
)

// ReminderService periodically evaluates pending reminders and delivers the due ones.
type ReminderService struct {
	store      ReminderStore
	dispatcher Dispatcher
	zones      *ZoneResolver
	log        *logger.Logger
	workers    int
	now        func() time.Time
	running    sync.Mutex
}

func NewReminderService(store ReminderStore, dispatcher Dispatcher, zones *ZoneResolver, log *logger.Logger, workers int) *ReminderService {
	if workers <= 0 {
		workers = 1
	}
	return &ReminderService{
		store:      store,
		dispatcher: dispatcher,
		zones:      zones,
		log:        log.With("component", "reminders"),
		workers:    workers,
		now:        time.Now,
	}
}

// Sweep runs one evaluation pass over all pending pairs. Pairs are handled
// independently: a failure in one never affects the others. A cancelled ctx stops
// the sweep between pairs.
func (s *ReminderService) Sweep(ctx context.Context) (SweepStats, error) {
	if !s.running.TryLock() {
		return SweepStats{}, ErrSweepInProgress
	}
	defer s.running.Unlock()

	log := s.log.With("sweep_id", uuid.NewString())
	now := s.now().UTC()

	pairs, err := s.store.FetchPendingPairs(ctx, now)
	if err != nil {
		log.Error("fetch pending reminders failed, skipping tick", "error", err)
		return SweepStats{}, fmt.Errorf("fetch pending pairs: %w", err)
	}

	var sent, unreachable, failed atomic.Int32
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for _, pair := range pairs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			switch s.process(ctx, log, pair, now) {
			case outcomeSent:
				sent.Add(1)
			case outcomeUnreachable:
				unreachable.Add(1)
			case outcomeFailed:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats := SweepStats{
		Pairs:       len(pairs),
		Sent:        int(sent.Load()),
		Unreachable: int(unreachable.Load()),
		Failed:      int(failed.Load()),
	}
	if stats.Sent > 0 || stats.Failed > 0 || stats.Unreachable > 0 {
		log.Info("sweep finished", "pairs", stats.Pairs, "sent", stats.Sent, "unreachable", stats.Unreachable, "failed", stats.Failed)
	} else {
		log.Debug("sweep finished", "pairs", stats.Pairs)
	}
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("sweep interrupted: %w", err)
	}
	return stats, nil
}

func (s *ReminderService) process(ctx context.Context, log *logger.Logger, pair model.PendingReminder, now time.Time) (out outcome) {
	log = log.With("task_id", pair.Task.ID, "policy_id", pair.Policy.ID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("reminder evaluation panicked", "panic", r)
			out = outcomeFailed
		}
	}()

	if ctx.Err() != nil {
		return outcomeAbandoned
	}
	if err := pair.Policy.Validate(); err != nil {
		log.Warn("skipping invalid policy", "error", err)
		return outcomeFailed
	}

	loc := s.zones.Resolve(pair.Owner.Timezone)
	decision := reminder.Evaluate(pair.Task, pair.Policy, now, loc)
	if !decision.Fire {
		return outcomeIdle
	}
	flavor := decision.Flavor()
	text := reminder.Render(pair.Task, pair.Policy, flavor, now, loc)

	if err := s.dispatcher.Send(ctx, pair.Owner.TelegramID, text, flavor); err != nil {
		if errors.Is(err, ErrDestinationUnreachable) {
			log.Warn("recipient unreachable, reminder dropped", "chat_id", pair.Owner.TelegramID, "error", err)
			return outcomeUnreachable
		}
		log.Warn("send reminder failed, will retry next tick", "error", err)
		return outcomeFailed
	}

	fired := pair.Policy
	fired.LastFiredAt = &now
	next := reminder.NextFireHint(fired, now)
	// The message is out; persist even if the sweep deadline just passed.
	if err := s.store.RecordDelivery(context.WithoutCancel(ctx), pair, flavor, now, next); err != nil {
		log.Error("record delivery failed", "error", err)
		return outcomeFailed
	}
	log.Debug("reminder sent", "flavor", flavor, "next_fire", next)
	return outcomeSent
}

// SendTest delivers a sample of the task's reminder without touching its state.
func (s *ReminderService) SendTest(ctx context.Context, owner model.User, task model.Task) error {
	var policy model.ReminderPolicy
	if len(task.Policies) > 0 {
		policy = task.Policies[0]
	}
	text := reminder.RenderTest(task, policy, s.zones.Resolve(owner.Timezone))
	if err := s.dispatcher.Send(ctx, owner.TelegramID, text, model.FlavorNormal); err != nil {
		return fmt.Errorf("send test reminder: %w", err)
	}
	return nil
}
