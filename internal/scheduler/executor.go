package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Cedarline-Labs/civichub/internal/model"
	"github.com/Cedarline-Labs/civichub/internal/notify"
	"github.com/Cedarline-Labs/civichub/internal/schedule"
)

// ErrExecutionInProgress is returned when a run is requested for a schedule
// that is already executing.
var ErrExecutionInProgress = errors.New("schedule execution already in progress")

// Store is the slice of persistence the executor and sweep need.
type Store interface {
	GetSchedule(id int) (model.SurveySchedule, error)
	ListActiveHouseholds() ([]model.Household, error)
	HouseholdsByIDs(ids []int64) ([]model.Household, error)
	ApplyExecution(id int, rec model.ExecutionRecord, nextRun time.Time) error
	DueSchedules(cutoff time.Time) ([]model.SurveySchedule, error)
}

// Executor runs one schedule end to end: resolve recipients, fan out
// notifications, aggregate the outcome, bump counters and reschedule.
type Executor struct {
	store            Store
	notifier         notify.Notifier
	locks            Locks
	clock            schedule.Clock
	workers          int
	recipientTimeout time.Duration
}

func NewExecutor(store Store, notifier notify.Notifier, locks Locks, clock schedule.Clock, workers int, recipientTimeout time.Duration) *Executor {
	if workers <= 0 {
		workers = 8
	}
	if recipientTimeout <= 0 {
		recipientTimeout = 15 * time.Second
	}
	return &Executor{
		store:            store,
		notifier:         notifier,
		locks:            locks,
		clock:            clock,
		workers:          workers,
		recipientTimeout: recipientTimeout,
	}
}

// Execute runs one schedule. Recipients are attempted independently: a
// failed delivery never aborts the run, it is counted and moved past. The
// schedule's counters and next run are persisted in one write; when that
// write fails nothing is counted.
func (e *Executor) Execute(ctx context.Context, scheduleID int, trigger model.ExecutionTrigger) (model.ExecutionResult, model.SurveySchedule, error) {
	release, acquired, err := e.locks.TryAcquire(ctx, scheduleID)
	if err != nil {
		return model.ExecutionResult{}, model.SurveySchedule{}, fmt.Errorf("acquiring schedule lock: %w", err)
	}
	if !acquired {
		return model.ExecutionResult{}, model.SurveySchedule{}, ErrExecutionInProgress
	}
	defer release()

	s, err := e.store.GetSchedule(scheduleID)
	if err != nil {
		return model.ExecutionResult{}, model.SurveySchedule{}, err
	}

	recipients, err := e.resolveRecipients(s)
	if err != nil {
		return model.ExecutionResult{}, model.SurveySchedule{}, err
	}

	startedAt := e.clock.Now()
	result := e.dispatch(ctx, s, recipients)
	finishedAt := e.clock.Now()

	nextRun, err := schedule.NextRun(s, finishedAt)
	if err != nil {
		// timing fields were validated on write; reaching this means the
		// stored row is inconsistent
		return result, model.SurveySchedule{}, fmt.Errorf("recomputing next run for schedule %d: %w", scheduleID, err)
	}

	rec := model.ExecutionRecord{
		ScheduleID: scheduleID,
		Trigger:    trigger,
		Attempted:  result.Attempted,
		Sent:       result.Sent,
		Failed:     result.Failed,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	if err := e.store.ApplyExecution(scheduleID, rec, nextRun); err != nil {
		return result, model.SurveySchedule{}, fmt.Errorf("persisting execution for schedule %d: %w", scheduleID, err)
	}

	updated, err := e.store.GetSchedule(scheduleID)
	if err != nil {
		return result, model.SurveySchedule{}, err
	}

	log.Info().
		Int("schedule_id", scheduleID).
		Str("trigger", string(trigger)).
		Int("attempted", result.Attempted).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Time("next_run", nextRun).
		Msg("schedule executed")

	return result, updated, nil
}

func (e *Executor) resolveRecipients(s model.SurveySchedule) ([]model.Household, error) {
	switch s.TargetHouseholds {
	case model.TargetAll:
		return e.store.ListActiveHouseholds()
	case model.TargetSpecific:
		if len(s.SpecificHouseholdIDs) == 0 {
			return nil, &schedule.ValidationError{Field: "specific_household_ids", Reason: "must be non-empty when targeting specific households"}
		}
		return e.store.HouseholdsByIDs(s.SpecificHouseholdIDs)
	default:
		return nil, &schedule.ValidationError{Field: "target_households", Reason: "unknown value " + string(s.TargetHouseholds)}
	}
}

// dispatch fans out to all recipients over a bounded worker pool. Each
// attempt gets its own timeout so a stalled transport cannot hold the sweep.
func (e *Executor) dispatch(ctx context.Context, s model.SurveySchedule, recipients []model.Household) model.ExecutionResult {
	var (
		wg   sync.WaitGroup
		sent int64
		sem  = make(chan struct{}, e.workers)
	)

	for _, h := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(h model.Household) {
			defer wg.Done()
			defer func() { <-sem }()

			msgCtx, cancel := context.WithTimeout(ctx, e.recipientTimeout)
			defer cancel()

			msg := notify.Compose(s, h)
			if err := e.notifier.Send(msgCtx, s.NotificationMethod, msg); err != nil {
				log.Warn().Err(err).
					Int("schedule_id", s.ID).
					Int("household_id", h.ID).
					Msg("survey delivery failed")
				return
			}
			atomic.AddInt64(&sent, 1)
		}(h)
	}
	wg.Wait()

	attempted := len(recipients)
	return model.ExecutionResult{
		Attempted: attempted,
		Sent:      int(sent),
		Failed:    attempted - int(sent),
	}
}
