package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/Cedarline-Labs/civichub/internal/model"
	"github.com/Cedarline-Labs/civichub/internal/schedule"
)

// Sweep is the periodic driver: on every tick it scans for due schedules and
// hands each to the executor. Schedules run concurrently with each other;
// the per-schedule lock keeps any single schedule serial, so a tick racing a
// manual run simply skips that schedule.
type Sweep struct {
	cronEngine  *cron.Cron
	executor    *Executor
	store       Store
	clock       schedule.Clock
	spec        string
	tickTimeout time.Duration
}

func NewSweep(executor *Executor, store Store, clock schedule.Clock, loc *time.Location, spec string, tickTimeout time.Duration) *Sweep {
	if spec == "" {
		spec = "* * * * *" // every minute
	}
	if tickTimeout <= 0 {
		tickTimeout = 10 * time.Minute
	}
	return &Sweep{
		cronEngine:  cron.New(cron.WithLocation(loc)),
		executor:    executor,
		store:       store,
		clock:       clock,
		spec:        spec,
		tickTimeout: tickTimeout,
	}
}

// Start registers the tick job and starts the cron engine.
func (s *Sweep) Start() error {
	_, err := s.cronEngine.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.tickTimeout)
		defer cancel()
		s.Tick(ctx)
	})
	if err != nil {
		return err
	}
	s.cronEngine.Start()
	log.Info().Str("spec", s.spec).Msg("survey sweep started")
	return nil
}

// Tick runs one sweep pass. A failing schedule never halts processing of the
// other due schedules.
func (s *Sweep) Tick(ctx context.Context) {
	now := s.clock.Now()
	due, err := s.store.DueSchedules(now)
	if err != nil {
		log.Error().Err(err).Msg("sweep: due scan failed")
		return
	}
	if len(due) == 0 {
		return
	}
	log.Info().Int("due", len(due)).Time("ref", now).Msg("sweep: executing due schedules")

	var wg sync.WaitGroup
	for _, sch := range due {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, _, err := s.executor.Execute(ctx, id, model.TriggerAutomatic)
			switch {
			case errors.Is(err, ErrExecutionInProgress):
				log.Debug().Int("schedule_id", id).Msg("sweep: schedule busy, skipping")
			case err != nil:
				log.Error().Err(err).Int("schedule_id", id).Msg("sweep: schedule execution failed")
			}
		}(sch.ID)
	}
	wg.Wait()
}

// Stop drains the cron engine, waiting for running jobs.
func (s *Sweep) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	log.Info().Msg("survey sweep stopped")
}
