package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Cedarline-Labs/civichub/internal/model"
)

const scheduleColumns = `
	id, name, survey_type, notification_method, frequency,
	target_households, specific_household_ids, custom_message,
	is_active, start_date, scheduled_time, day_of_week, day_of_month,
	next_run_date, total_runs, surveys_sent, created_by, created_at, updated_at`

// ScheduleUpdate is a partial update; nil fields keep their current value.
// NextRun is set by the caller when a timing-relevant field changed.
type ScheduleUpdate struct {
	Name                 *string
	SurveyType           *model.SurveyType
	NotificationMethod   *model.NotificationMethod
	Frequency            *model.Frequency
	TargetHouseholds     *model.TargetMode
	SpecificHouseholdIDs *pq.Int64Array
	CustomMessage        *string
	StartDate            *time.Time
	ScheduledTime        *string
	DayOfWeek            *int
	DayOfMonth           *int
	NextRun              *time.Time
}

func (s *pgStore) CreateSchedule(in model.SurveySchedule) (model.SurveySchedule, error) {
	var out model.SurveySchedule
	const q = `
	INSERT INTO survey_schedules
	  (name, survey_type, notification_method, frequency,
	   target_households, specific_household_ids, custom_message,
	   is_active, start_date, scheduled_time, day_of_week, day_of_month,
	   next_run_date, total_runs, surveys_sent, created_by, created_at, updated_at)
	VALUES
	  ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0, 0, $14, now(), now())
	RETURNING` + scheduleColumns + `;`
	err := s.db.Get(&out, q,
		in.Name, in.SurveyType, in.NotificationMethod, in.Frequency,
		in.TargetHouseholds, in.SpecificHouseholdIDs, in.CustomMessage,
		in.IsActive, in.StartDate, in.ScheduledTime, in.DayOfWeek, in.DayOfMonth,
		in.NextRunDate, in.CreatedBy)
	if err != nil {
		log.Error().Err(err).Msg("CreateSchedule failed")
		return model.SurveySchedule{}, err
	}
	return out, nil
}

func (s *pgStore) GetSchedule(id int) (model.SurveySchedule, error) {
	var out model.SurveySchedule
	const q = `SELECT` + scheduleColumns + ` FROM survey_schedules WHERE id = $1;`
	if err := s.db.Get(&out, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SurveySchedule{}, ErrNotFound
		}
		log.Error().Err(err).Int("schedule_id", id).Msg("GetSchedule failed")
		return model.SurveySchedule{}, err
	}
	return out, nil
}

// ListSchedules orders active schedules first, each group by soonest next
// run; schedules without one sort last.
func (s *pgStore) ListSchedules() ([]model.SurveySchedule, error) {
	var out []model.SurveySchedule
	const q = `
	SELECT` + scheduleColumns + `
	  FROM survey_schedules
	 ORDER BY is_active DESC, next_run_date ASC NULLS LAST, id ASC;`
	if err := s.db.Select(&out, q); err != nil {
		log.Error().Err(err).Msg("ListSchedules failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdateSchedule(id int, u ScheduleUpdate) (model.SurveySchedule, error) {
	var out model.SurveySchedule
	const q = `
	UPDATE survey_schedules
	   SET name                   = COALESCE($2, name),
	       survey_type            = COALESCE($3, survey_type),
	       notification_method    = COALESCE($4, notification_method),
	       frequency              = COALESCE($5, frequency),
	       target_households      = COALESCE($6, target_households),
	       specific_household_ids = COALESCE($7, specific_household_ids),
	       custom_message         = COALESCE($8, custom_message),
	       start_date             = COALESCE($9, start_date),
	       scheduled_time         = COALESCE($10, scheduled_time),
	       day_of_week            = COALESCE($11, day_of_week),
	       day_of_month           = COALESCE($12, day_of_month),
	       next_run_date          = COALESCE($13, next_run_date),
	       updated_at             = now()
	 WHERE id = $1
	RETURNING` + scheduleColumns + `;`
	err := s.db.Get(&out, q, id,
		u.Name, u.SurveyType, u.NotificationMethod, u.Frequency,
		u.TargetHouseholds, u.SpecificHouseholdIDs, u.CustomMessage,
		u.StartDate, u.ScheduledTime, u.DayOfWeek, u.DayOfMonth, u.NextRun)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SurveySchedule{}, ErrNotFound
		}
		log.Error().Err(err).Int("schedule_id", id).Msg("UpdateSchedule failed")
		return model.SurveySchedule{}, err
	}
	return out, nil
}

// SetScheduleActive toggles a schedule. nextRun is non-nil only on
// activation; deactivation leaves next_run_date stale, the due scan ignores
// inactive rows anyway.
func (s *pgStore) SetScheduleActive(id int, active bool, nextRun *time.Time) (model.SurveySchedule, error) {
	var out model.SurveySchedule
	const q = `
	UPDATE survey_schedules
	   SET is_active     = $2,
	       next_run_date = COALESCE($3, next_run_date),
	       updated_at    = now()
	 WHERE id = $1
	RETURNING` + scheduleColumns + `;`
	if err := s.db.Get(&out, q, id, active, nextRun); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SurveySchedule{}, ErrNotFound
		}
		log.Error().Err(err).Int("schedule_id", id).Msg("SetScheduleActive failed")
		return model.SurveySchedule{}, err
	}
	return out, nil
}

func (s *pgStore) DeleteSchedule(id int) error {
	res, err := s.db.Exec(`DELETE FROM survey_schedules WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("DeleteSchedule failed")
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DueSchedules returns active schedules whose next run has arrived, ordered
// by next_run_date then id for deterministic sweep processing.
func (s *pgStore) DueSchedules(cutoff time.Time) ([]model.SurveySchedule, error) {
	var out []model.SurveySchedule
	const q = `
	SELECT` + scheduleColumns + `
	  FROM survey_schedules
	 WHERE is_active = true
	   AND next_run_date IS NOT NULL
	   AND next_run_date <= $1
	 ORDER BY next_run_date ASC, id ASC;`
	if err := s.db.Select(&out, q, cutoff); err != nil {
		log.Error().Err(err).Msg("DueSchedules failed")
		return nil, err
	}
	return out, nil
}

// ApplyExecution persists one execution's outcome: bumps the run counters,
// stores the recomputed next run and appends the history row, all in a
// single transaction.
func (s *pgStore) ApplyExecution(id int, rec model.ExecutionRecord, nextRun time.Time) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
	UPDATE survey_schedules
	   SET total_runs    = total_runs + 1,
	       surveys_sent  = surveys_sent + $2,
	       next_run_date = $3,
	       updated_at    = now()
	 WHERE id = $1;`, id, rec.Sent, nextRun)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("ApplyExecution update failed")
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(`
	INSERT INTO survey_executions
	  (schedule_id, run_trigger, attempted, sent, failed, started_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		id, rec.Trigger, rec.Attempted, rec.Sent, rec.Failed, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("ApplyExecution insert failed")
		return err
	}

	return tx.Commit()
}

func (s *pgStore) ListExecutions(scheduleID, limit int) ([]model.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []model.ExecutionRecord
	const q = `
	SELECT id, schedule_id, run_trigger, attempted, sent, failed, started_at, finished_at
	  FROM survey_executions
	 WHERE schedule_id = $1
	 ORDER BY started_at DESC, id DESC
	 LIMIT $2;`
	if err := s.db.Select(&out, q, scheduleID, limit); err != nil {
		log.Error().Err(err).Int("schedule_id", scheduleID).Msg("ListExecutions failed")
		return nil, err
	}
	return out, nil
}

// ScheduleStats aggregates the reporting view. The query skips nothing and
// never fails on individual rows; now feeds the 24h lookahead cutoff.
func (s *pgStore) ScheduleStats(now time.Time) (model.ScheduleStats, error) {
	var st model.ScheduleStats
	const q = `
	SELECT COUNT(*)                                         AS total_schedules,
	       COUNT(*) FILTER (WHERE is_active)                AS active_schedules,
	       COALESCE(SUM(total_runs), 0)                     AS total_runs,
	       COALESCE(SUM(surveys_sent), 0)                   AS total_surveys_sent,
	       COUNT(*) FILTER (WHERE is_active
	                          AND next_run_date IS NOT NULL
	                          AND next_run_date <= $1)      AS due_within_24h
	  FROM survey_schedules;`
	if err := s.db.Get(&st, q, now.Add(24*time.Hour)); err != nil {
		log.Error().Err(err).Msg("ScheduleStats failed")
		return model.ScheduleStats{}, err
	}
	return st, nil
}
