package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Cedarline-Labs/civichub/internal/db"
	"github.com/Cedarline-Labs/civichub/internal/http/api"
	"github.com/Cedarline-Labs/civichub/internal/http/api/admin/packets"
	"github.com/Cedarline-Labs/civichub/internal/model"
	"github.com/Cedarline-Labs/civichub/internal/schedule"
	"github.com/Cedarline-Labs/civichub/internal/scheduler"
)

type ScheduleController struct {
	store    db.Store
	executor *scheduler.Executor
	clock    schedule.Clock
}

func NewScheduleController(store db.Store, executor *scheduler.Executor, clock schedule.Clock) *ScheduleController {
	return &ScheduleController{store: store, executor: executor, clock: clock}
}

func ScheduleModule(store db.Store, executor *scheduler.Executor, clock schedule.Clock) api.Module {
	ctl := NewScheduleController(store, executor, clock)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/surveys/schedules", ctl.listSchedules)
		c.POST("/surveys/schedules", ctl.createSchedule)
		c.PATCH("/surveys/schedules/:id", ctl.updateSchedule)
		c.DELETE("/surveys/schedules/:id", ctl.deleteSchedule)

		c.POST("/surveys/schedules/:id/toggle", ctl.setActive)
		c.POST("/surveys/schedules/:id/run", ctl.runNow)
		c.GET("/surveys/schedules/:id/executions", ctl.listExecutions)

		// aggregate view, separate segment so it cannot collide with :id
		c.GET("/surveys/stats", ctl.statistics)
	})
}

func scheduleError(err error) *api.APIError {
	var verr *schedule.ValidationError
	switch {
	case errors.As(err, &verr):
		return &api.APIError{Code: http.StatusBadRequest, Message: verr.Error()}
	case errors.Is(err, db.ErrNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
	case errors.Is(err, scheduler.ErrExecutionInProgress):
		return &api.APIError{Code: http.StatusConflict, Message: "schedule is already executing"}
	default:
		return &api.APIError{Code: http.StatusInternalServerError, Message: "internal error"}
	}
}

func (s *ScheduleController) listSchedules(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	list, err := s.store.ListSchedules()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list schedules"}
	}

	response := make([]packets.ScheduleResponse, 0, len(list))
	for _, it := range list {
		response = append(response, packets.NewScheduleResponse(it))
	}
	return response, nil
}

func (s *ScheduleController) createSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	startDate, err := time.Parse("2006-01-02", request.StartDate)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "start_date must be YYYY-MM-DD"}
	}

	active := true
	if request.IsActive != nil {
		active = *request.IsActive
	}

	sc := model.SurveySchedule{
		Name:                 request.Name,
		SurveyType:           model.SurveyType(request.SurveyType),
		NotificationMethod:   model.NotificationMethod(request.NotificationMethod),
		Frequency:            model.Frequency(request.Frequency),
		TargetHouseholds:     model.TargetMode(request.TargetHouseholds),
		SpecificHouseholdIDs: pq.Int64Array(request.SpecificHouseholdIDs),
		CustomMessage:        request.CustomMessage,
		IsActive:             active,
		StartDate:            startDate,
		ScheduledTime:        request.ScheduledTime,
		DayOfWeek:            request.DayOfWeek,
		DayOfMonth:           request.DayOfMonth,
		CreatedBy:            user.ID,
	}

	// nothing is persisted when the configuration is inconsistent
	if err := schedule.Validate(sc); err != nil {
		return nil, scheduleError(err)
	}

	if sc.IsActive {
		next, err := schedule.NextRun(sc, s.clock.Now())
		if err != nil {
			return nil, scheduleError(err)
		}
		sc.NextRunDate = &next
	}

	created, err := s.store.CreateSchedule(sc)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create schedule"}
	}
	return packets.NewScheduleResponse(created), nil
}

func (s *ScheduleController) updateSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.UpdateScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	existing, err := s.store.GetSchedule(id)
	if err != nil {
		return nil, scheduleError(err)
	}

	merged, update, apiErr := mergeScheduleUpdate(existing, request)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := schedule.Validate(merged); err != nil {
		return nil, scheduleError(err)
	}

	// next_run_date follows timing edits; non-timing edits leave it alone
	if request.TimingChanged() && merged.IsActive {
		next, err := schedule.NextRun(merged, s.clock.Now())
		if err != nil {
			return nil, scheduleError(err)
		}
		update.NextRun = &next
	}

	updated, err := s.store.UpdateSchedule(id, update)
	if err != nil {
		return nil, scheduleError(err)
	}
	return packets.NewScheduleResponse(updated), nil
}

func mergeScheduleUpdate(existing model.SurveySchedule, r packets.UpdateScheduleRequest) (model.SurveySchedule, db.ScheduleUpdate, *api.APIError) {
	merged := existing
	var u db.ScheduleUpdate

	if r.Name != nil {
		merged.Name = *r.Name
		u.Name = r.Name
	}
	if r.SurveyType != nil {
		merged.SurveyType = model.SurveyType(*r.SurveyType)
		u.SurveyType = &merged.SurveyType
	}
	if r.NotificationMethod != nil {
		merged.NotificationMethod = model.NotificationMethod(*r.NotificationMethod)
		u.NotificationMethod = &merged.NotificationMethod
	}
	if r.Frequency != nil {
		merged.Frequency = model.Frequency(*r.Frequency)
		u.Frequency = &merged.Frequency
	}
	if r.TargetHouseholds != nil {
		merged.TargetHouseholds = model.TargetMode(*r.TargetHouseholds)
		u.TargetHouseholds = &merged.TargetHouseholds
	}
	if r.SpecificHouseholdIDs != nil {
		ids := pq.Int64Array(*r.SpecificHouseholdIDs)
		merged.SpecificHouseholdIDs = ids
		u.SpecificHouseholdIDs = &ids
	}
	if r.CustomMessage != nil {
		merged.CustomMessage = r.CustomMessage
		u.CustomMessage = r.CustomMessage
	}
	if r.StartDate != nil {
		startDate, err := time.Parse("2006-01-02", *r.StartDate)
		if err != nil {
			return merged, u, &api.APIError{Code: http.StatusBadRequest, Message: "start_date must be YYYY-MM-DD"}
		}
		merged.StartDate = startDate
		u.StartDate = &startDate
	}
	if r.ScheduledTime != nil {
		merged.ScheduledTime = *r.ScheduledTime
		u.ScheduledTime = r.ScheduledTime
	}
	if r.DayOfWeek != nil {
		merged.DayOfWeek = r.DayOfWeek
		u.DayOfWeek = r.DayOfWeek
	}
	if r.DayOfMonth != nil {
		merged.DayOfMonth = r.DayOfMonth
		u.DayOfMonth = r.DayOfMonth
	}
	return merged, u, nil
}

// setActive sets the desired activation state. Activating recomputes the
// next run from now; deactivating hides the schedule from the due scan and
// leaves next_run_date stale. Setting the current state again changes
// nothing.
func (s *ScheduleController) setActive(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.SetActiveRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	existing, err := s.store.GetSchedule(id)
	if err != nil {
		return nil, scheduleError(err)
	}

	active := *request.IsActive
	if existing.IsActive == active {
		return packets.NewScheduleResponse(existing), nil
	}

	var nextRun *time.Time
	if active {
		next, err := schedule.NextRun(existing, s.clock.Now())
		if err != nil {
			return nil, scheduleError(err)
		}
		nextRun = &next
	}

	updated, err := s.store.SetScheduleActive(id, active, nextRun)
	if err != nil {
		return nil, scheduleError(err)
	}
	return packets.NewScheduleResponse(updated), nil
}

func (s *ScheduleController) runNow(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	result, updated, err := s.executor.Execute(ctx.Request.Context(), id, model.TriggerManual)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Int("user_id", user.ID).Msg("manual run failed")
		return nil, scheduleError(err)
	}

	return packets.RunNowResponse{
		SurveysSent: result.Sent,
		Attempted:   result.Attempted,
		Failed:      result.Failed,
		Schedule:    packets.NewScheduleResponse(updated),
	}, nil
}

func (s *ScheduleController) deleteSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if err := s.store.DeleteSchedule(id); err != nil {
		return nil, scheduleError(err)
	}
	return gin.H{"message": "deleted"}, nil
}

func (s *ScheduleController) listExecutions(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	// confirm the schedule exists so an unknown id is a 404, not an empty list
	if _, err := s.store.GetSchedule(id); err != nil {
		return nil, scheduleError(err)
	}

	records, err := s.store.ListExecutions(id, limit)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list executions"}
	}

	response := make([]packets.ExecutionResponse, 0, len(records))
	for _, r := range records {
		response = append(response, packets.NewExecutionResponse(r))
	}
	return response, nil
}

// statistics never fails on schedule-level problems; it is a single
// aggregate read.
func (s *ScheduleController) statistics(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	stats, err := s.store.ScheduleStats(s.clock.Now())
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to compute statistics"}
	}
	return stats, nil
}
