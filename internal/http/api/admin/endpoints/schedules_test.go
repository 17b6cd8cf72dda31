package endpoints_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cedarline-Labs/civichub/internal/db"
	"github.com/Cedarline-Labs/civichub/internal/http/api"
	"github.com/Cedarline-Labs/civichub/internal/http/api/admin/endpoints"
	"github.com/Cedarline-Labs/civichub/internal/http/api/admin/packets"
	"github.com/Cedarline-Labs/civichub/internal/model"
	"github.com/Cedarline-Labs/civichub/internal/notify"
	"github.com/Cedarline-Labs/civichub/internal/schedule"
	"github.com/Cedarline-Labs/civichub/internal/scheduler"
)

// fakeStore is an in-memory db.Store for handler tests.
type fakeStore struct {
	mu         sync.Mutex
	nextID     int
	schedules  map[int]model.SurveySchedule
	households []model.Household
	executions map[int][]model.ExecutionRecord
	users      map[int]model.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:     1,
		schedules:  make(map[int]model.SurveySchedule),
		executions: make(map[int][]model.ExecutionRecord),
		users:      make(map[int]model.User),
	}
}

func (f *fakeStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := len(f.users) + 1
	f.users[id] = model.User{ID: id, Email: email, HashedPassword: hashedPassword, Name: name}
	return id, nil
}

func (f *fakeStore) GetUserByEmail(email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) GetUserByID(id int) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (f *fakeStore) UpdateUserProfile(id int, email string, name *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.Email = email
	u.Name = name
	f.users[id] = u
	return nil
}

func (f *fakeStore) CreateHousehold(headName, address string, email, phone *string) (model.Household, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := model.Household{ID: len(f.households) + 1, HeadName: headName, Address: address, ContactEmail: email, ContactPhone: phone, IsActive: true}
	f.households = append(f.households, h)
	return h, nil
}

func (f *fakeStore) ListHouseholds() ([]model.Household, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Household(nil), f.households...), nil
}

func (f *fakeStore) ListActiveHouseholds() ([]model.Household, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Household
	for _, h := range f.households {
		if h.IsActive {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) HouseholdsByIDs(ids []int64) ([]model.Household, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Household
	for _, h := range f.households {
		if want[int64(h.ID)] && h.IsActive {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateSchedule(s model.SurveySchedule) (model.SurveySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.nextID
	f.nextID++
	f.schedules[s.ID] = s
	return s, nil
}

func (f *fakeStore) GetSchedule(id int) (model.SurveySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return model.SurveySchedule{}, db.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) ListSchedules() ([]model.SurveySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SurveySchedule
	for _, s := range f.schedules {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) UpdateSchedule(id int, u db.ScheduleUpdate) (model.SurveySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return model.SurveySchedule{}, db.ErrNotFound
	}
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.SurveyType != nil {
		s.SurveyType = *u.SurveyType
	}
	if u.NotificationMethod != nil {
		s.NotificationMethod = *u.NotificationMethod
	}
	if u.Frequency != nil {
		s.Frequency = *u.Frequency
	}
	if u.TargetHouseholds != nil {
		s.TargetHouseholds = *u.TargetHouseholds
	}
	if u.SpecificHouseholdIDs != nil {
		s.SpecificHouseholdIDs = *u.SpecificHouseholdIDs
	}
	if u.CustomMessage != nil {
		s.CustomMessage = u.CustomMessage
	}
	if u.StartDate != nil {
		s.StartDate = *u.StartDate
	}
	if u.ScheduledTime != nil {
		s.ScheduledTime = *u.ScheduledTime
	}
	if u.DayOfWeek != nil {
		s.DayOfWeek = u.DayOfWeek
	}
	if u.DayOfMonth != nil {
		s.DayOfMonth = u.DayOfMonth
	}
	if u.NextRun != nil {
		s.NextRunDate = u.NextRun
	}
	f.schedules[id] = s
	return s, nil
}

func (f *fakeStore) SetScheduleActive(id int, active bool, nextRun *time.Time) (model.SurveySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return model.SurveySchedule{}, db.ErrNotFound
	}
	s.IsActive = active
	if nextRun != nil {
		s.NextRunDate = nextRun
	}
	f.schedules[id] = s
	return s, nil
}

func (f *fakeStore) DeleteSchedule(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.schedules[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.schedules, id)
	return nil
}

func (f *fakeStore) DueSchedules(cutoff time.Time) ([]model.SurveySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SurveySchedule
	for _, s := range f.schedules {
		if s.IsActive && s.NextRunDate != nil && !s.NextRunDate.After(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) ApplyExecution(id int, rec model.ExecutionRecord, nextRun time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return db.ErrNotFound
	}
	s.TotalRuns++
	s.SurveysSent += rec.Sent
	s.NextRunDate = &nextRun
	f.schedules[id] = s
	f.executions[id] = append(f.executions[id], rec)
	return nil
}

func (f *fakeStore) ListExecutions(scheduleID, limit int) ([]model.ExecutionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := f.executions[scheduleID]
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return append([]model.ExecutionRecord(nil), recs...), nil
}

func (f *fakeStore) ScheduleStats(now time.Time) (model.ScheduleStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats model.ScheduleStats
	cutoff := now.Add(24 * time.Hour)
	for _, s := range f.schedules {
		stats.TotalSchedules++
		if s.IsActive {
			stats.ActiveSchedules++
		}
		stats.TotalRuns += s.TotalRuns
		stats.TotalSurveysSent += s.SurveysSent
		if s.IsActive && s.NextRunDate != nil && !s.NextRunDate.After(cutoff) {
			stats.DueWithin24h++
		}
	}
	return stats, nil
}

var testNow = time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC) // Wednesday 08:00

func newTestRouter(t *testing.T, store *fakeStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := schedule.FixedClock{T: testNow}
	notifier := &notify.Router{Email: notify.LogSender{}, SMS: notify.LogSender{}}
	executor := scheduler.NewExecutor(store, notifier, scheduler.NewMemoryLocks(), clock, 0, 0)

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Middleware: []gin.HandlerFunc{func(c *gin.Context) {
			c.Set("currentUser", &model.User{ID: 1, Email: "clerk@town.example"})
		}},
	},
		endpoints.ScheduleModule(store, executor, clock),
		endpoints.HouseholdModule(store),
	)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedSchedule(store *fakeStore) model.SurveySchedule {
	monday := 1
	next := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	s, _ := store.CreateSchedule(model.SurveySchedule{
		Name:               "weekly wellbeing check",
		SurveyType:         model.SurveyQuick,
		NotificationMethod: model.NotifyEmail,
		Frequency:          model.FreqWeekly,
		TargetHouseholds:   model.TargetAll,
		IsActive:           true,
		StartDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ScheduledTime:      "09:00",
		DayOfWeek:          &monday,
		NextRunDate:        &next,
		CreatedBy:          1,
	})
	return s
}

func TestCreateScheduleComputesNextRun(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodPost, "/api/admin/surveys/schedules", gin.H{
		"name":                "daily pulse",
		"survey_type":         "quick",
		"notification_method": "email",
		"frequency":           "daily",
		"target_households":   "all",
		"start_date":          "2024-01-01",
		"scheduled_time":      "09:00",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp packets.ScheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsActive)
	require.NotNil(t, resp.NextRunDate)
	// clock is 08:00, so today's 09:00 slot is still ahead
	assert.Equal(t, "2024-03-06T09:00:00Z", *resp.NextRunDate)
	assert.Equal(t, 1, resp.CreatedBy)
}

func TestCreateScheduleRejectsEmptySpecificTargets(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodPost, "/api/admin/surveys/schedules", gin.H{
		"name":                   "targeted survey",
		"survey_type":            "contact",
		"notification_method":    "sms",
		"frequency":              "daily",
		"target_households":      "specific",
		"specific_household_ids": []int64{},
		"start_date":             "2024-01-01",
		"scheduled_time":         "10:00",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.schedules, "nothing may be persisted on validation failure")
}

func TestCreateScheduleRejectsUnknownFrequency(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodPost, "/api/admin/surveys/schedules", gin.H{
		"name":                "bad freq",
		"survey_type":         "quick",
		"notification_method": "email",
		"frequency":           "fortnightly",
		"target_households":   "all",
		"start_date":          "2024-01-01",
		"scheduled_time":      "09:00",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunNowReportsCounts(t *testing.T) {
	store := newFakeStore()
	email := "a@example.com"
	store.households = []model.Household{
		{ID: 1, HeadName: "A", ContactEmail: &email, IsActive: true},
		{ID: 2, HeadName: "B", ContactEmail: &email, IsActive: true},
	}
	s := seedSchedule(store)
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodPost, "/api/admin/surveys/schedules/1/run", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp packets.RunNowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Attempted)
	assert.Equal(t, 2, resp.SurveysSent)
	assert.Equal(t, 0, resp.Failed)
	assert.Equal(t, 1, resp.Schedule.TotalRuns)
	require.NotNil(t, resp.Schedule.NextRunDate)
	// next Monday 09:00 after the Wednesday run
	assert.Equal(t, "2024-03-11T09:00:00Z", *resp.Schedule.NextRunDate)

	recs := store.executions[s.ID]
	require.Len(t, recs, 1)
	assert.Equal(t, model.TriggerManual, recs[0].Trigger)
}

func TestRunNowUnknownSchedule(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodPost, "/api/admin/surveys/schedules/99/run", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleDeactivateAndReactivate(t *testing.T) {
	store := newFakeStore()
	s := seedSchedule(store)
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodPost, "/api/admin/surveys/schedules/1/toggle", gin.H{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp packets.ScheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.IsActive)

	// toggling to the state it is already in changes nothing
	w = doJSON(t, r, http.MethodPost, "/api/admin/surveys/schedules/1/toggle", gin.H{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code)

	// reactivation recomputes the next run from now
	w = doJSON(t, r, http.MethodPost, "/api/admin/surveys/schedules/1/toggle", gin.H{"is_active": true})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsActive)
	require.NotNil(t, resp.NextRunDate)
	assert.Equal(t, "2024-03-11T09:00:00Z", *resp.NextRunDate)
	_ = s
}

func TestUpdateScheduleTimingRecomputesNextRun(t *testing.T) {
	store := newFakeStore()
	seedSchedule(store)
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodPatch, "/api/admin/surveys/schedules/1", gin.H{
		"scheduled_time": "07:30",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp packets.ScheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "07:30", resp.ScheduledTime)
	require.NotNil(t, resp.NextRunDate)
	assert.Equal(t, "2024-03-11T07:30:00Z", *resp.NextRunDate)
}

func TestUpdateScheduleNameKeepsNextRun(t *testing.T) {
	store := newFakeStore()
	seedSchedule(store)
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodPatch, "/api/admin/surveys/schedules/1", gin.H{
		"name": "renamed",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp packets.ScheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "renamed", resp.Name)
	require.NotNil(t, resp.NextRunDate)
	assert.Equal(t, "2024-03-04T09:00:00Z", *resp.NextRunDate)
}

func TestUpdateScheduleRejectsInvalidMerge(t *testing.T) {
	store := newFakeStore()
	seedSchedule(store)
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodPatch, "/api/admin/surveys/schedules/1", gin.H{
		"scheduled_time": "25:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	got, err := store.GetSchedule(1)
	require.NoError(t, err)
	assert.Equal(t, "09:00", got.ScheduledTime, "failed update must not persist")
}

func TestDeleteSchedule(t *testing.T) {
	store := newFakeStore()
	seedSchedule(store)
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodDelete, "/api/admin/surveys/schedules/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/admin/surveys/schedules/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleStats(t *testing.T) {
	store := newFakeStore()
	seedSchedule(store)
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodGet, "/api/admin/surveys/stats", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats model.ScheduleStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalSchedules)
	assert.Equal(t, 1, stats.ActiveSchedules)
}

func TestCreateAndListHouseholds(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	w := doJSON(t, r, http.MethodPost, "/api/admin/households", gin.H{
		"head_name": "R. Alvarez",
		"address":   "12 Main St",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/admin/households", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []model.Household
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "R. Alvarez", list[0].HeadName)
}
