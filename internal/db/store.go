package db

import (
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Cedarline-Labs/civichub/internal/model"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Store exposes the persistence operations the API and scheduler need.
type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error

	// household functions
	CreateHousehold(headName, address string, email, phone *string) (model.Household, error)
	ListHouseholds() ([]model.Household, error)
	ListActiveHouseholds() ([]model.Household, error)
	HouseholdsByIDs(ids []int64) ([]model.Household, error)

	// survey schedule functions
	CreateSchedule(s model.SurveySchedule) (model.SurveySchedule, error)
	GetSchedule(id int) (model.SurveySchedule, error)
	ListSchedules() ([]model.SurveySchedule, error)
	UpdateSchedule(id int, u ScheduleUpdate) (model.SurveySchedule, error)
	SetScheduleActive(id int, active bool, nextRun *time.Time) (model.SurveySchedule, error)
	DeleteSchedule(id int) error
	DueSchedules(cutoff time.Time) ([]model.SurveySchedule, error)
	ApplyExecution(id int, rec model.ExecutionRecord, nextRun time.Time) error
	ListExecutions(scheduleID, limit int) ([]model.ExecutionRecord, error)
	ScheduleStats(now time.Time) (model.ScheduleStats, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(dbx *sqlx.DB) Store {
	return &pgStore{db: dbx}
}
