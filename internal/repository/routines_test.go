package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"wellness-monitor/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockRoutinesDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *RoutinesRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewRoutinesRepository(db, logger)

	return db, mock, repo
}

func strPtr(s string) *string {
	return &s
}

func TestUpsertRoutine_SetsRoutineID(t *testing.T) {
	db, mock, repo := setupMockRoutinesDB(t)
	defer db.Close()

	routine := &models.DailyRoutine{
		HouseholdID:      "house-001",
		Date:             "2026-03-01",
		WakeUpTime:       strPtr("06:30"),
		FirstKitchenTime: strPtr("07:05"),
		BathroomEvents:   4,
		TotalEvents:      42,
		SummaryText:      "A typical day.",
	}

	mock.ExpectExec(`INSERT INTO daily_routines`).
		WithArgs(
			"house-001_2026-03-01",
			routine.HouseholdID,
			routine.Date,
			routine.WakeUpTime,
			routine.BedTime,
			routine.FirstKitchenTime,
			routine.BathroomFirstTime,
			routine.BathroomEvents,
			routine.ActivityStart,
			routine.ActivityEnd,
			routine.TotalEvents,
			routine.SummaryText,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertRoutine(context.Background(), routine)
	require.NoError(t, err)
	assert.Equal(t, "house-001_2026-03-01", routine.RoutineID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRoutine_MissingDate(t *testing.T) {
	db, _, repo := setupMockRoutinesDB(t)
	defer db.Close()

	routine := &models.DailyRoutine{HouseholdID: "house-001"}

	err := repo.UpsertRoutine(context.Background(), routine)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date is required")
}

func TestQueryRange_NullableFields(t *testing.T) {
	db, mock, repo := setupMockRoutinesDB(t)
	defer db.Close()

	now := time.Date(2026, 3, 2, 0, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"routine_id", "household_id", "date", "wake_up_time", "bed_time",
		"first_kitchen_time", "bathroom_first_time", "total_bathroom_events",
		"activity_start", "activity_end", "total_events", "summary_text",
		"created_at", "updated_at",
	}).AddRow(
		"house-001_2026-03-01", "house-001", "2026-03-01", "06:30", nil,
		"07:05", nil, 4,
		"06:30", "22:10", 42, "A typical day.",
		now, now,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs("house-001", "2026-03-01", "2026-03-08").
		WillReturnRows(rows)

	routines, err := repo.QueryRange(context.Background(), "house-001", "2026-03-01", "2026-03-08")
	require.NoError(t, err)
	require.Len(t, routines, 1)

	routine := routines[0]
	require.NotNil(t, routine.WakeUpTime)
	assert.Equal(t, "06:30", *routine.WakeUpTime)
	assert.Nil(t, routine.BedTime)
	assert.Nil(t, routine.BathroomFirstTime)
	assert.Equal(t, 4, routine.BathroomEvents)
}

func TestDistinctHouseholds_Routines(t *testing.T) {
	db, mock, repo := setupMockRoutinesDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"household_id"}).
		AddRow("house-001").
		AddRow("house-002")

	mock.ExpectQuery(`SELECT DISTINCT household_id`).
		WithArgs("2026-03-01").
		WillReturnRows(rows)

	ids, err := repo.DistinctHouseholds(context.Background(), "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"house-001", "house-002"}, ids)
}
