package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wellness-monitor/internal/models"

	"go.uber.org/zap"
)

// RoutinesRepository 每日例程仓库
type RoutinesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRoutinesRepository 创建每日例程仓库
func NewRoutinesRepository(db *sql.DB, logger *zap.Logger) *RoutinesRepository {
	return &RoutinesRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertRoutine 写入例程（同一 (household_id, date) 重复写入覆盖，保证每日至多一条）
func (r *RoutinesRepository) UpsertRoutine(ctx context.Context, routine *models.DailyRoutine) error {
	if routine == nil {
		return fmt.Errorf("routine is required")
	}
	if routine.HouseholdID == "" {
		return fmt.Errorf("household_id is required")
	}
	if routine.Date == "" {
		return fmt.Errorf("date is required")
	}

	routine.RoutineID = models.RoutineKey(routine.HouseholdID, routine.Date)

	query := `
		INSERT INTO daily_routines (
			routine_id,
			household_id,
			date,
			wake_up_time,
			bed_time,
			first_kitchen_time,
			bathroom_first_time,
			total_bathroom_events,
			activity_start,
			activity_end,
			total_events,
			summary_text,
			created_at,
			updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		)
		ON CONFLICT (routine_id) DO UPDATE SET
			wake_up_time = EXCLUDED.wake_up_time,
			bed_time = EXCLUDED.bed_time,
			first_kitchen_time = EXCLUDED.first_kitchen_time,
			bathroom_first_time = EXCLUDED.bathroom_first_time,
			total_bathroom_events = EXCLUDED.total_bathroom_events,
			activity_start = EXCLUDED.activity_start,
			activity_end = EXCLUDED.activity_end,
			total_events = EXCLUDED.total_events,
			summary_text = EXCLUDED.summary_text,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		routine.RoutineID,
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
	)
	if err != nil {
		return fmt.Errorf("failed to upsert routine: %w", err)
	}

	return nil
}

// QueryRange 查询家庭在 [startDate, endDate) 日期范围内的例程，按日期升序
func (r *RoutinesRepository) QueryRange(ctx context.Context, householdID, startDate, endDate string) ([]models.DailyRoutine, error) {
	if householdID == "" {
		return nil, fmt.Errorf("household_id is required")
	}

	query := `
		SELECT
			routine_id,
			household_id,
			date,
			wake_up_time,
			bed_time,
			first_kitchen_time,
			bathroom_first_time,
			total_bathroom_events,
			activity_start,
			activity_end,
			total_events,
			summary_text,
			created_at,
			updated_at
		FROM daily_routines
		WHERE household_id = $1
		  AND date >= $2
		  AND date < $3
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, householdID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query routines: %w", err)
	}
	defer rows.Close()

	routines := []models.DailyRoutine{}
	for rows.Next() {
		var routine models.DailyRoutine
		var wake, bed, kitchen, bathroomFirst, actStart, actEnd sql.NullString

		err := rows.Scan(
			&routine.RoutineID,
			&routine.HouseholdID,
			&routine.Date,
			&wake,
			&bed,
			&kitchen,
			&bathroomFirst,
			&routine.BathroomEvents,
			&actStart,
			&actEnd,
			&routine.TotalEvents,
			&routine.SummaryText,
			&routine.CreatedAt,
			&routine.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan routine: %w", err)
		}

		routine.WakeUpTime = nullStringPtr(wake)
		routine.BedTime = nullStringPtr(bed)
		routine.FirstKitchenTime = nullStringPtr(kitchen)
		routine.BathroomFirstTime = nullStringPtr(bathroomFirst)
		routine.ActivityStart = nullStringPtr(actStart)
		routine.ActivityEnd = nullStringPtr(actEnd)

		routines = append(routines, routine)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routines: %w", err)
	}

	return routines, nil
}

// DistinctHouseholds 枚举在 sinceDate 之后有例程记录的家庭（用于基线重算）
func (r *RoutinesRepository) DistinctHouseholds(ctx context.Context, sinceDate string) ([]string, error) {
	query := `SELECT DISTINCT household_id FROM daily_routines WHERE date >= $1`

	rows, err := r.db.QueryContext(ctx, query, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct households: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan household id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate household ids: %w", err)
	}

	return ids, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
