package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wellness-monitor/internal/models"

	"go.uber.org/zap"
)

// SensorEventsRepository 传感器事件仓库
type SensorEventsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSensorEventsRepository 创建传感器事件仓库
func NewSensorEventsRepository(db *sql.DB, logger *zap.Logger) *SensorEventsRepository {
	return &SensorEventsRepository{
		db:     db,
		logger: logger,
	}
}

// CreateEvent 写入单条事件（event_id 冲突时幂等跳过）
func (r *SensorEventsRepository) CreateEvent(ctx context.Context, event *models.SensorEvent) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	if event.HouseholdID == "" {
		return fmt.Errorf("household_id is required")
	}

	query := `
		INSERT INTO sensor_events (
			event_id,
			household_id,
			sensor_id,
			sensor_type,
			location,
			value,
			ts,
			resident
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (event_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		event.EventID,
		event.HouseholdID,
		event.SensorID,
		event.SensorType,
		event.Location,
		event.Value,
		event.Timestamp,
		nullString(event.Resident),
	)
	if err != nil {
		return fmt.Errorf("failed to create sensor event: %w", err)
	}

	return nil
}

// QueryEvents 查询家庭在 [from, to) 区间内的事件，按时间戳升序
// 时间戳按 models.TimestampLayout 文本存储，字典序即时间序
func (r *SensorEventsRepository) QueryEvents(ctx context.Context, householdID, from, to string) ([]models.SensorEvent, error) {
	if householdID == "" {
		return nil, fmt.Errorf("household_id is required")
	}

	query := `
		SELECT
			event_id,
			household_id,
			sensor_id,
			sensor_type,
			location,
			value,
			ts,
			resident
		FROM sensor_events
		WHERE household_id = $1
		  AND ts >= $2
		  AND ts < $3
		ORDER BY ts ASC
	`

	rows, err := r.db.QueryContext(ctx, query, householdID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor events: %w", err)
	}
	defer rows.Close()

	events := []models.SensorEvent{}
	for rows.Next() {
		var event models.SensorEvent
		var resident sql.NullString

		err := rows.Scan(
			&event.EventID,
			&event.HouseholdID,
			&event.SensorID,
			&event.SensorType,
			&event.Location,
			&event.Value,
			&event.Timestamp,
			&resident,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensor event: %w", err)
		}

		if resident.Valid {
			event.Resident = resident.String
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensor events: %w", err)
	}

	return events, nil
}

// DistinctHouseholds 枚举有事件记录的家庭（定时批量检查的目标集合）
func (r *SensorEventsRepository) DistinctHouseholds(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT household_id FROM sensor_events`

	rows, err := r.db.QueryContext(ctx, query)
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

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
