package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"wellness-monitor/internal/models"

	"go.uber.org/zap"
)

// BaselinesRepository 例程基线仓库（快照只追加，不原地更新）
type BaselinesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBaselinesRepository 创建基线仓库
func NewBaselinesRepository(db *sql.DB, logger *zap.Logger) *BaselinesRepository {
	return &BaselinesRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBaseline 写入基线快照
// household_id 为空属于调用方契约违反，直接报错
func (r *BaselinesRepository) CreateBaseline(ctx context.Context, baseline *models.Baseline) error {
	if baseline == nil {
		return fmt.Errorf("baseline is required")
	}
	if baseline.HouseholdID == "" {
		return fmt.Errorf("household_id is required")
	}
	if baseline.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive")
	}

	stats, err := json.Marshal(baselineStats{
		WakeUpTime:       baseline.WakeUpTime,
		BedTime:          baseline.BedTime,
		FirstKitchenTime: baseline.FirstKitchenTime,
		BathroomVisits:   baseline.BathroomVisits,
		TotalDailyEvents: baseline.TotalDailyEvents,
		ActivityDuration: baseline.ActivityDuration,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal baseline stats: %w", err)
	}

	quality, err := json.Marshal(baseline.DataQuality)
	if err != nil {
		return fmt.Errorf("failed to marshal data quality: %w", err)
	}

	period, err := json.Marshal(baseline.Period)
	if err != nil {
		return fmt.Errorf("failed to marshal baseline period: %w", err)
	}

	query := `
		INSERT INTO routine_baselines (
			baseline_id,
			household_id,
			baseline_type,
			window_days,
			stats,
			data_quality,
			baseline_period,
			computed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (baseline_id) DO UPDATE SET
			stats = EXCLUDED.stats,
			data_quality = EXCLUDED.data_quality,
			baseline_period = EXCLUDED.baseline_period,
			computed_at = EXCLUDED.computed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		baseline.BaselineID,
		baseline.HouseholdID,
		baseline.BaselineType,
		baseline.WindowDays,
		stats,
		quality,
		period,
		baseline.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create baseline: %w", err)
	}

	return nil
}

// GetLatestBaseline 读取家庭最新的基线快照
// 不存在时返回 (nil, nil)：无基线是正常结果，不是错误
func (r *BaselinesRepository) GetLatestBaseline(ctx context.Context, householdID, baselineType string) (*models.Baseline, error) {
	if householdID == "" {
		return nil, fmt.Errorf("household_id is required")
	}
	if baselineType == "" {
		return nil, fmt.Errorf("baseline_type is required")
	}

	query := `
		SELECT
			baseline_id,
			household_id,
			baseline_type,
			window_days,
			stats,
			data_quality,
			baseline_period,
			computed_at
		FROM routine_baselines
		WHERE household_id = $1
		  AND baseline_type = $2
		ORDER BY computed_at DESC
		LIMIT 1
	`

	var baseline models.Baseline
	var stats, quality, period []byte

	err := r.db.QueryRowContext(ctx, query, householdID, baselineType).Scan(
		&baseline.BaselineID,
		&baseline.HouseholdID,
		&baseline.BaselineType,
		&baseline.WindowDays,
		&stats,
		&quality,
		&period,
		&baseline.ComputedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest baseline: %w", err)
	}

	var bundle baselineStats
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &bundle); err != nil {
			return nil, fmt.Errorf("failed to unmarshal baseline stats: %w", err)
		}
	}
	baseline.WakeUpTime = bundle.WakeUpTime
	baseline.BedTime = bundle.BedTime
	baseline.FirstKitchenTime = bundle.FirstKitchenTime
	baseline.BathroomVisits = bundle.BathroomVisits
	baseline.TotalDailyEvents = bundle.TotalDailyEvents
	baseline.ActivityDuration = bundle.ActivityDuration

	if len(quality) > 0 {
		if err := json.Unmarshal(quality, &baseline.DataQuality); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data quality: %w", err)
		}
	}
	if len(period) > 0 {
		if err := json.Unmarshal(period, &baseline.Period); err != nil {
			return nil, fmt.Errorf("failed to unmarshal baseline period: %w", err)
		}
	}

	return &baseline, nil
}

// baselineStats 统计字段打包（JSONB 列）
type baselineStats struct {
	WakeUpTime       *models.TimeStats     `json:"wake_up_time,omitempty"`
	BedTime          *models.TimeStats     `json:"bed_time,omitempty"`
	FirstKitchenTime *models.TimeStats     `json:"first_kitchen_time,omitempty"`
	BathroomVisits   *models.CountStats    `json:"bathroom_visits,omitempty"`
	TotalDailyEvents *models.CountStats    `json:"total_daily_events,omitempty"`
	ActivityDuration *models.DurationStats `json:"activity_duration,omitempty"`
}
