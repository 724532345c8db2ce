package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wellness-monitor/internal/models"

	"go.uber.org/zap"
)

// AlertsRepository 告警仓库
type AlertsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertsRepository 创建告警仓库
func NewAlertsRepository(db *sql.DB, logger *zap.Logger) *AlertsRepository {
	return &AlertsRepository{
		db:     db,
		logger: logger,
	}
}

// CreateAlert 写入告警（alert_id 冲突时幂等跳过，防止意外重复写入）
func (r *AlertsRepository) CreateAlert(ctx context.Context, alert *models.Alert) error {
	if alert == nil {
		return fmt.Errorf("alert is required")
	}
	if alert.HouseholdID == "" {
		return fmt.Errorf("household_id is required")
	}
	if alert.AlertType == "" {
		return fmt.Errorf("alert_type is required")
	}

	query := `
		INSERT INTO wellness_alerts (
			alert_id,
			household_id,
			alert_type,
			severity,
			message,
			context,
			actionable,
			ts,
			acknowledged,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		ON CONFLICT (alert_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		alert.AlertID,
		alert.HouseholdID,
		alert.AlertType,
		alert.Severity,
		alert.Message,
		alert.Context,
		alert.Actionable,
		alert.Timestamp,
		alert.Acknowledged,
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// ExistsUnacknowledged 检查冷却窗口内是否已有同类型未确认告警
// 这是跨进程重启与并发评估竞争下的最终去重屏障
func (r *AlertsRepository) ExistsUnacknowledged(ctx context.Context, householdID, alertType string, since time.Time) (bool, error) {
	if householdID == "" {
		return false, fmt.Errorf("household_id is required")
	}
	if alertType == "" {
		return false, fmt.Errorf("alert_type is required")
	}

	query := `
		SELECT 1
		FROM wellness_alerts
		WHERE household_id = $1
		  AND alert_type = $2
		  AND acknowledged = FALSE
		  AND created_at >= $3
		LIMIT 1
	`

	var one int
	err := r.db.QueryRowContext(ctx, query, householdID, alertType, since).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check unacknowledged alerts: %w", err)
	}

	return true, nil
}

// UpdateAcknowledged 更新告警确认状态（由照护者操作）
func (r *AlertsRepository) UpdateAcknowledged(ctx context.Context, alertID string, acknowledged bool) error {
	if alertID == "" {
		return fmt.Errorf("alert_id is required")
	}

	query := `
		UPDATE wellness_alerts
		SET acknowledged = $1
		WHERE alert_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, acknowledged, alertID)
	if err != nil {
		return fmt.Errorf("failed to update alert acknowledged: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert not found: alert_id=%s", alertID)
	}

	return nil
}

// ListAlerts 查询家庭的告警列表（照护端展示，按创建时间倒序）
func (r *AlertsRepository) ListAlerts(ctx context.Context, householdID string, limit int) ([]models.Alert, error) {
	if householdID == "" {
		return nil, fmt.Errorf("household_id is required")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT
			alert_id,
			household_id,
			alert_type,
			severity,
			message,
			context,
			actionable,
			ts,
			acknowledged,
			created_at
		FROM wellness_alerts
		WHERE household_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, householdID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		var alert models.Alert
		err := rows.Scan(
			&alert.AlertID,
			&alert.HouseholdID,
			&alert.AlertType,
			&alert.Severity,
			&alert.Message,
			&alert.Context,
			&alert.Actionable,
			&alert.Timestamp,
			&alert.Acknowledged,
			&alert.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}
