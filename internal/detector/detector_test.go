package detector

import (
	"context"
	"errors"
	"testing"
	"time"

	"wellness-monitor/internal/config"
	"wellness-monitor/internal/evaluator"
	"wellness-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStates struct {
	state *models.DailyState
}

func (f *fakeStates) State(ctx context.Context, householdID string) (*models.DailyState, error) {
	snapshot := *f.state
	return &snapshot, nil
}

type fakeBaselines struct {
	baseline *models.Baseline
	calls    int
}

func (f *fakeBaselines) GetLatestBaseline(ctx context.Context, householdID, baselineType string) (*models.Baseline, error) {
	f.calls++
	return f.baseline, nil
}

type fakeAlertStore struct {
	created   []*models.Alert
	persisted bool
	createErr error
	existsErr error
}

func (f *fakeAlertStore) CreateAlert(ctx context.Context, alert *models.Alert) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, alert)
	return nil
}

func (f *fakeAlertStore) ExistsUnacknowledged(ctx context.Context, householdID, alertType string, since time.Time) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	// persisted 模拟库里已有未确认告警的场景
	return f.persisted, nil
}

type fakePublisher struct {
	published []*models.Alert
	err       error
}

func (f *fakePublisher) Publish(alert *models.Alert) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, alert)
	return nil
}

func detectorConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Monitor.CooldownHours = 2
	cfg.Monitor.WindowDays = 7
	cfg.Monitor.BaselineCacheTTLHours = 24
	return cfg
}

func lateWakeState() *models.DailyState {
	wake := "08:30"
	state := models.NewDailyState("house-001")
	state.WakeDetected = true
	state.WakeUpTime = &wake
	state.KitchenVisited = true
	return state
}

func lateWakeBaseline() *models.Baseline {
	return &models.Baseline{
		BaselineID:  "house-001_2026-03-08_baseline7",
		HouseholdID: "house-001",
		WakeUpTime: &models.TimeStats{
			Median:   "06:30",
			Earliest: "06:00",
			Latest:   "07:00",
		},
	}
}

func newTestDetector(states *fakeStates, baselines *fakeBaselines, alerts *fakeAlertStore, publisher *fakePublisher) *Detector {
	logger := zap.NewNop()
	return NewDetector(detectorConfig(), states, baselines, alerts, evaluator.NewEvaluator(logger), publisher, logger)
}

func TestCheckAnomalies_EmitsAlert(t *testing.T) {
	states := &fakeStates{state: lateWakeState()}
	baselines := &fakeBaselines{baseline: lateWakeBaseline()}
	alerts := &fakeAlertStore{}
	publisher := &fakePublisher{}

	d := newTestDetector(states, baselines, alerts, publisher)
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	d.nowFn = func() time.Time { return now }

	err := d.CheckAnomalies(context.Background(), "house-001")
	require.NoError(t, err)

	require.Len(t, alerts.created, 1)
	alert := alerts.created[0]
	assert.Equal(t, "house-001_2026-03-09T09:00:00_late_wake_up", alert.AlertID)
	assert.Equal(t, models.AnomalyLateWakeUp, alert.AlertType)
	assert.False(t, alert.Acknowledged)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, alert.AlertID, publisher.published[0].AlertID)
}

func TestCheckAnomalies_InMemoryCooldownSuppresses(t *testing.T) {
	states := &fakeStates{state: lateWakeState()}
	baselines := &fakeBaselines{baseline: lateWakeBaseline()}
	alerts := &fakeAlertStore{}
	publisher := &fakePublisher{}

	d := newTestDetector(states, baselines, alerts, publisher)
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	d.nowFn = func() time.Time { return now }

	require.NoError(t, d.CheckAnomalies(context.Background(), "house-001"))
	require.Len(t, alerts.created, 1)

	// 30 分钟后同类异常仍在冷却期内
	d.nowFn = func() time.Time { return now.Add(30 * time.Minute) }
	require.NoError(t, d.CheckAnomalies(context.Background(), "house-001"))
	assert.Len(t, alerts.created, 1)
	assert.Len(t, publisher.published, 1)

	// 3 小时后冷却结束，允许再次发出
	d.nowFn = func() time.Time { return now.Add(3 * time.Hour) }
	require.NoError(t, d.CheckAnomalies(context.Background(), "house-001"))
	assert.Len(t, alerts.created, 2)
	assert.Len(t, publisher.published, 2)
}

func TestCheckAnomalies_PersistedCooldownSuppresses(t *testing.T) {
	// 进程内冷却表为空（模拟重启后），持久层已有未确认告警
	states := &fakeStates{state: lateWakeState()}
	baselines := &fakeBaselines{baseline: lateWakeBaseline()}
	alerts := &fakeAlertStore{persisted: true}
	publisher := &fakePublisher{}

	d := newTestDetector(states, baselines, alerts, publisher)
	d.nowFn = func() time.Time { return time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, d.CheckAnomalies(context.Background(), "house-001"))
	assert.Empty(t, alerts.created)
	assert.Empty(t, publisher.published)
}

func TestCheckAnomalies_PublishFailureDoesNotFail(t *testing.T) {
	states := &fakeStates{state: lateWakeState()}
	baselines := &fakeBaselines{baseline: lateWakeBaseline()}
	alerts := &fakeAlertStore{}
	publisher := &fakePublisher{err: errors.New("broker unavailable")}

	d := newTestDetector(states, baselines, alerts, publisher)
	d.nowFn = func() time.Time { return time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC) }

	// 推送失败不影响结果，告警已落库
	err := d.CheckAnomalies(context.Background(), "house-001")
	require.NoError(t, err)
	assert.Len(t, alerts.created, 1)
}

func TestCheckAnomalies_PersistFailureSurfaces(t *testing.T) {
	states := &fakeStates{state: lateWakeState()}
	baselines := &fakeBaselines{baseline: lateWakeBaseline()}
	alerts := &fakeAlertStore{createErr: errors.New("db down")}
	publisher := &fakePublisher{}

	d := newTestDetector(states, baselines, alerts, publisher)
	d.nowFn = func() time.Time { return time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC) }

	err := d.CheckAnomalies(context.Background(), "house-001")
	require.Error(t, err)
	assert.Empty(t, publisher.published)
}

func TestCheckAnomalies_NoBaseline_NoError(t *testing.T) {
	states := &fakeStates{state: lateWakeState()}
	baselines := &fakeBaselines{baseline: nil}
	alerts := &fakeAlertStore{}
	publisher := &fakePublisher{}

	d := newTestDetector(states, baselines, alerts, publisher)

	require.NoError(t, d.CheckAnomalies(context.Background(), "house-001"))
	assert.Empty(t, alerts.created)

	// "无基线"也被缓存，第二次检查不再查库
	require.NoError(t, d.CheckAnomalies(context.Background(), "house-001"))
	assert.Equal(t, 1, baselines.calls)
}

func TestCheckAnomalies_BaselineCacheHit(t *testing.T) {
	states := &fakeStates{state: lateWakeState()}
	baselines := &fakeBaselines{baseline: lateWakeBaseline()}
	alerts := &fakeAlertStore{persisted: true}
	publisher := &fakePublisher{}

	d := newTestDetector(states, baselines, alerts, publisher)

	require.NoError(t, d.CheckAnomalies(context.Background(), "house-001"))
	require.NoError(t, d.CheckAnomalies(context.Background(), "house-001"))
	assert.Equal(t, 1, baselines.calls)

	// 失效后重新查库
	d.InvalidateBaseline("house-001")
	require.NoError(t, d.CheckAnomalies(context.Background(), "house-001"))
	assert.Equal(t, 2, baselines.calls)
}
