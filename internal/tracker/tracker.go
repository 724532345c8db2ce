package tracker

import (
	"context"
	"sync"
	"time"

	"wellness-monitor/internal/models"

	"go.uber.org/zap"
)

// EventsSource 事件查询接口（用于首次访问时从存储重放当日事件）
type EventsSource interface {
	QueryEvents(ctx context.Context, householdID, from, to string) ([]models.SensorEvent, error)
}

// Tracker 家庭当日状态跟踪器
// 同一家庭的事件严格串行应用（按家庭互斥锁），不同家庭完全并行
// 跨日后状态在下次访问时惰性丢弃重建，无需全局定时清扫
type Tracker struct {
	events EventsSource
	logger *zap.Logger

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	states   map[string]*models.DailyState
	lastDate map[string]string // household_id -> 上次访问的日期（YYYY-MM-DD）

	nowFn func() time.Time
}

// NewTracker 创建状态跟踪器
func NewTracker(events EventsSource, logger *zap.Logger) *Tracker {
	return &Tracker{
		events:   events,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
		states:   make(map[string]*models.DailyState),
		lastDate: make(map[string]string),
		nowFn:    time.Now,
	}
}

// lockFor 获取家庭互斥锁（双重检查创建，避免首次访问竞争）
func (t *Tracker) lockFor(householdID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[householdID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[householdID] = lock
	}
	return lock
}

// Apply 将单个事件合入家庭当日状态
// 首次出现字段幂等；计数与末次出现字段要求每个事件恰好应用一次
func (t *Tracker) Apply(ctx context.Context, event *models.SensorEvent) error {
	lock := t.lockFor(event.HouseholdID)
	lock.Lock()
	defer lock.Unlock()

	state, err := t.todayStateLocked(ctx, event.HouseholdID)
	if err != nil {
		return err
	}

	state.Fold(event)
	return nil
}

// State 获取家庭当日状态的快照副本
// 副本在家庭锁之外使用，评估路径不持有状态锁
func (t *Tracker) State(ctx context.Context, householdID string) (*models.DailyState, error) {
	lock := t.lockFor(householdID)
	lock.Lock()
	defer lock.Unlock()

	state, err := t.todayStateLocked(ctx, householdID)
	if err != nil {
		return nil, err
	}

	snapshot := *state
	return &snapshot, nil
}

// todayStateLocked 获取（必要时重建）家庭当日状态，调用方必须持有家庭锁
func (t *Tracker) todayStateLocked(ctx context.Context, householdID string) (*models.DailyState, error) {
	now := t.nowFn()
	today := now.Format("2006-01-02")

	t.mu.Lock()
	state, hasState := t.states[householdID]
	last := t.lastDate[householdID]
	t.lastDate[householdID] = today
	if hasState && last != "" && last != today {
		// 跨日：丢弃旧状态，强制重建
		delete(t.states, householdID)
		hasState = false
		t.logger.Debug("Daily state reset after rollover",
			zap.String("household_id", householdID),
			zap.String("previous_date", last),
		)
	}
	t.mu.Unlock()

	if hasState {
		return state, nil
	}

	state, err := t.materialize(ctx, householdID, now)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.states[householdID] = state
	t.mu.Unlock()

	return state, nil
}

// materialize 从存储重放当日事件构建状态（按时间戳顺序）
func (t *Tracker) materialize(ctx context.Context, householdID string, now time.Time) (*models.DailyState, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from := startOfDay.Format(models.TimestampLayout)
	to := startOfDay.AddDate(0, 0, 1).Format(models.TimestampLayout)

	events, err := t.events.QueryEvents(ctx, householdID, from, to)
	if err != nil {
		return nil, err
	}

	state := models.NewDailyState(householdID)
	for i := range events {
		state.Fold(&events[i])
	}

	t.logger.Debug("Daily state materialized",
		zap.String("household_id", householdID),
		zap.Int("event_count", len(events)),
	)

	return state, nil
}
