package consumer

import (
	"context"
	"encoding/json"
	"testing"

	"wellness-monitor/internal/config"
	"wellness-monitor/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEventStore struct {
	created []*models.SensorEvent
}

func (f *fakeEventStore) CreateEvent(ctx context.Context, event *models.SensorEvent) error {
	f.created = append(f.created, event)
	return nil
}

type fakeTracker struct {
	applied []*models.SensorEvent
}

func (f *fakeTracker) Apply(ctx context.Context, event *models.SensorEvent) error {
	f.applied = append(f.applied, event)
	return nil
}

type fakeChecker struct {
	checked []string
}

func (f *fakeChecker) CheckAnomalies(ctx context.Context, householdID string) error {
	f.checked = append(f.checked, householdID)
	return nil
}

func consumerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Consumer.Stream = "wellness:events"
	cfg.Consumer.Group = "wellness-monitor"
	cfg.Consumer.BatchSize = 10
	cfg.Monitor.CriticalSensors = []string{"door", "panic"}
	return cfg
}

func setupConsumer(t *testing.T) (*miniredis.Miniredis, *redis.Client, *EventConsumer, *fakeEventStore, *fakeTracker, *fakeChecker) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := &fakeEventStore{}
	tracker := &fakeTracker{}
	checker := &fakeChecker{}

	c := NewEventConsumer(consumerConfig(), client, store, tracker, checker, zap.NewNop())
	require.NoError(t, c.createConsumerGroup(context.Background()))

	return mr, client, c, store, tracker, checker
}

func addJSONEvent(t *testing.T, client *redis.Client, event models.SensorEvent) {
	data, err := json.Marshal(event)
	require.NoError(t, err)

	err = client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: "wellness:events",
		Values: map[string]interface{}{"data": string(data)},
	}).Err()
	require.NoError(t, err)
}

func TestConsumer_ProcessesJSONEvent(t *testing.T) {
	_, client, c, store, tracker, checker := setupConsumer(t)

	addJSONEvent(t, client, models.SensorEvent{
		EventID:     "evt-001",
		HouseholdID: "house-001",
		SensorType:  models.SensorMotion,
		Location:    "kitchen",
		Value:       "True",
		Timestamp:   "2026-03-09T07:05:00",
	})

	require.NoError(t, c.consumeBatch(context.Background()))

	require.Len(t, store.created, 1)
	assert.Equal(t, "evt-001", store.created[0].EventID)
	require.Len(t, tracker.applied, 1)
	assert.Equal(t, "house-001", tracker.applied[0].HouseholdID)
	// motion 不是关键传感器，不触发即时评估
	assert.Empty(t, checker.checked)
}

func TestConsumer_ProcessesFlatEvent(t *testing.T) {
	_, client, c, store, tracker, _ := setupConsumer(t)

	err := client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: "wellness:events",
		Values: map[string]interface{}{
			"household_id": "house-001",
			"sensor_type":  "motion",
			"location":     "bathroom",
			"value":        "True",
			"timestamp":    "2026-03-09T08:00:00",
		},
	}).Err()
	require.NoError(t, err)

	require.NoError(t, c.consumeBatch(context.Background()))

	require.Len(t, store.created, 1)
	// 未携带 event_id 时用流消息 ID 兜底
	assert.NotEmpty(t, store.created[0].EventID)
	assert.Contains(t, store.created[0].EventID, "house-001_")
	require.Len(t, tracker.applied, 1)
}

func TestConsumer_CriticalEventTriggersCheck(t *testing.T) {
	_, client, c, _, tracker, checker := setupConsumer(t)

	addJSONEvent(t, client, models.SensorEvent{
		EventID:     "evt-002",
		HouseholdID: "house-001",
		SensorType:  models.SensorDoor,
		Location:    "entrance",
		Value:       "True",
		Timestamp:   "2026-03-09T11:00:00",
	})

	require.NoError(t, c.consumeBatch(context.Background()))

	require.Len(t, tracker.applied, 1)
	assert.Equal(t, []string{"house-001"}, checker.checked)
}

func TestConsumer_MalformedEventDropped(t *testing.T) {
	_, client, c, store, tracker, _ := setupConsumer(t)

	// 缺 household_id，无法处理
	err := client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: "wellness:events",
		Values: map[string]interface{}{"sensor_type": "motion"},
	}).Err()
	require.NoError(t, err)

	require.NoError(t, c.consumeBatch(context.Background()))

	assert.Empty(t, store.created)
	assert.Empty(t, tracker.applied)
}

func TestConsumer_AcksProcessedMessages(t *testing.T) {
	_, client, c, _, _, _ := setupConsumer(t)

	addJSONEvent(t, client, models.SensorEvent{
		EventID:     "evt-003",
		HouseholdID: "house-001",
		SensorType:  models.SensorMotion,
		Location:    "kitchen",
		Value:       "True",
		Timestamp:   "2026-03-09T07:05:00",
	})

	require.NoError(t, c.consumeBatch(context.Background()))

	pending, err := client.XPending(context.Background(), "wellness:events", "wellness-monitor").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}
