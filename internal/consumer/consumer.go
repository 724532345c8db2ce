package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wellness-monitor/internal/config"
	"wellness-monitor/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventStore 事件持久化接口
type EventStore interface {
	CreateEvent(ctx context.Context, event *models.SensorEvent) error
}

// StateTracker 当日状态跟踪接口
type StateTracker interface {
	Apply(ctx context.Context, event *models.SensorEvent) error
}

// AnomalyChecker 即时异常检测接口（关键传感器事件触发）
type AnomalyChecker interface {
	CheckAnomalies(ctx context.Context, householdID string) error
}

// EventConsumer 传感器事件消费者（Redis Streams，消费者组模式）
type EventConsumer struct {
	config       *config.Config
	redisClient  *redis.Client
	events       EventStore
	tracker      StateTracker
	detector     AnomalyChecker
	logger       *zap.Logger
	consumerName string
}

// NewEventConsumer 创建事件消费者
func NewEventConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	events EventStore,
	tracker StateTracker,
	detector AnomalyChecker,
	logger *zap.Logger,
) *EventConsumer {
	return &EventConsumer{
		config:       cfg,
		redisClient:  redisClient,
		events:       events,
		tracker:      tracker,
		detector:     detector,
		logger:       logger,
		consumerName: fmt.Sprintf("%s-%s", cfg.Consumer.Group, uuid.New().String()[:8]),
	}
}

// Start 启动消费循环（阻塞直到 ctx 取消）
func (c *EventConsumer) Start(ctx context.Context) error {
	// 创建消费者组（已存在则忽略）
	if err := c.createConsumerGroup(ctx); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Event consumer started",
		zap.String("stream", c.config.Consumer.Stream),
		zap.String("consumer_group", c.config.Consumer.Group),
		zap.String("consumer_name", c.consumerName),
	)

	// 消费事件（带指数退避）
	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.consumeBatch(ctx); err != nil {
				c.logger.Error("Failed to consume events",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)

				// 指数退避
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				// 成功时重置退避时间
				backoffDuration = time.Second
			}
		}
	}
}

// createConsumerGroup 创建消费者组，流不存在时一并创建
func (c *EventConsumer) createConsumerGroup(ctx context.Context) error {
	err := c.redisClient.XGroupCreateMkStream(ctx, c.config.Consumer.Stream, c.config.Consumer.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// consumeBatch 读取并处理一批消息
func (c *EventConsumer) consumeBatch(ctx context.Context) error {
	streams, err := c.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.config.Consumer.Group,
		Consumer: c.consumerName,
		Streams:  []string{c.config.Consumer.Stream, ">"},
		Count:    c.config.Consumer.BatchSize,
		Block:    5 * time.Second,
	}).Result()

	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Error("Failed to process event",
					zap.String("message_id", msg.ID),
					zap.Error(err),
				)
				// 继续处理下一条消息，不中断；未确认的消息会被重新投递
				continue
			}
			if err := c.redisClient.XAck(ctx, c.config.Consumer.Stream, c.config.Consumer.Group, msg.ID).Err(); err != nil {
				c.logger.Warn("Failed to ack message",
					zap.String("message_id", msg.ID),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}

// processMessage 处理单条事件消息
// 持久化或评估失败不阻塞事件被状态跟踪；格式错误的消息丢弃并确认
func (c *EventConsumer) processMessage(ctx context.Context, msg redis.XMessage) error {
	event, err := c.parseEvent(msg)
	if err != nil {
		// 格式错误的消息重试也无法修复，确认后丢弃
		c.logger.Warn("Dropping malformed event message",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		if ackErr := c.redisClient.XAck(ctx, c.config.Consumer.Stream, c.config.Consumer.Group, msg.ID).Err(); ackErr != nil {
			c.logger.Warn("Failed to ack malformed message", zap.Error(ackErr))
		}
		return nil
	}

	// 1. 持久化事件（event_id 冲突时幂等，重投递安全）
	if err := c.events.CreateEvent(ctx, event); err != nil {
		c.logger.Error("Failed to persist event",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		// 存储故障不丢状态：继续应用到内存状态
	}

	// 2. 合入家庭当日状态
	if err := c.tracker.Apply(ctx, event); err != nil {
		return fmt.Errorf("failed to apply event to daily state: %w", err)
	}

	// 3. 关键传感器事件触发即时异常评估（状态锁之外）
	if c.config.IsCriticalSensor(event.SensorType) {
		c.logger.Info("Critical sensor event, triggering immediate check",
			zap.String("household_id", event.HouseholdID),
			zap.String("sensor_type", event.SensorType),
		)
		if err := c.detector.CheckAnomalies(ctx, event.HouseholdID); err != nil {
			// 评估失败不影响事件接收
			c.logger.Error("Immediate anomaly check failed",
				zap.String("household_id", event.HouseholdID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// parseEvent 从消息解析传感器事件
// 优先解析 data 字段的 JSON，其次按扁平字段解析
func (c *EventConsumer) parseEvent(msg redis.XMessage) (*models.SensorEvent, error) {
	event := &models.SensorEvent{}

	if dataStr, ok := msg.Values["data"].(string); ok {
		if err := json.Unmarshal([]byte(dataStr), event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
		}
	} else {
		if v, ok := msg.Values["event_id"].(string); ok {
			event.EventID = v
		}
		if v, ok := msg.Values["household_id"].(string); ok {
			event.HouseholdID = v
		}
		if v, ok := msg.Values["sensor_id"].(string); ok {
			event.SensorID = v
		}
		if v, ok := msg.Values["sensor_type"].(string); ok {
			event.SensorType = v
		}
		if v, ok := msg.Values["location"].(string); ok {
			event.Location = v
		}
		if v, ok := msg.Values["value"].(string); ok {
			event.Value = v
		}
		if v, ok := msg.Values["timestamp"].(string); ok {
			event.Timestamp = v
		}
		if v, ok := msg.Values["resident"].(string); ok {
			event.Resident = v
		}
	}

	if event.HouseholdID == "" || event.SensorType == "" || event.Timestamp == "" {
		return nil, fmt.Errorf("invalid event: missing household_id, sensor_type or timestamp")
	}

	// 消息未携带 event_id 时用流消息 ID 兜底，保证重投递下的幂等写入
	if event.EventID == "" {
		event.EventID = fmt.Sprintf("%s_%s", event.HouseholdID, msg.ID)
	}

	return event, nil
}
