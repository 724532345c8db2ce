package notifier

import (
	"encoding/json"
	"fmt"

	"wellness-monitor/internal/config"
	"wellness-monitor/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Notifier 告警推送器
// 通过 MQTT 推送到照护者端，fire-and-forget：推送失败由调用方记录日志后忽略
type Notifier struct {
	client mqtt.Client
	config *config.MQTTConfig
	logger *zap.Logger
}

// alertPayload 推送消息体
type alertPayload struct {
	AlertID     string `json:"alert_id"`
	HouseholdID string `json:"household_id"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Context     string `json:"context,omitempty"`
	Actionable  string `json:"actionable,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// NewNotifier 创建推送器并连接 MQTT broker
func NewNotifier(cfg *config.MQTTConfig, logger *zap.Logger) (*Notifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker))

	return &Notifier{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// Publish 推送单条告警，主题为 {topic_prefix}{household_id}
func (n *Notifier) Publish(alert *models.Alert) error {
	payload := alertPayload{
		AlertID:     alert.AlertID,
		HouseholdID: alert.HouseholdID,
		Type:        alert.AlertType,
		Severity:    alert.Severity,
		Title:       models.AlertTitle(alert.AlertType),
		Message:     alert.Message,
		Context:     alert.Context,
		Actionable:  alert.Actionable,
		Timestamp:   alert.Timestamp,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal alert payload: %w", err)
	}

	topic := n.config.TopicPrefix + alert.HouseholdID
	token := n.client.Publish(topic, n.config.QoS, false, data)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	n.logger.Info("Pushed alert notification",
		zap.String("alert_id", alert.AlertID),
		zap.String("topic", topic),
	)

	return nil
}

// Close 断开 MQTT 连接
func (n *Notifier) Close() {
	n.client.Disconnect(250)
}
