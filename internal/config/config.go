package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config 健康监测服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	LLM      LLMConfig
	Monitor  MonitorConfig
	Consumer ConsumerConfig
	Log      LogConfig
}

// DatabaseConfig PostgreSQL 连接配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig Redis 连接配置（事件流）
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT 推送配置
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
	TopicPrefix string // 告警主题前缀，如 "wellness/alerts/"
}

// LLMConfig LLM 摘要服务配置（未配置 APIKey 时使用模板摘要）
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// MonitorConfig 监测特定配置
type MonitorConfig struct {
	CooldownHours         int      // 同类型告警冷却时间（小时），默认 2
	WindowDays            int      // 基线滚动窗口天数，默认 7
	CheckTimes            []string // 定时检查时刻（HH:MM），默认 09:00/11:00/14:00/22:00
	CriticalSensors       []string // 触发即时评估的传感器类型，默认 door/panic
	LearnerRunTime        string   // 每日例程学习时刻（HH:MM），默认 00:30
	BaselineCacheTTLHours int      // 基线缓存有效期（小时），默认 24
}

// ConsumerConfig 事件流消费配置
type ConsumerConfig struct {
	Stream    string // Redis Stream 名称
	Group     string // 消费者组
	BatchSize int64  // 单次读取消息数
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string
	Format string
}

// Load 加载配置（从环境变量，带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "wellness")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wellness-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 0))
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "wellness/alerts/")

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", "https://integrate.api.nvidia.com/v1")
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", "")
	cfg.LLM.Model = getEnv("LLM_MODEL", "meta/llama3-8b-instruct")

	cfg.Monitor.CooldownHours = getEnvInt("MONITOR_COOLDOWN_HOURS", 2)
	cfg.Monitor.WindowDays = getEnvInt("MONITOR_WINDOW_DAYS", 7)
	cfg.Monitor.CheckTimes = getEnvList("MONITOR_CHECK_TIMES", "09:00,11:00,14:00,22:00")
	cfg.Monitor.CriticalSensors = getEnvList("MONITOR_CRITICAL_SENSORS", "door,panic")
	cfg.Monitor.LearnerRunTime = getEnv("MONITOR_LEARNER_RUN_TIME", "00:30")
	cfg.Monitor.BaselineCacheTTLHours = getEnvInt("MONITOR_BASELINE_CACHE_TTL_HOURS", 24)

	cfg.Consumer.Stream = getEnv("CONSUMER_STREAM", "wellness:events")
	cfg.Consumer.Group = getEnv("CONSUMER_GROUP", "wellness-monitor")
	cfg.Consumer.BatchSize = int64(getEnvInt("CONSUMER_BATCH_SIZE", 50))

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate 校验配置合法性
func (c *Config) validate() error {
	if c.Monitor.CooldownHours <= 0 {
		return fmt.Errorf("MONITOR_COOLDOWN_HOURS must be positive, got %d", c.Monitor.CooldownHours)
	}
	if c.Monitor.WindowDays <= 0 {
		return fmt.Errorf("MONITOR_WINDOW_DAYS must be positive, got %d", c.Monitor.WindowDays)
	}
	for _, t := range c.Monitor.CheckTimes {
		if !validClock(t) {
			return fmt.Errorf("invalid check time %q, expected HH:MM", t)
		}
	}
	if !validClock(c.Monitor.LearnerRunTime) {
		return fmt.Errorf("invalid learner run time %q, expected HH:MM", c.Monitor.LearnerRunTime)
	}
	return nil
}

// IsCriticalSensor 判断传感器类型是否触发即时评估
func (c *Config) IsCriticalSensor(sensorType string) bool {
	for _, s := range c.Monitor.CriticalSensors {
		if s == sensorType {
			return true
		}
	}
	return false
}

func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return false
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || m < 0 || m > 59 {
		return false
	}
	return true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
