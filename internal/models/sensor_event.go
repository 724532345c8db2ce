package models

import (
	"time"
)

// TimestampLayout 传感器事件时间戳格式（本地时钟，秒级精度）
const TimestampLayout = "2006-01-02T15:04:05"

// 传感器类型
const (
	SensorMotion      = "motion"
	SensorBedPresence = "bed_presence"
	SensorDoor        = "door"
	SensorPanic       = "panic"
)

// SensorEvent 传感器事件（不可变，来自事件总线）
type SensorEvent struct {
	EventID     string `json:"event_id,omitempty"`
	HouseholdID string `json:"household_id"`
	SensorID    string `json:"sensor_id,omitempty"`
	SensorType  string `json:"sensor_type"`
	Location    string `json:"location"`
	Value       string `json:"value"`
	Timestamp   string `json:"timestamp"` // TimestampLayout 格式
	Resident    string `json:"resident,omitempty"`
}

// ParseTime 解析事件时间戳
// 格式错误返回 ok=false，调用方按"缺失数据"处理，不作为错误传播
func (e *SensorEvent) ParseTime() (time.Time, bool) {
	return ParseTimestamp(e.Timestamp)
}

// ClockTime 提取事件时间戳的 HH:MM 部分，格式错误返回空字符串
func (e *SensorEvent) ClockTime() string {
	t, ok := e.ParseTime()
	if !ok {
		return ""
	}
	return t.Format("15:04")
}

// IsTruthy 判断事件值是否为"真"（传感器值以字符串形式传输）
func (e *SensorEvent) IsTruthy() bool {
	switch e.Value {
	case "True", "true", "1":
		return true
	}
	return false
}

// IsFalsy 判断事件值是否为"假"
func (e *SensorEvent) IsFalsy() bool {
	switch e.Value {
	case "False", "false", "0":
		return true
	}
	return false
}

// ParseTimestamp 解析 TimestampLayout 格式的时间戳
func ParseTimestamp(s string) (time.Time, bool) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MinutesOfDay 将 "HH:MM" 转换为当日分钟数
// 格式错误返回 ok=false
func MinutesOfDay(clock string) (int, bool) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, false
	}
	h := int(clock[0]-'0')*10 + int(clock[1]-'0')
	m := int(clock[3]-'0')*10 + int(clock[4]-'0')
	if clock[0] < '0' || clock[0] > '9' || clock[1] < '0' || clock[1] > '9' ||
		clock[3] < '0' || clock[3] > '9' || clock[4] < '0' || clock[4] > '9' {
		return 0, false
	}
	if h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// ClockOfMinutes 将当日分钟数转换回 "HH:MM"
func ClockOfMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	minutes = minutes % (24 * 60)
	h := minutes / 60
	m := minutes % 60
	return twoDigits(h) + ":" + twoDigits(m)
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
