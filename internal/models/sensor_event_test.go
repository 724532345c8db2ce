package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSensorEvent_ClockTime(t *testing.T) {
	e := SensorEvent{Timestamp: "2026-03-01T06:05:30"}
	assert.Equal(t, "06:05", e.ClockTime())

	bad := SensorEvent{Timestamp: "06:05"}
	assert.Equal(t, "", bad.ClockTime())
}

func TestSensorEvent_TruthyFalsy(t *testing.T) {
	assert.True(t, (&SensorEvent{Value: "True"}).IsTruthy())
	assert.True(t, (&SensorEvent{Value: "1"}).IsTruthy())
	assert.False(t, (&SensorEvent{Value: "False"}).IsTruthy())

	assert.True(t, (&SensorEvent{Value: "false"}).IsFalsy())
	assert.False(t, (&SensorEvent{Value: "on"}).IsFalsy())
	// 未知取值既不为真也不为假
	assert.False(t, (&SensorEvent{Value: "on"}).IsTruthy())
}

func TestMinutesOfDay(t *testing.T) {
	m, ok := MinutesOfDay("06:30")
	assert.True(t, ok)
	assert.Equal(t, 390, m)

	_, ok = MinutesOfDay("25:00")
	assert.False(t, ok)
	_, ok = MinutesOfDay("640")
	assert.False(t, ok)

	assert.Equal(t, "06:30", ClockOfMinutes(390))
}

func TestIdentityKeys(t *testing.T) {
	assert.Equal(t, "house-001_2026-03-01", RoutineKey("house-001", "2026-03-01"))
	assert.Equal(t, "house-001_2026-03-01_baseline7", BaselineKey("house-001", "2026-03-01", 7))
	assert.Equal(t, "house-001_2026-03-01T09:00:00_late_wake_up",
		AlertKey("house-001", "2026-03-01T09:00:00", AnomalyLateWakeUp))
	assert.Equal(t, "rolling7", BaselineType(7))
}
