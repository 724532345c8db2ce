package models

import "strings"

// DailyState 单个家庭的当日活动状态（内存态，跨日丢弃重建）
// "首次出现"字段只允许设置一次，计数字段单调递增
type DailyState struct {
	HouseholdID      string
	WakeDetected     bool
	WakeUpTime       *string // HH:MM
	KitchenVisited   bool
	FirstKitchenTime *string // HH:MM
	BathroomCount    int
	LastMotionTime   *string // TimestampLayout 格式
	LastLocation     *string
	DoorOpened       bool
}

// NewDailyState 创建空的当日状态
func NewDailyState(householdID string) *DailyState {
	return &DailyState{HouseholdID: householdID}
}

// Fold 将单个事件合入状态
// 首次出现字段幂等（重复事件不覆盖），末次出现字段按到达顺序覆盖
func (s *DailyState) Fold(event *SensorEvent) {
	switch event.SensorType {
	case SensorBedPresence:
		if event.IsFalsy() && !s.WakeDetected {
			clock := event.ClockTime()
			if clock != "" {
				s.WakeDetected = true
				s.WakeUpTime = setIfAbsent(s.WakeUpTime, clock)
			}
		}
	case SensorMotion:
		if event.IsTruthy() {
			if event.Location == "kitchen" && !s.KitchenVisited {
				clock := event.ClockTime()
				if clock != "" {
					s.KitchenVisited = true
					s.FirstKitchenTime = setIfAbsent(s.FirstKitchenTime, clock)
				}
			}
			if containsBathroom(event.Location) {
				s.BathroomCount++
			}
			ts := event.Timestamp
			loc := event.Location
			s.LastMotionTime = &ts
			s.LastLocation = &loc
		}
	case SensorDoor:
		if event.Location == "entrance" {
			s.DoorOpened = true
		}
	}
}

// setIfAbsent 只在字段未设置时写入（使幂等约定显式化）
func setIfAbsent(current *string, value string) *string {
	if current != nil {
		return current
	}
	return &value
}

// containsBathroom location 可能是 "bathroom"、"bathroom1" 等
func containsBathroom(location string) bool {
	return strings.Contains(location, "bathroom")
}
