package learner

import (
	"sort"
	"strings"

	"wellness-monitor/internal/models"
)

// ExtractRoutine 将一个家庭一天内的事件压缩为每日例程
// 输入事件可以无序，内部按时间戳排序后单趟扫描
// 无事件时返回全空例程（调用方负责跳过持久化）
func ExtractRoutine(householdID, date string, events []models.SensorEvent) *models.DailyRoutine {
	routine := &models.DailyRoutine{
		HouseholdID: householdID,
		Date:        date,
		RoutineID:   models.RoutineKey(householdID, date),
		TotalEvents: len(events),
	}

	if len(events) == 0 {
		return routine
	}

	sorted := make([]models.SensorEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	// 首/末卧室动作时刻，用于缺失床压数据时的回退
	var firstBedroomMotion, lastBedroomMotion *string

	var activityStart, activityEnd *string

	for i := range sorted {
		event := &sorted[i]
		clock := event.ClockTime()
		if clock == "" {
			// 时间戳无法解析的事件只计入总数，不参与任何时刻字段
			continue
		}

		if activityStart == nil {
			activityStart = strPtr(clock)
		}
		activityEnd = strPtr(clock)

		switch event.SensorType {
		case models.SensorBedPresence:
			if event.IsFalsy() && routine.WakeUpTime == nil {
				routine.WakeUpTime = strPtr(clock)
			}
			if event.IsTruthy() {
				// 持续覆盖，保留最后一次上床时刻
				routine.BedTime = strPtr(clock)
			}
		case models.SensorMotion:
			if !event.IsTruthy() {
				continue
			}
			if event.Location == "kitchen" && routine.FirstKitchenTime == nil {
				routine.FirstKitchenTime = strPtr(clock)
			}
			if strings.Contains(event.Location, "bathroom") {
				if routine.BathroomFirstTime == nil {
					routine.BathroomFirstTime = strPtr(clock)
				}
				routine.BathroomEvents++
			}
			if strings.HasPrefix(event.Location, "bedroom") {
				if firstBedroomMotion == nil {
					firstBedroomMotion = strPtr(clock)
				}
				lastBedroomMotion = strPtr(clock)
			}
		}
	}

	routine.ActivityStart = activityStart
	routine.ActivityEnd = activityEnd

	// 床压数据缺失时回退到卧室动作
	if routine.WakeUpTime == nil {
		routine.WakeUpTime = firstBedroomMotion
	}
	if routine.BedTime == nil {
		routine.BedTime = lastBedroomMotion
	}

	return routine
}

func strPtr(s string) *string {
	return &s
}
