package learner

import (
	"time"

	"wellness-monitor/internal/models"
)

// BuildBaseline 将滚动窗口内的例程记录聚合为基线快照
// 稀疏窗口（找到的记录少于 windowDays）照常产出基线，缺口记录在 data_quality 中
func BuildBaseline(householdID string, routines []models.DailyRoutine, windowDays int, startDate, endDate string, now time.Time) *models.Baseline {
	var wakeMinutes, bedMinutes, kitchenMinutes []float64
	var bathroomCounts, totalCounts []int
	var durations []float64

	completeDays := 0

	for i := range routines {
		routine := &routines[i]

		if m, ok := clockMinutes(routine.WakeUpTime); ok {
			wakeMinutes = append(wakeMinutes, m)
		}
		if m, ok := clockMinutes(routine.BedTime); ok {
			bedMinutes = append(bedMinutes, m)
		}
		if m, ok := clockMinutes(routine.FirstKitchenTime); ok {
			kitchenMinutes = append(kitchenMinutes, m)
		}

		bathroomCounts = append(bathroomCounts, routine.BathroomEvents)
		totalCounts = append(totalCounts, routine.TotalEvents)

		// 活动时长要求起止都有效，缺任一端的记录不参与
		start, okStart := clockMinutes(routine.ActivityStart)
		end, okEnd := clockMinutes(routine.ActivityEnd)
		if okStart && okEnd {
			durations = append(durations, end-start)
		}

		if routine.WakeUpTime != nil && routine.BedTime != nil && routine.FirstKitchenTime != nil {
			completeDays++
		}
	}

	return &models.Baseline{
		BaselineID:       models.BaselineKey(householdID, endDate, windowDays),
		HouseholdID:      householdID,
		BaselineType:     models.BaselineType(windowDays),
		WindowDays:       windowDays,
		WakeUpTime:       timeStatsOf(wakeMinutes),
		BedTime:          timeStatsOf(bedMinutes),
		FirstKitchenTime: timeStatsOf(kitchenMinutes),
		BathroomVisits:   countStatsOf(bathroomCounts),
		TotalDailyEvents: countStatsOf(totalCounts),
		ActivityDuration: durationStatsOf(durations),
		DataQuality: models.DataQuality{
			DaysWithCompleteData: completeDays,
			DaysMissingKeyFields: len(routines) - completeDays,
			ReliabilityScore:     round1(float64(len(routines)) / float64(windowDays)),
		},
		Period: models.BaselinePeriod{
			StartDate: startDate,
			EndDate:   endDate,
			DaysFound: len(routines),
		},
		ComputedAt: now,
	}
}

// clockMinutes 将可空的 "HH:MM" 字段转换为当日分钟数
func clockMinutes(clock *string) (float64, bool) {
	if clock == nil {
		return 0, false
	}
	m, ok := models.MinutesOfDay(*clock)
	if !ok {
		return 0, false
	}
	return float64(m), true
}
