package models

import (
	"fmt"
	"time"
)

// DailyRoutine 每日活动例程（对应 daily_routines 表，每家庭每日一条）
type DailyRoutine struct {
	RoutineID         string    `json:"routine_id" db:"routine_id"`
	HouseholdID       string    `json:"household_id" db:"household_id"`
	Date              string    `json:"date" db:"date"` // YYYY-MM-DD
	WakeUpTime        *string   `json:"wake_up_time,omitempty" db:"wake_up_time"`
	BedTime           *string   `json:"bed_time,omitempty" db:"bed_time"`
	FirstKitchenTime  *string   `json:"first_kitchen_time,omitempty" db:"first_kitchen_time"`
	BathroomFirstTime *string   `json:"bathroom_first_time,omitempty" db:"bathroom_first_time"`
	BathroomEvents    int       `json:"total_bathroom_events" db:"total_bathroom_events"`
	ActivityStart     *string   `json:"activity_start,omitempty" db:"activity_start"`
	ActivityEnd       *string   `json:"activity_end,omitempty" db:"activity_end"`
	TotalEvents       int       `json:"total_events" db:"total_events"`
	SummaryText       string    `json:"summary_text" db:"summary_text"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// RoutineKey 例程主键："{household_id}_{date}"
// 与既有持久化数据兼容，不可更改格式
func RoutineKey(householdID, date string) string {
	return fmt.Sprintf("%s_%s", householdID, date)
}
