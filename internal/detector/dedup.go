package detector

import (
	"fmt"
	"sync"
	"time"
)

// cooldownTable 进程内告警冷却表
// 按（家庭，告警类型）记录上次发送时间；进程重启后丢失，
// 持久层 ExistsUnacknowledged 查询是重启与并发评估下的最终防线
type cooldownTable struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	cooldown time.Duration
}

func newCooldownTable(cooldown time.Duration) *cooldownTable {
	return &cooldownTable{
		lastSent: make(map[string]time.Time),
		cooldown: cooldown,
	}
}

func cooldownKey(householdID, alertType string) string {
	return fmt.Sprintf("%s_%s", householdID, alertType)
}

// shouldSend 冷却窗口内已发送过同类型告警时返回 false
func (t *cooldownTable) shouldSend(householdID, alertType string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.lastSent[cooldownKey(householdID, alertType)]
	if !ok {
		return true
	}
	return now.Sub(last) >= t.cooldown
}

// markSent 记录发送时间（持久化成功后调用）
func (t *cooldownTable) markSent(householdID, alertType string, now time.Time) {
	t.mu.Lock()
	t.lastSent[cooldownKey(householdID, alertType)] = now
	t.mu.Unlock()
}
