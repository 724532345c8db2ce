package learner

import (
	"math"
	"sort"

	"wellness-monitor/internal/models"
)

// median 中位数（输入无需有序）
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mean 算术平均
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev 样本标准差（少于 2 个数据点时为 0）
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// timeStatsOf 时刻型字段统计（输入为当日分钟数）
func timeStatsOf(minutes []float64) *models.TimeStats {
	if len(minutes) == 0 {
		return nil
	}

	minVal, maxVal := minutes[0], minutes[0]
	for _, v := range minutes {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	return &models.TimeStats{
		Median:        models.ClockOfMinutes(int(math.Round(median(minutes)))),
		Mean:          models.ClockOfMinutes(int(math.Round(mean(minutes)))),
		StdDevMinutes: round1(sampleStdDev(minutes)),
		Earliest:      models.ClockOfMinutes(int(minVal)),
		Latest:        models.ClockOfMinutes(int(maxVal)),
	}
}

// countStatsOf 计数型字段统计
func countStatsOf(counts []int) *models.CountStats {
	if len(counts) == 0 {
		return nil
	}

	values := make([]float64, len(counts))
	minVal, maxVal := counts[0], counts[0]
	for i, c := range counts {
		values[i] = float64(c)
		if c < minVal {
			minVal = c
		}
		if c > maxVal {
			maxVal = c
		}
	}

	return &models.CountStats{
		DailyAvg:    round1(mean(values)),
		DailyMedian: median(values),
		MinDaily:    minVal,
		MaxDaily:    maxVal,
		StdDev:      round1(sampleStdDev(values)),
	}
}

// durationStatsOf 活动时长统计（分钟）
func durationStatsOf(durations []float64) *models.DurationStats {
	if len(durations) == 0 {
		return nil
	}

	minVal, maxVal := durations[0], durations[0]
	for _, v := range durations {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	return &models.DurationStats{
		AvgMinutes:    round1(mean(durations)),
		MedianMinutes: median(durations),
		MinMinutes:    minVal,
		MaxMinutes:    maxVal,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
