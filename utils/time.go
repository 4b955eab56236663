package utils

import (
	"fmt"
	"time"
)

const (
	// DateLayout 行程日期格式
	DateLayout = "2006-01-02"
	// ClockLayout 行程条目时间格式
	ClockLayout = "15:04"
)

// ParseClock 解析 HH:MM，返回当天的分钟数
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// IsValidClock 判断是否为合法的 HH:MM
func IsValidClock(clock string) bool {
	if len(clock) != len(ClockLayout) {
		return false
	}
	_, err := ParseClock(clock)
	return err == nil
}

// ParseDate 解析 YYYY-MM-DD 为 UTC 零点
func ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// DaysBetween 返回闭区间 [start, end] 的天数，end 早于 start 时返回 0
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}
