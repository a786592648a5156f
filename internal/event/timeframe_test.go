package event

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestParseTimeframe(t *testing.T) {
	for _, token := range ValidTimeframeTokens {
		if _, ok := ParseTimeframe(token); !ok {
			t.Errorf("ParseTimeframe(%q) = false, want true", token)
		}
	}
	if tf, ok := ParseTimeframe("THIS-WEEK"); !ok || tf != TimeframeThisWeek {
		t.Errorf("ParseTimeframe(\"THIS-WEEK\") = (%v, %v), want (this-week, true)", tf, ok)
	}
	if _, ok := ParseTimeframe("yesterday"); ok {
		t.Error("ParseTimeframe(\"yesterday\") = true, want false")
	}
}

func TestTimeframe_Contains_TodayTomorrow(t *testing.T) {
	// 2030-05-15は水曜日
	now := time.Date(2030, 5, 15, 13, 45, 0, 0, time.Local)

	if !TimeframeToday.Contains(time.Date(2030, 5, 15, 9, 0, 0, 0, time.Local), now) {
		t.Error("today should contain an event later the same day")
	}
	if TimeframeToday.Contains(date(2030, 5, 16), now) {
		t.Error("today should not contain tomorrow")
	}
	if !TimeframeTomorrow.Contains(date(2030, 5, 16), now) {
		t.Error("tomorrow should contain the next day")
	}
	if TimeframeTomorrow.Contains(date(2030, 5, 15), now) {
		t.Error("tomorrow should not contain the same day")
	}
}

func TestTimeframe_Contains_Weeks(t *testing.T) {
	// 2030-05-15（水）を含む週: 月曜05-13 〜 日曜05-19
	now := time.Date(2030, 5, 15, 8, 0, 0, 0, time.Local)

	tests := []struct {
		tf   Timeframe
		day  time.Time
		want bool
	}{
		{TimeframeThisWeek, date(2030, 5, 13), true},  // 週初めの月曜
		{TimeframeThisWeek, date(2030, 5, 19), true},  // 週末の日曜
		{TimeframeThisWeek, date(2030, 5, 12), false}, // 前週の日曜
		{TimeframeThisWeek, date(2030, 5, 20), false}, // 翌週の月曜
		{TimeframeNextWeek, date(2030, 5, 20), true},  // 翌週の月曜
		{TimeframeNextWeek, date(2030, 5, 26), true},  // 翌週の日曜
		{TimeframeNextWeek, date(2030, 5, 19), false},
		{TimeframeNextWeek, date(2030, 5, 27), false},
	}

	for _, tt := range tests {
		if got := tt.tf.Contains(tt.day, now); got != tt.want {
			t.Errorf("%s.Contains(%s) = %v, want %v", tt.tf, tt.day.Format("02.01.2006"), got, tt.want)
		}
	}
}

func TestTimeframe_Contains_WeekStartsMonday(t *testing.T) {
	// 基準が日曜日の場合、this-weekはその日で終わる週を指す
	sunday := time.Date(2030, 5, 19, 22, 0, 0, 0, time.Local)

	if !TimeframeThisWeek.Contains(date(2030, 5, 13), sunday) {
		t.Error("this-week on Sunday should still contain the past Monday")
	}
	if TimeframeThisWeek.Contains(date(2030, 5, 20), sunday) {
		t.Error("this-week on Sunday should not contain the next Monday")
	}
	if !TimeframeNextWeek.Contains(date(2030, 5, 20), sunday) {
		t.Error("next-week on Sunday should contain the next Monday")
	}
}

func TestTimeframe_Contains_Months(t *testing.T) {
	now := time.Date(2030, 12, 31, 10, 0, 0, 0, time.Local)

	if !TimeframeThisMonth.Contains(date(2030, 12, 1), now) {
		t.Error("this-month should contain the first of the month")
	}
	if TimeframeThisMonth.Contains(date(2031, 1, 1), now) {
		t.Error("this-month should not contain January")
	}
	// 12月→1月の年跨ぎ
	if !TimeframeNextMonth.Contains(date(2031, 1, 15), now) {
		t.Error("next-month in December should contain January of the next year")
	}
	if TimeframeNextMonth.Contains(date(2030, 12, 31), now) {
		t.Error("next-month should not contain the current month")
	}
}

func TestTimeframe_Contains_All(t *testing.T) {
	now := time.Date(2030, 5, 15, 8, 0, 0, 0, time.Local)
	if !TimeframeAll.Contains(date(1999, 1, 1), now) {
		t.Error("all should contain any date")
	}
}
