package event

import (
	"strings"
	"time"
)

// Timeframe は予定の開始日に対する名前付きフィルタ述語。
type Timeframe string

const (
	TimeframeToday     Timeframe = "today"
	TimeframeTomorrow  Timeframe = "tomorrow"
	TimeframeThisWeek  Timeframe = "this-week"
	TimeframeNextWeek  Timeframe = "next-week"
	TimeframeThisMonth Timeframe = "this-month"
	TimeframeNextMonth Timeframe = "next-month"
	TimeframeAll       Timeframe = "all"
)

// ValidTimeframeTokens は受け付けるタイムフレームトークンの一覧。
// エラーメッセージの提示順をここで固定する。
var ValidTimeframeTokens = []string{
	string(TimeframeToday),
	string(TimeframeTomorrow),
	string(TimeframeThisWeek),
	string(TimeframeNextWeek),
	string(TimeframeThisMonth),
	string(TimeframeNextMonth),
	string(TimeframeAll),
}

// ParseTimeframe はトークンをTimeframeとして解釈する。大文字小文字は区別しない。
// 未対応トークンの拒否は呼び出し側（コマンドハンドラ）の責務であり、
// ストアには検証済みのTimeframeのみが渡る。
func ParseTimeframe(token string) (Timeframe, bool) {
	tf := Timeframe(strings.ToLower(token))
	switch tf {
	case TimeframeToday, TimeframeTomorrow,
		TimeframeThisWeek, TimeframeNextWeek,
		TimeframeThisMonth, TimeframeNextMonth,
		TimeframeAll:
		return tf, true
	}
	return "", false
}

// dateOf は時刻成分を落とし、日付のみのtime.Timeに正規化する。
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek は指定日を含む週の月曜日を返す（週は月曜始まり）。
func startOfWeek(t time.Time) time.Time {
	d := dateOf(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDate(0, 0, -offset)
}

// Contains は予定の開始日時がタイムフレームに含まれるかを、
// 現在時刻nowを基準に判定する。
func (tf Timeframe) Contains(start, now time.Time) bool {
	day := dateOf(start)

	switch tf {
	case TimeframeToday:
		return day.Equal(dateOf(now))
	case TimeframeTomorrow:
		return day.Equal(dateOf(now).AddDate(0, 0, 1))
	case TimeframeThisWeek:
		monday := startOfWeek(now)
		return !day.Before(monday) && day.Before(monday.AddDate(0, 0, 7))
	case TimeframeNextWeek:
		// 今週の日曜日の直後から始まる7日間
		nextMonday := startOfWeek(now).AddDate(0, 0, 7)
		return !day.Before(nextMonday) && day.Before(nextMonday.AddDate(0, 0, 7))
	case TimeframeThisMonth:
		return day.Year() == now.Year() && day.Month() == now.Month()
	case TimeframeNextMonth:
		// time.Dateの正規化により12月→1月の年跨ぎも正しく扱われる
		next := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
		return day.Year() == next.Year() && day.Month() == next.Month()
	case TimeframeAll:
		return true
	}
	return false
}
