// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// 永続化レイアウトで使用する固定フォーマット。
// 日付は「日.月.年」、時刻は24時間制の「時:分」のみを受け付ける。
const (
	DateLayout = "02.01.2006"
	TimeLayout = "15:04"
)

// Event はカレンダー上の1つの予定を表す。
// 日付・時刻は永続化レイアウトと同じ文字列表現で保持し、
// 比較・ソートが必要な場面でのみtime.Timeに変換する。
type Event struct {
	ID          string
	Name        string
	Description string
	StartDate   string
	StartTime   string
	EndDate     string
	EndTime     string

	// Source / SourceID は外部カレンダーから取り込んだ予定の出自を表す。
	// calman上で直接作成された予定では空になる。
	Source   string
	SourceID string
}

// EventRecord は予定の永続化レコード。
// ファイルバックエンドではこのJSON表現がそのまま保存される。
type EventRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	EndDate     string `json:"end_date"`
	EndTime     string `json:"end_time"`
	Source      string `json:"source,omitempty"`
	SourceID    string `json:"source_id,omitempty"`
}

// CombineDateTime は日付文字列と時刻文字列を1つのtime.Timeに合成する。
// フォーマットがDateLayout/TimeLayoutに一致しない場合はエラーを返す。
func CombineDateTime(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("日付時刻のパースに失敗しました (%q %q): %w", date, clock, err)
	}
	return t, nil
}

// StartAt は開始日時を合成して返す。
func (e *Event) StartAt() (time.Time, error) {
	return CombineDateTime(e.StartDate, e.StartTime)
}

// EndAt は終了日時を合成して返す。
func (e *Event) EndAt() (time.Time, error) {
	return CombineDateTime(e.EndDate, e.EndTime)
}

// Validate は日付・時刻フォーマットと開始<終了の不変条件を検証する。
func (e *Event) Validate() error {
	start, err := e.StartAt()
	if err != nil {
		return err
	}
	end, err := e.EndAt()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("予定 %q の開始日時が終了日時より前になっていません", e.Name)
	}
	return nil
}

// Overlaps は2つの予定の[start, end)区間が交差するかを判定する。
// 判定式: newStart < existingEnd && newEnd > existingStart
// 両イベントのフォーマットが検証済みであることを前提とする。
func (e *Event) Overlaps(other *Event) (bool, error) {
	s1, err := e.StartAt()
	if err != nil {
		return false, err
	}
	e1, err := e.EndAt()
	if err != nil {
		return false, err
	}
	s2, err := other.StartAt()
	if err != nil {
		return false, err
	}
	e2, err := other.EndAt()
	if err != nil {
		return false, err
	}
	return s1.Before(e2) && e1.After(s2), nil
}

// jaWeekdays は返信メッセージに使用する曜日表記。
var jaWeekdays = [...]string{"日曜日", "月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日"}

// DayName は開始日の曜日名を返す。開始日が不正な場合は空文字を返す。
func (e *Event) DayName() string {
	start, err := e.StartAt()
	if err != nil {
		return ""
	}
	return jaWeekdays[int(start.Weekday())]
}

// Summary は一覧表示用の1行サマリーを返す。
func (e *Event) Summary() string {
	return fmt.Sprintf("%s %s %s-%s %s", e.StartDate, e.DayName(), e.StartTime, e.EndTime, e.Name)
}

// Detailed は詳細表示用の複数行テキストを返す。
func (e *Event) Detailed() string {
	return fmt.Sprintf("📅 %s\n📝 %s\n📆 %s（%s）\n⏰ %s - %s",
		e.Name, e.Description, e.StartDate, e.DayName(), e.StartTime, e.EndTime)
}

// Record は永続化レコードに変換する。
func (e *Event) Record() EventRecord {
	return EventRecord{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		StartDate:   e.StartDate,
		StartTime:   e.StartTime,
		EndDate:     e.EndDate,
		EndTime:     e.EndTime,
		Source:      e.Source,
		SourceID:    e.SourceID,
	}
}

// EventFromRecord は永続化レコードからEventを復元する。
// 日付・時刻フォーマットの検証を行い、不正なレコードはロード時エラーとして報告する。
// 暗黙の補正は行わない。
func EventFromRecord(r EventRecord) (Event, error) {
	e := Event{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		StartDate:   r.StartDate,
		StartTime:   r.StartTime,
		EndDate:     r.EndDate,
		EndTime:     r.EndTime,
		Source:      r.Source,
		SourceID:    r.SourceID,
	}
	if err := e.Validate(); err != nil {
		return Event{}, fmt.Errorf("予定レコードが不正です (id=%s): %w", r.ID, err)
	}
	return e, nil
}
