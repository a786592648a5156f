package event

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/calman/internal/model"
)

// --- モック ---

// memEventRepo はテスト用のインメモリリポジトリ。
type memEventRepo struct {
	events  []model.Event
	loadErr error
	saveErr error
	saves   int
}

func (m *memEventRepo) LoadAll(ctx context.Context) ([]model.Event, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]model.Event, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *memEventRepo) SaveAll(ctx context.Context, events []model.Event) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.events = make([]model.Event, len(events))
	copy(m.events, events)
	m.saves++
	return nil
}

func testEvent(id, name, startDate, startTime, endDate, endTime string) model.Event {
	return model.Event{
		ID:          id,
		Name:        name,
		Description: "desc",
		StartDate:   startDate,
		StartTime:   startTime,
		EndDate:     endDate,
		EndTime:     endTime,
	}
}

func newTestService(repo *memEventRepo, now time.Time) *Service {
	s := NewService(repo)
	s.now = func() time.Time { return now }
	return s
}

func TestAdd_OverlappingEvent_ReturnsConflict(t *testing.T) {
	repo := &memEventRepo{events: []model.Event{
		testEvent("ev-1", "朝会", "10.10.2030", "10:00", "10.10.2030", "11:00"),
	}}
	s := newTestService(repo, time.Now())

	_, err := s.Add(context.Background(),
		testEvent("", "面談", "10.10.2030", "10:30", "10.10.2030", "11:30"))

	be, ok := model.AsBotError(err)
	if !ok || be.Kind != model.KindConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	// 衝突相手の名前と時間帯が報告される
	for _, want := range []string{"朝会", "10.10.2030", "10:00", "11:00"} {
		if !strings.Contains(be.Message, want) {
			t.Errorf("conflict message %q should contain %q", be.Message, want)
		}
	}
	if repo.saves != 0 {
		t.Error("conflicting add must not persist")
	}
}

func TestAdd_AdjacentIntervals_DoNotConflict(t *testing.T) {
	repo := &memEventRepo{events: []model.Event{
		testEvent("ev-1", "朝会", "10.10.2030", "10:00", "10.10.2030", "11:00"),
	}}
	s := newTestService(repo, time.Now())

	// [10:00,11:00)と[11:00,12:00)は交差しない
	if _, err := s.Add(context.Background(),
		testEvent("", "後続", "10.10.2030", "11:00", "10.10.2030", "12:00")); err != nil {
		t.Fatalf("adjacent event should not conflict: %v", err)
	}
}

func TestAdd_GeneratesIDAndSortsAscending(t *testing.T) {
	repo := &memEventRepo{events: []model.Event{
		testEvent("ev-late", "午後", "10.10.2030", "15:00", "10.10.2030", "16:00"),
	}}
	s := newTestService(repo, time.Now())

	added, err := s.Add(context.Background(),
		testEvent("", "午前", "10.10.2030", "09:00", "10.10.2030", "10:00"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added.ID == "" {
		t.Error("expected generated ID for event without one")
	}

	if len(repo.events) != 2 {
		t.Fatalf("expected 2 persisted events, got %d", len(repo.events))
	}
	if repo.events[0].Name != "午前" || repo.events[1].Name != "午後" {
		t.Errorf("persisted order = [%s, %s], want ascending by start",
			repo.events[0].Name, repo.events[1].Name)
	}
}

func TestAdd_InvalidInterval_ReturnsError(t *testing.T) {
	s := newTestService(&memEventRepo{}, time.Now())

	// 開始が終了より後
	_, err := s.Add(context.Background(),
		testEvent("", "逆転", "10.10.2030", "12:00", "10.10.2030", "11:00"))
	if err == nil {
		t.Error("expected error for start after end")
	}
}

func TestAdd_ThenListAll_ContainsEventOnce(t *testing.T) {
	repo := &memEventRepo{}
	s := newTestService(repo, time.Now())

	added, err := s.Add(context.Background(),
		testEvent("", "単発", "10.10.2030", "10:00", "10.10.2030", "11:00"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	listed, err := s.List(context.Background(), TimeframeAll)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	count := 0
	for _, e := range listed {
		if e.ID == added.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("added event appears %d times in list, want 1", count)
	}
}

func TestList_EmptyStore_ReturnsNoEvents(t *testing.T) {
	s := newTestService(&memEventRepo{}, time.Now())

	for _, tf := range []Timeframe{TimeframeToday, TimeframeNextWeek, TimeframeAll} {
		_, err := s.List(context.Background(), tf)
		be, ok := model.AsBotError(err)
		if !ok || be.Kind != model.KindNoEvents {
			t.Errorf("List(%s) on empty store = %v, want no_events", tf, err)
		}
	}
}

func TestList_FiltersByTimeframe(t *testing.T) {
	// 2030-05-15は水曜日
	now := time.Date(2030, 5, 15, 8, 0, 0, 0, time.Local)
	repo := &memEventRepo{events: []model.Event{
		testEvent("ev-today", "今日", "15.05.2030", "10:00", "15.05.2030", "11:00"),
		testEvent("ev-tomorrow", "明日", "16.05.2030", "10:00", "16.05.2030", "11:00"),
		testEvent("ev-next-week", "翌週", "21.05.2030", "10:00", "21.05.2030", "11:00"),
		testEvent("ev-next-month", "来月", "03.06.2030", "10:00", "03.06.2030", "11:00"),
	}}
	s := newTestService(repo, now)

	tests := []struct {
		tf      Timeframe
		wantIDs []string
	}{
		{TimeframeToday, []string{"ev-today"}},
		{TimeframeTomorrow, []string{"ev-tomorrow"}},
		{TimeframeThisWeek, []string{"ev-today", "ev-tomorrow"}},
		{TimeframeNextWeek, []string{"ev-next-week"}},
		{TimeframeThisMonth, []string{"ev-today", "ev-tomorrow", "ev-next-week"}},
		{TimeframeNextMonth, []string{"ev-next-month"}},
		{TimeframeAll, []string{"ev-today", "ev-tomorrow", "ev-next-week", "ev-next-month"}},
	}

	for _, tt := range tests {
		listed, err := s.List(context.Background(), tt.tf)
		if err != nil {
			t.Fatalf("List(%s) failed: %v", tt.tf, err)
		}
		if len(listed) != len(tt.wantIDs) {
			t.Errorf("List(%s) returned %d events, want %d", tt.tf, len(listed), len(tt.wantIDs))
			continue
		}
		for i, want := range tt.wantIDs {
			if listed[i].ID != want {
				t.Errorf("List(%s)[%d] = %s, want %s", tt.tf, i, listed[i].ID, want)
			}
		}
	}
}

func TestRemove(t *testing.T) {
	repo := &memEventRepo{events: []model.Event{
		testEvent("ev-1", "削除対象", "10.10.2030", "10:00", "10.10.2030", "11:00"),
	}}
	s := newTestService(repo, time.Now())

	if err := s.Remove(context.Background(), "ev-1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(repo.events) != 0 {
		t.Errorf("expected empty collection after remove, got %d", len(repo.events))
	}

	err := s.Remove(context.Background(), "ev-missing")
	be, ok := model.AsBotError(err)
	if !ok || be.Kind != model.KindNotFound {
		t.Errorf("Remove of missing id = %v, want not_found", err)
	}
}

func TestGetByID(t *testing.T) {
	repo := &memEventRepo{events: []model.Event{
		testEvent("ev-1", "対象", "10.10.2030", "10:00", "10.10.2030", "11:00"),
	}}
	s := newTestService(repo, time.Now())

	got, err := s.GetByID(context.Background(), "ev-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "対象" {
		t.Errorf("GetByID returned %q, want %q", got.Name, "対象")
	}

	_, err = s.GetByID(context.Background(), "nope")
	be, ok := model.AsBotError(err)
	if !ok || be.Kind != model.KindNotFound {
		t.Errorf("GetByID of missing id = %v, want not_found", err)
	}
}

func TestUpcoming_ReturnsEventsInWindow(t *testing.T) {
	repo := &memEventRepo{events: []model.Event{
		testEvent("ev-in", "窓内", "15.05.2030", "10:10", "15.05.2030", "11:00"),
		testEvent("ev-before", "窓前", "15.05.2030", "09:00", "15.05.2030", "09:30"),
		testEvent("ev-after", "窓後", "15.05.2030", "12:00", "15.05.2030", "13:00"),
	}}
	s := newTestService(repo, time.Now())

	from := time.Date(2030, 5, 15, 10, 0, 0, 0, time.Local)
	to := from.Add(time.Hour)

	got, err := s.Upcoming(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Upcoming failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ev-in" {
		t.Errorf("Upcoming = %+v, want only ev-in", got)
	}
}

func TestList_RepoError_Propagates(t *testing.T) {
	repoErr := errors.New("disk on fire")
	s := newTestService(&memEventRepo{loadErr: repoErr}, time.Now())

	if _, err := s.List(context.Background(), TimeframeAll); !errors.Is(err, repoErr) {
		t.Errorf("List error = %v, want wrapped repo error", err)
	}
}
