// Package event は予定スケジューリングストアを提供する。
// 時刻順に並んだ予定コレクションを所有し、挿入時の重複禁止不変条件と
// タイムフレーム問い合わせを実装する。
package event

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/calman/internal/model"
	"github.com/hitoshi/calman/internal/repository"
)

// Service は予定スケジューリングストア。
//
// ストアはバッキングストアの唯一のライターであるとは仮定しないため、
// すべての操作はリード前にリポジトリから再同期する（load-before-read）。
// 変更系操作はread-modify-persistの全区間で排他ロックを取得する。
// Addの衝突検出はコレクション全体を読むため、並行するAddが
// 書きかけの状態を観測したり同じ衝突窓をすり抜けたりしてはならない。
type Service struct {
	mu   sync.RWMutex
	repo repository.EventRepository

	// now はタイムフレーム判定の基準時刻。テストで差し替える。
	now func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.EventRepository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Add は予定を追加する。
// IDが未設定の場合は新規に採番する。既存予定と[start, end)区間が交差する
// 場合は衝突相手を特定したConflictエラーを返し、何も書き込まない。
// 成功時はコレクションを(開始日, 開始時刻)昇順に並べ直してから永続化し、
// 採番済みの予定を返す。
func (s *Service) Add(ctx context.Context, e model.Event) (model.Event, error) {
	if err := e.Validate(); err != nil {
		return model.Event{}, err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.repo.LoadAll(ctx)
	if err != nil {
		return model.Event{}, err
	}

	for i := range events {
		overlaps, err := e.Overlaps(&events[i])
		if err != nil {
			return model.Event{}, err
		}
		if overlaps {
			return model.Event{}, model.NewEventConflictError(&events[i])
		}
	}

	events = append(events, e)
	sortByStart(events)

	if err := s.repo.SaveAll(ctx, events); err != nil {
		return model.Event{}, err
	}

	return e, nil
}

// Remove は指定IDの予定を削除して永続化する。
// 該当する予定がない場合はNotFoundエラーを返す。
func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range events {
		if events[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.NewEventNotFoundError(id)
	}

	events = append(events[:idx], events[idx+1:]...)

	return s.repo.SaveAll(ctx, events)
}

// GetByID は指定IDの予定を返す。該当がない場合はNotFoundエラーを返す。
func (s *Service) GetByID(ctx context.Context, id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.repo.LoadAll(ctx)
	if err != nil {
		return model.Event{}, err
	}

	for i := range events {
		if events[i].ID == id {
			return events[i], nil
		}
	}

	return model.Event{}, model.NewEventNotFoundError(id)
}

// List はタイムフレームに合致する予定を(開始日, 開始時刻)昇順で返す。
// コレクション全体が空の場合はタイムフレームに関わらずNoEventsを返す。
// フィルタ後が空の場合はエラーではなく空スライスを返す。
func (s *Service) List(ctx context.Context, tf Timeframe) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return nil, model.NewNoEventsError()
	}

	now := s.now()
	matched := make([]model.Event, 0, len(events))
	for i := range events {
		start, err := events[i].StartAt()
		if err != nil {
			return nil, err
		}
		if tf.Contains(start, now) {
			matched = append(matched, events[i])
		}
	}

	sortByStart(matched)
	return matched, nil
}

// HasSource は指定の取り込み元IDを持つ予定が既に存在するかを返す。
// 外部カレンダー取り込みの重複防止に使用する。
func (s *Service) HasSource(ctx context.Context, source, sourceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.repo.LoadAll(ctx)
	if err != nil {
		return false, err
	}

	for i := range events {
		if events[i].Source == source && events[i].SourceID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

// Upcoming は開始日時が[from, to)に含まれる予定を昇順で返す。
// リマインダーディスパッチャが期日窓の抽出に使用する。
func (s *Service) Upcoming(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]model.Event, 0)
	for i := range events {
		start, err := events[i].StartAt()
		if err != nil {
			return nil, err
		}
		if !start.Before(from) && start.Before(to) {
			matched = append(matched, events[i])
		}
	}

	sortByStart(matched)
	return matched, nil
}

// sortByStart はコレクションを合成済み開始日時の昇順に並べ替える。
// 要素はロード時に検証済みのため、ここでのパース失敗は想定しない。
func sortByStart(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		si, err := events[i].StartAt()
		if err != nil {
			return false
		}
		sj, err := events[j].StartAt()
		if err != nil {
			return true
		}
		return si.Before(sj)
	})
}
