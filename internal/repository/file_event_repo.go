package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hitoshi/calman/internal/model"
)

// FileEventRepo はJSONファイルを使用した予定リポジトリ。
// ファイルは永続化レコードの配列をそのまま保持する。
type FileEventRepo struct {
	path string
}

// NewFileEventRepo はFileEventRepoを生成する。
func NewFileEventRepo(path string) *FileEventRepo {
	return &FileEventRepo{path: path}
}

// LoadAll はファイルから全予定を読み込む。
// ファイルが存在しない場合は空のコレクションとして扱う。
func (r *FileEventRepo) LoadAll(ctx context.Context) ([]model.Event, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Event{}, nil
		}
		return nil, fmt.Errorf("予定ファイルの読み込みに失敗しました: %w", err)
	}

	var records []model.EventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("予定ファイルのJSONが不正です (%s): %w", r.path, err)
	}

	events := make([]model.Event, 0, len(records))
	for _, rec := range records {
		event, err := model.EventFromRecord(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}

// SaveAll はコレクション全体をファイルに書き出す。
func (r *FileEventRepo) SaveAll(ctx context.Context, events []model.Event) error {
	records := make([]model.EventRecord, 0, len(events))
	for i := range events {
		records = append(records, events[i].Record())
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("予定レコードのエンコードに失敗しました: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("予定ファイルの書き込みに失敗しました: %w", err)
	}

	return nil
}

// compile-time interface check
var _ EventRepository = (*FileEventRepo)(nil)
