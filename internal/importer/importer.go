// Package importer は外部カレンダーからの予定取り込みを提供する。
// 取り込み元（Calendly、Masterschool）ごとにクライアントを持ち、
// 共通の変換・重複防止・衝突スキップのロジックを共有する。
package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/calman/internal/model"
)

// EventStore は取り込み先の予定ストアのインターフェース。
// 実装はinternal/eventが提供する。
type EventStore interface {
	Add(ctx context.Context, e model.Event) (model.Event, error)
	HasSource(ctx context.Context, source, sourceID string) (bool, error)
}

// Sanitizer は取り込んだテキストの正規化インターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// ImportRecorder は取り込み結果のメトリクス収集インターフェース。
type ImportRecorder interface {
	RecordImport(source, result string, count int)
}

// Result は1回の取り込みの集計結果。
type Result struct {
	Added   int
	Skipped int // 既存・衝突によるスキップ
	Failed  int // 形式不正などの失敗
}

// noDescription は取り込み元に説明がない場合の既定文。
const noDescription = "説明はありません。"

// store は変換済みの予定列をストアへ追加し、結果を集計する。
// 既に取り込み済みのsource_idはスキップする。時間帯衝突は失敗ではなく
// スキップとして扱う（取り込みは再実行されるため）。
func store(ctx context.Context, st EventStore, logger *slog.Logger, rec ImportRecorder, source string, events []model.Event) (Result, error) {
	var res Result

	for i := range events {
		e := events[i]

		exists, err := st.HasSource(ctx, source, e.SourceID)
		if err != nil {
			return res, err
		}
		if exists {
			res.Skipped++
			continue
		}

		if _, err := st.Add(ctx, e); err != nil {
			if be, ok := model.AsBotError(err); ok && be.Kind == model.KindConflict {
				res.Skipped++
				logger.Warn("衝突のため予定の取り込みをスキップしました",
					slog.String("source", source),
					slog.String("name", e.Name),
				)
				continue
			}
			res.Failed++
			logger.Error("予定の取り込みに失敗しました",
				slog.String("source", source),
				slog.String("name", e.Name),
				slog.String("error", err.Error()),
			)
			continue
		}

		res.Added++
		logger.Info("予定を取り込みました",
			slog.String("source", source),
			slog.String("name", e.Name),
		)
	}

	if rec != nil {
		rec.RecordImport(source, "added", res.Added)
		rec.RecordImport(source, "skipped", res.Skipped)
		rec.RecordImport(source, "failed", res.Failed)
	}

	return res, nil
}

// localEvent はUTCの開始・終了時刻をローカル時刻の予定に変換する。
func localEvent(name, description, source, sourceID string, start, end time.Time) model.Event {
	start = start.In(time.Local)
	end = end.In(time.Local)
	return model.Event{
		Name:        name,
		Description: description,
		StartDate:   start.Format(model.DateLayout),
		StartTime:   start.Format(model.TimeLayout),
		EndDate:     end.Format(model.DateLayout),
		EndTime:     end.Format(model.TimeLayout),
		Source:      source,
		SourceID:    sourceID,
	}
}
