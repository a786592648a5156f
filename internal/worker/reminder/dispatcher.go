// Package reminder は予定開始前のリマインダー通知を提供する。
// 定期実行のディスパッチャが連携済みアカウントごとの通知タイミングを評価し、
// 期日に達した予定をWhatsAppで通知する。
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/calman/internal/model"
	"github.com/hitoshi/calman/internal/notifier"
)

// EventSource はディスパッチャが必要とする予定ストアのインターフェース。
type EventSource interface {
	// Upcoming は開始日時が[from, to)に含まれる予定を昇順で返す。
	Upcoming(ctx context.Context, from, to time.Time) ([]model.Event, error)
}

// AccountSource はディスパッチャが必要とするアイデンティティストアのインターフェース。
type AccountSource interface {
	// ListLinkedWithReminder はリマインダー設定済みの連携アカウントを返す。
	ListLinkedWithReminder(ctx context.Context) ([]model.Account, error)
}

// ReminderRecorder は通知送信のメトリクス収集インターフェース。
type ReminderRecorder interface {
	RecordReminderSent()
}

// Dispatcher はリマインダー通知のスケジューリングと送信を行う。
// チェック間隔ごとにアカウントの通知窓[start-lead, start-lead+interval)を
// 評価し、窓に入った予定を1回だけ通知する。
type Dispatcher struct {
	events   EventSource
	accounts AccountSource
	sender   notifier.Sender
	logger   *slog.Logger
	metrics  ReminderRecorder // nilの場合は記録しない
	interval time.Duration

	// now は窓判定の基準時刻。テストで差し替える。
	now func() time.Time

	// sent は送信済み通知の重複防止。キーはwaID+eventID。
	sent map[string]time.Time
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
// intervalが0以下の場合はデフォルト値1分を使用する。
func NewDispatcher(
	events EventSource,
	accounts AccountSource,
	sender notifier.Sender,
	logger *slog.Logger,
	metrics ReminderRecorder,
	interval time.Duration,
) *Dispatcher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Dispatcher{
		events:   events,
		accounts: accounts,
		sender:   sender,
		logger:   logger,
		metrics:  metrics,
		interval: interval,
		now:      time.Now,
		sent:     make(map[string]time.Time),
	}
}

// Start はチェック間隔のティッカーでディスパッチャを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("リマインダーディスパッチャを開始しました",
		slog.Duration("interval", d.interval),
	)

	// 起動直後に1回実行
	if err := d.RunOnce(ctx); err != nil {
		d.logger.Error("リマインダーサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("リマインダーディスパッチャを停止しました")
			return
		case <-ticker.C:
			if err := d.RunOnce(ctx); err != nil {
				d.logger.Error("リマインダーサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce はリマインダー評価を1回実行する。
// アカウントごとに通知窓の予定を取得し、未送信のものを通知する。
// 1アカウントの失敗は記録して他のアカウントの処理を継続する。
func (d *Dispatcher) RunOnce(ctx context.Context) error {
	accounts, err := d.accounts.ListLinkedWithReminder(ctx)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		return nil
	}

	now := d.now()
	d.prune(now)

	for i := range accounts {
		if err := d.dispatchFor(ctx, &accounts[i], now); err != nil {
			d.logger.Error("リマインダー通知に失敗しました",
				slog.String("email", accounts[i].Email),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// dispatchFor は1アカウント分の通知窓を評価して通知する。
func (d *Dispatcher) dispatchFor(ctx context.Context, account *model.Account, now time.Time) error {
	lead := time.Duration(account.ReminderMinutes) * time.Minute
	windowStart := now.Add(lead)
	windowEnd := windowStart.Add(d.interval)

	due, err := d.events.Upcoming(ctx, windowStart, windowEnd)
	if err != nil {
		return err
	}

	for i := range due {
		e := &due[i]
		key := account.WaID + "/" + e.ID
		if _, already := d.sent[key]; already {
			continue
		}

		body := fmt.Sprintf("⏰ リマインダー: %d分後に予定が始まります。\n\n%s",
			account.ReminderMinutes, e.Detailed())

		if err := d.sender.Send(ctx, account.PhoneNumber, body); err != nil {
			return err
		}

		d.sent[key] = now
		if d.metrics != nil {
			d.metrics.RecordReminderSent()
		}
		d.logger.Info("リマインダーを送信しました",
			slog.String("email", account.Email),
			slog.String("event_id", e.ID),
			slog.Int("lead_minutes", account.ReminderMinutes),
		)
	}

	return nil
}

// prune は古い送信済みエントリを削除する。
// 通知窓を過ぎた予定が再通知されることはないため、24時間で十分に安全。
func (d *Dispatcher) prune(now time.Time) {
	for key, sentAt := range d.sent {
		if now.Sub(sentAt) > 24*time.Hour {
			delete(d.sent, key)
		}
	}
}
