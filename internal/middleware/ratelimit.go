package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SenderLimiterConfig は送信者ごとのレート制限設定を保持する。
type SenderLimiterConfig struct {
	PerMinute       int           // 送信者1人あたりの1分間のコマンド数
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultSenderLimiterConfig はデフォルトのレート制限設定を返す。
func DefaultSenderLimiterConfig(perMinute int) SenderLimiterConfig {
	if perMinute <= 0 {
		perMinute = 20
	}
	return SenderLimiterConfig{
		PerMinute:       perMinute,
		CleanupInterval: 5 * time.Minute,
	}
}

// senderEntry は送信者ごとのレートリミッターとアクセス時刻を保持する。
type senderEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// SenderLimiter はWhatsApp ID単位のコマンドレート制限を管理する。
// Webhookは形式上HTTPだが実体はチャットなので、IPではなく送信者で制限する。
type SenderLimiter struct {
	config SenderLimiterConfig

	mu      sync.Mutex
	senders map[string]*senderEntry

	stopCh chan struct{}
}

// NewSenderLimiter は新しいSenderLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewSenderLimiter(config SenderLimiterConfig) *SenderLimiter {
	sl := &SenderLimiter{
		config:  config,
		senders: make(map[string]*senderEntry),
		stopCh:  make(chan struct{}),
	}

	go sl.cleanupLoop()

	return sl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (sl *SenderLimiter) Stop() {
	close(sl.stopCh)
}

// Allow は送信者のコマンド実行を許可するかを判定する。
func (sl *SenderLimiter) Allow(waID string) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	entry, ok := sl.senders[waID]
	if !ok {
		entry = &senderEntry{
			limiter: rate.NewLimiter(
				rate.Limit(float64(sl.config.PerMinute)/60.0),
				sl.config.PerMinute,
			),
		}
		sl.senders[waID] = entry
	}
	entry.lastAccess = time.Now()

	return entry.limiter.Allow()
}

// SenderCount は現在管理されている送信者エントリ数を返す。
// テストおよびメトリクス用。
func (sl *SenderLimiter) SenderCount() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return len(sl.senders)
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (sl *SenderLimiter) cleanupLoop() {
	ticker := time.NewTicker(sl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sl.cleanup()
		case <-sl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (sl *SenderLimiter) cleanup() {
	ttl := sl.config.CleanupInterval * 2
	now := time.Now()

	sl.mu.Lock()
	defer sl.mu.Unlock()
	for waID, entry := range sl.senders {
		if now.Sub(entry.lastAccess) > ttl {
			delete(sl.senders, waID)
		}
	}
}
