// Package repository はデータ永続化のインターフェースを定義する。
//
// ストアはリード前に必ずバッキングストアから再同期する（ストアが唯一の
// ライターであるとは仮定しない）ため、インターフェースはコレクション単位の
// LoadAll / SaveAll で構成する。バックエンドはJSONファイルとPostgreSQLの
// 2種類を提供し、STORE_BACKEND設定で切り替える。
package repository

import (
	"context"

	"github.com/hitoshi/calman/internal/model"
)

// EventRepository は予定コレクションの永続化インターフェース。
type EventRepository interface {
	// LoadAll は全予定を読み込む。バッキングストアが空の場合は空スライスを返す。
	// 不正なレコードはロード時エラーとして報告する。
	LoadAll(ctx context.Context) ([]model.Event, error)

	// SaveAll はコレクション全体を置き換えて永続化する。
	SaveAll(ctx context.Context, events []model.Event) error
}

// AccountRepository はアカウントコレクションの永続化インターフェース。
type AccountRepository interface {
	// LoadAll は全アカウントを読み込む。
	LoadAll(ctx context.Context) ([]model.Account, error)

	// SaveAll はコレクション全体を置き換えて永続化する。
	SaveAll(ctx context.Context, accounts []model.Account) error
}
