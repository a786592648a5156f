package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hitoshi/calman/internal/model"
)

// FileAccountRepo はJSONファイルを使用したアカウントリポジトリ。
// ロスターは事前投入される前提のため、ファイルが存在しない場合も
// エラーにはせず空のコレクションとして扱う。
type FileAccountRepo struct {
	path string
}

// NewFileAccountRepo はFileAccountRepoを生成する。
func NewFileAccountRepo(path string) *FileAccountRepo {
	return &FileAccountRepo{path: path}
}

// LoadAll はファイルから全アカウントを読み込む。
func (r *FileAccountRepo) LoadAll(ctx context.Context) ([]model.Account, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Account{}, nil
		}
		return nil, fmt.Errorf("アカウントファイルの読み込みに失敗しました: %w", err)
	}

	var records []model.AccountRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("アカウントファイルのJSONが不正です (%s): %w", r.path, err)
	}

	accounts := make([]model.Account, 0, len(records))
	for _, rec := range records {
		account, err := model.AccountFromRecord(rec)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// SaveAll はコレクション全体をファイルに書き出す。
func (r *FileAccountRepo) SaveAll(ctx context.Context, accounts []model.Account) error {
	records := make([]model.AccountRecord, 0, len(accounts))
	for i := range accounts {
		records = append(records, accounts[i].Record())
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("アカウントレコードのエンコードに失敗しました: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("アカウントファイルの書き込みに失敗しました: %w", err)
	}

	return nil
}

// compile-time interface check
var _ AccountRepository = (*FileAccountRepo)(nil)
