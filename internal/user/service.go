// Package user はアカウントの照会・認証コード・連携を管理する
// アイデンティティストアを提供する。
// アカウントは承認済み名簿として事前投入され、このストアが
// 新規作成・削除することはない。
package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/hitoshi/calman/internal/model"
	"github.com/hitoshi/calman/internal/repository"
)

// codeLength は認証コードの桁数。
const codeLength = 6

// Service はアイデンティティストア。
// 予定ストアと同じくload-before-readで動作し、
// 変更系操作はread-modify-persistの全区間で排他ロックを取得する。
type Service struct {
	mu   sync.RWMutex
	repo repository.AccountRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.AccountRepository) *Service {
	return &Service{repo: repo}
}

// GetByEmail は指定メールアドレスのアカウントを返す。
// 名簿に存在しない場合はNotFoundエラーを返す。
func (s *Service) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return model.Account{}, err
	}

	for i := range accounts {
		if accounts[i].Email == email {
			return accounts[i], nil
		}
	}

	return model.Account{}, model.NewEmailNotFoundError(email)
}

// GetByWaID はWhatsApp IDで連携済みアカウントを検索する。
// 該当なしはエラーではなくnilを返す。ルーターの認可判定が
// この戻り値を一次シグナルとして使用する。
func (s *Service) GetByWaID(ctx context.Context, waID string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range accounts {
		if accounts[i].WaID != "" && accounts[i].WaID == waID {
			account := accounts[i]
			return &account, nil
		}
	}

	return nil, nil
}

// IssueVerificationCode は固定桁数の数字コードを生成してアカウントに
// 保留コードとして保存し、帯域外送付用に呼び出し元へ返す。
// 送付自体はメーラーコラボレータの責務。
func (s *Service) IssueVerificationCode(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("認証コードの生成に失敗しました: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return "", err
	}

	idx := indexByEmail(accounts, email)
	if idx < 0 {
		return "", model.NewEmailNotFoundError(email)
	}

	// 再発行は常に前のコードを上書きする
	accounts[idx].PendingCode = code

	if err := s.repo.SaveAll(ctx, accounts); err != nil {
		return "", err
	}

	slog.Info("認証コードを発行しました", slog.String("email", email))
	return code, nil
}

// VerifyAndLink は保留コードを検証し、一致すればアカウントに
// 電話番号とWhatsApp IDを設定して連携を完了する。
// 保留コードは成功時にクリアされ、同じコードの再利用はできない。
func (s *Service) VerifyAndLink(ctx context.Context, email, code, waID, phone string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return model.Account{}, err
	}

	idx := indexByEmail(accounts, email)
	if idx < 0 {
		return model.Account{}, model.NewEmailNotFoundError(email)
	}

	if accounts[idx].PendingCode == "" || accounts[idx].PendingCode != code {
		return model.Account{}, model.NewInvalidCodeError()
	}

	accounts[idx].PhoneNumber = phone
	accounts[idx].WaID = waID
	accounts[idx].PendingCode = ""

	if err := s.repo.SaveAll(ctx, accounts); err != nil {
		return model.Account{}, err
	}

	slog.Info("アカウントを連携しました",
		slog.String("email", email),
		slog.String("wa_id", waID),
	)
	return accounts[idx], nil
}

// UpdateReminder はアカウントのリマインダー分数を更新する。
// 許可リストの検証は呼び出し側（コマンドハンドラ）の責務。
func (s *Service) UpdateReminder(ctx context.Context, email string, minutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	idx := indexByEmail(accounts, email)
	if idx < 0 {
		return model.NewEmailNotFoundError(email)
	}

	accounts[idx].ReminderMinutes = minutes

	return s.repo.SaveAll(ctx, accounts)
}

// ListLinkedWithReminder はリマインダー設定済みかつ連携済みの
// 全アカウントを返す。リマインダーディスパッチャが使用する。
func (s *Service) ListLinkedWithReminder(ctx context.Context) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]model.Account, 0)
	for i := range accounts {
		if accounts[i].IsLinked() && accounts[i].ReminderMinutes > 0 {
			matched = append(matched, accounts[i])
		}
	}
	return matched, nil
}

func indexByEmail(accounts []model.Account, email string) int {
	for i := range accounts {
		if accounts[i].Email == email {
			return i
		}
	}
	return -1
}

// generateCode は暗号論的乱数で固定桁数の数字コードを生成する。
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}
