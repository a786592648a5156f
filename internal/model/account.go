package model

import "fmt"

// Account は事前登録済みの利用者アカウントを表す。
// メールアドレスが主キーであり、作成後に変更されることはない。
// アカウントはロスター（承認済み名簿）として事前に投入され、
// このコアが新規作成・削除することはない。
type Account struct {
	Email     string
	FirstName string
	LastName  string

	// PhoneNumber / WaID は!validate成功時に設定される。
	// 両方が揃ったアカウントのみ「連携済み」として制限コマンドを利用できる。
	PhoneNumber string
	WaID        string

	// ReminderMinutes はイベント開始何分前に通知するか。0は未設定を表す。
	ReminderMinutes int

	// PendingCode は発行済みで未使用の認証コード。検証成功時にクリアされる。
	PendingCode string
}

// AccountRecord はアカウントの永続化レコード。
type AccountRecord struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	WaID            string `json:"wa_id,omitempty"`
	ReminderMinutes int    `json:"reminder_minutes,omitempty"`
	PendingCode     string `json:"pending_code,omitempty"`
}

// FullName は表示用の氏名を返す。
func (a *Account) FullName() string {
	return fmt.Sprintf("%s %s", a.FirstName, a.LastName)
}

// IsLinked は電話番号とWhatsApp IDの両方が設定済みかを返す。
func (a *Account) IsLinked() bool {
	return a.PhoneNumber != "" && a.WaID != ""
}

// Record は永続化レコードに変換する。
func (a *Account) Record() AccountRecord {
	return AccountRecord{
		Email:           a.Email,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		PhoneNumber:     a.PhoneNumber,
		WaID:            a.WaID,
		ReminderMinutes: a.ReminderMinutes,
		PendingCode:     a.PendingCode,
	}
}

// AccountFromRecord は永続化レコードからAccountを復元する。
func AccountFromRecord(r AccountRecord) (Account, error) {
	if r.Email == "" {
		return Account{}, fmt.Errorf("アカウントレコードにemailがありません")
	}
	return Account{
		Email:           r.Email,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		PhoneNumber:     r.PhoneNumber,
		WaID:            r.WaID,
		ReminderMinutes: r.ReminderMinutes,
		PendingCode:     r.PendingCode,
	}, nil
}
