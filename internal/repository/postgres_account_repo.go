package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/calman/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// LoadAll は全アカウントを読み込む。
func (r *PostgresAccountRepo) LoadAll(ctx context.Context) ([]model.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT email, first_name, last_name, phone_number, wa_id, reminder_minutes, pending_code
		 FROM accounts`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var rec model.AccountRecord
		if err := rows.Scan(
			&rec.Email, &rec.FirstName, &rec.LastName,
			&rec.PhoneNumber, &rec.WaID, &rec.ReminderMinutes, &rec.PendingCode,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		account, err := model.AccountFromRecord(rec)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}

	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, nil
}

// SaveAll はコレクション全体を同一トランザクションで置き換える。
func (r *PostgresAccountRepo) SaveAll(ctx context.Context, accounts []model.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("failed to clear accounts: %w", err)
	}

	for i := range accounts {
		rec := accounts[i].Record()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (email, first_name, last_name, phone_number, wa_id, reminder_minutes, pending_code)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.Email, rec.FirstName, rec.LastName,
			rec.PhoneNumber, rec.WaID, rec.ReminderMinutes, rec.PendingCode,
		)
		if err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
