package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/calman/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用した予定リポジトリ。
// ストアがコレクション全体の読み書きを行う前提のため、
// SaveAllはトランザクション内でテーブルを全置換する。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// LoadAll は全予定を読み込む。
func (r *PostgresEventRepo) LoadAll(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, start_date, start_time, end_date, end_time, source, source_id
		 FROM events`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var rec model.EventRecord
		if err := rows.Scan(
			&rec.ID, &rec.Name, &rec.Description,
			&rec.StartDate, &rec.StartTime, &rec.EndDate, &rec.EndTime,
			&rec.Source, &rec.SourceID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		event, err := model.EventFromRecord(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}

	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// SaveAll はコレクション全体を同一トランザクションで置き換える。
func (r *PostgresEventRepo) SaveAll(ctx context.Context, events []model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("failed to clear events: %w", err)
	}

	for i := range events {
		rec := events[i].Record()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (id, name, description, start_date, start_time, end_date, end_time, source, source_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rec.ID, rec.Name, rec.Description,
			rec.StartDate, rec.StartTime, rec.EndDate, rec.EndTime,
			rec.Source, rec.SourceID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
