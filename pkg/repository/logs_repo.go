package repository

import (
	"context"

	"github.com/tendant/simple-rental/pkg/domain"
)

// LogsRepository handles the per-tenant append-only log table.
type LogsRepository struct{}

// NewLogsRepository creates a new logs repository.
func NewLogsRepository() *LogsRepository {
	return &LogsRepository{}
}

// Append writes a log entry and sets its assigned id.
func (r *LogsRepository) Append(ctx context.Context, q Querier, entry *domain.LogEntry) error {
	query := `
		INSERT INTO log (rental, action, holder, date, time)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := q.ExecContext(ctx, query,
		entry.Rental, string(entry.Action), entry.Holder, entry.Date, entry.Time,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// List returns the full history in insertion order.
func (r *LogsRepository) List(ctx context.Context, q Querier) ([]domain.LogEntry, error) {
	query := `SELECT id, rental, action, holder, date, time FROM log ORDER BY id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.LogEntry{}
	for rows.Next() {
		var (
			entry  domain.LogEntry
			action string
		)
		if err := rows.Scan(&entry.ID, &entry.Rental, &action, &entry.Holder, &entry.Date, &entry.Time); err != nil {
			return nil, err
		}
		entry.Action = domain.Status(action)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Clear deletes every log entry and resets the id sequence so the next entry
// is numbered 1. Must run inside a transaction.
func (r *LogsRepository) Clear(ctx context.Context, q Querier) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM log`); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `UPDATE sqlite_sequence SET seq = 0 WHERE name = 'log'`)
	return err
}
