package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	"github.com/tendant/simple-rental/pkg/domain"
)

// RentalsRepository handles the per-tenant rentals table.
// Every method takes the Querier so it can run on the store's database or
// inside the store's write transaction.
type RentalsRepository struct{}

// NewRentalsRepository creates a new rentals repository.
func NewRentalsRepository() *RentalsRepository {
	return &RentalsRepository{}
}

// Create inserts a rental that is checked in with no holder.
func (r *RentalsRepository) Create(ctx context.Context, q Querier, rental string) error {
	query := `INSERT INTO rentals (rental, status, holder) VALUES (?, ?, '')`
	_, err := q.ExecContext(ctx, query, rental, string(domain.StatusIn))
	if isUniqueViolation(err) {
		return domain.ErrDuplicateRental
	}
	return err
}

// GetStatus returns the raw stored status for a rental.
func (r *RentalsRepository) GetStatus(ctx context.Context, q Querier, rental string) (string, error) {
	query := `SELECT status FROM rentals WHERE rental = ?`

	var status string
	err := q.QueryRowContext(ctx, query, rental).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrRentalNotFound
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// UpdateStatus sets status and holder for a rental.
func (r *RentalsRepository) UpdateStatus(ctx context.Context, q Querier, rental string, status domain.Status, holder string) error {
	query := `UPDATE rentals SET status = ?, holder = ? WHERE rental = ?`
	result, err := q.ExecContext(ctx, query, string(status), holder, rental)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrRentalNotFound
	}
	return nil
}

// Delete removes a rental. Its log history is left alone.
func (r *RentalsRepository) Delete(ctx context.Context, q Querier, rental string) error {
	query := `DELETE FROM rentals WHERE rental = ?`
	result, err := q.ExecContext(ctx, query, rental)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrRentalNotFound
	}
	return nil
}

// List returns all rentals in insertion order.
func (r *RentalsRepository) List(ctx context.Context, q Querier) ([]domain.Rental, error) {
	query := `SELECT id, rental, status, holder FROM rentals ORDER BY id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rentals := []domain.Rental{}
	for rows.Next() {
		var (
			rental domain.Rental
			status string
		)
		if err := rows.Scan(&rental.ID, &rental.Rental, &status, &rental.Holder); err != nil {
			return nil, err
		}
		if rental.Status, err = domain.ParseStatus(status); err != nil {
			return nil, err
		}
		rentals = append(rentals, rental)
	}
	return rentals, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
