// Package rental implements the per-tenant rental registry, the IN/OUT toggle
// and the log/status readers. Every operation receives the tenant's store
// explicitly; the service itself holds no tenant state.
package rental

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tendant/simple-rental/internal/metrics"
	"github.com/tendant/simple-rental/pkg/domain"
	"github.com/tendant/simple-rental/pkg/repository"
	"github.com/tendant/simple-rental/pkg/store"
)

// Service runs rental operations against a tenant store.
type Service struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	rentals *repository.RentalsRepository
	logs    *repository.LogsRepository
}

// NewService creates a new rental service. m may be nil.
func NewService(logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:  logger,
		metrics: m,
		rentals: repository.NewRentalsRepository(),
		logs:    repository.NewLogsRepository(),
	}
}

// AddRentals registers new rentals, all checked in. Identities are trimmed and
// blanks dropped. The batch is one transaction: a duplicate anywhere in it
// leaves the registry unchanged.
func (s *Service) AddRentals(ctx context.Context, st *store.Store, ids []string) error {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}

	err := st.WithTx(ctx, func(tx *sql.Tx) error {
		for _, id := range cleaned {
			if err := s.rentals.Create(ctx, tx, id); err != nil {
				if errors.Is(err, domain.ErrDuplicateRental) {
					return fmt.Errorf("%w: %q", domain.ErrDuplicateRental, id)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.fail(st, "add", err)
	}

	if s.metrics != nil {
		s.metrics.RentalsAdded.Add(float64(len(cleaned)))
	}
	s.logger.Info("rentals added", "tenant", st.Tenant().String(), "count", len(cleaned))
	return nil
}

// RemoveRental deletes a rental. Log entries that mention it are kept.
func (s *Service) RemoveRental(ctx context.Context, st *store.Store, id string) error {
	err := st.WithTx(ctx, func(tx *sql.Tx) error {
		return s.rentals.Delete(ctx, tx, id)
	})
	if err != nil {
		return s.fail(st, "remove", err)
	}

	if s.metrics != nil {
		s.metrics.RentalsRemoved.Inc()
	}
	s.logger.Info("rental removed", "tenant", st.Tenant().String(), "rental", id)
	return nil
}

// RecordEvent toggles a rental between IN and OUT and appends the matching
// log entry. The lookup, holder decoding, log append and status update share
// one write transaction; on any error nothing is committed.
func (s *Service) RecordEvent(ctx context.Context, st *store.Store, ev domain.Event) (*domain.LogEntry, error) {
	start := time.Now()

	var entry *domain.LogEntry
	err := st.WithTx(ctx, func(tx *sql.Tx) error {
		raw, err := s.rentals.GetStatus(ctx, tx, ev.Rental)
		if err != nil {
			return err
		}

		holder, err := domain.DecodeHolder(ev.HolderB64)
		if err != nil {
			return err
		}

		current, err := domain.ParseStatus(raw)
		if err != nil {
			return fmt.Errorf("rental %q: %w", ev.Rental, err)
		}
		next, err := current.Flip()
		if err != nil {
			return err
		}
		if next == domain.StatusOut && holder == "" {
			return fmt.Errorf("%w: required to check out %q", domain.ErrMissingHolder, ev.Rental)
		}

		entry = &domain.LogEntry{
			Rental: ev.Rental,
			Action: next,
			Holder: holder,
			Date:   ev.Date,
			Time:   ev.Time,
		}
		if err := s.logs.Append(ctx, tx, entry); err != nil {
			return err
		}

		stored := holder
		if next == domain.StatusIn {
			stored = ""
		}
		return s.rentals.UpdateStatus(ctx, tx, ev.Rental, next, stored)
	})
	if err != nil {
		return nil, s.fail(st, "toggle", err)
	}

	if s.metrics != nil {
		s.metrics.TogglesTotal.WithLabelValues(string(entry.Action)).Inc()
		s.metrics.ToggleDuration.Observe(time.Since(start).Seconds())
	}
	s.logger.Info("rental toggled",
		"tenant", st.Tenant().String(),
		"rental", entry.Rental,
		"action", string(entry.Action),
		"log_id", entry.ID,
	)
	return entry, nil
}

// ListStatus returns every rental with its current status and holder.
func (s *Service) ListStatus(ctx context.Context, st *store.Store) ([]domain.Rental, error) {
	rentals, err := s.rentals.List(ctx, st.DB())
	if err != nil {
		return nil, s.fail(st, "list_status", err)
	}
	return rentals, nil
}

// ListLogs returns the full event history in insertion order.
func (s *Service) ListLogs(ctx context.Context, st *store.Store) ([]domain.LogEntry, error) {
	entries, err := s.logs.List(ctx, st.DB())
	if err != nil {
		return nil, s.fail(st, "list_logs", err)
	}
	return entries, nil
}

// ClearLogs deletes the event history and restarts numbering at 1.
// Rental status is not touched.
func (s *Service) ClearLogs(ctx context.Context, st *store.Store) error {
	err := st.WithTx(ctx, func(tx *sql.Tx) error {
		return s.logs.Clear(ctx, tx)
	})
	if err != nil {
		return s.fail(st, "clear_logs", err)
	}

	if s.metrics != nil {
		s.metrics.LogsCleared.Inc()
	}
	s.logger.Info("logs cleared", "tenant", st.Tenant().String())
	return nil
}

// fail classifies err, records it and returns it with driver errors wrapped
// as ErrStorageFailure.
func (s *Service) fail(st *store.Store, op string, err error) error {
	kind := errorKind(err)
	if kind == "storage" && !errors.Is(err, domain.ErrStorageFailure) {
		err = fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}
	if s.metrics != nil {
		s.metrics.OperationErrors.WithLabelValues(op, kind).Inc()
	}
	if kind == "storage" {
		s.logger.Error("rental operation failed", "tenant", st.Tenant().String(), "operation", op, "error", err)
	} else {
		s.logger.Debug("rental operation rejected", "tenant", st.Tenant().String(), "operation", op, "error", err)
	}
	return err
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrRentalNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicateRental):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidHolderEncoding):
		return "invalid_holder"
	case errors.Is(err, domain.ErrMissingHolder):
		return "missing_holder"
	default:
		return "storage"
	}
}
