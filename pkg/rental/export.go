package rental

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/tendant/simple-rental/pkg/store"
)

var exportHeader = []string{"id", "rental", "action", "student", "date", "time"}

// ExportLogs writes the event history to w as CSV with a header row.
func (s *Service) ExportLogs(ctx context.Context, st *store.Store, w io.Writer) error {
	entries, err := s.ListLogs(ctx, st)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Rental,
			string(e.Action),
			e.Holder,
			e.Date,
			e.Time,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
