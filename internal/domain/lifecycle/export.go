package lifecycle

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/roster"
)

// Export writes the roster as CSV using the input column layout. The
// remaining-days column is always present and reflects the last Recompute;
// end dates reflect every renewal applied so far.
func (eng *Engine) Export(w io.Writer, s *roster.Store) error {
	return eng.ExportRecords(w, s, s.Records())
}

// ExportRecords writes es, typically a Search or SelectExpiring result taken
// from s, as CSV in the column layout of s.
func (eng *Engine) ExportRecords(w io.Writer, s *roster.Store, es []model.Engagement) error {
	cw := csv.NewWriter(w)
	columns := exportColumns(s)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("%w: header: %w", ErrExport, err)
	}
	for _, e := range es {
		if err := cw.Write(eng.render(s, columns, e)); err != nil {
			return fmt.Errorf("%w: row %d: %w", ErrExport, e.Row, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	return nil
}

// ExportBytes returns the CSV export as a byte slice.
func (eng *Engine) ExportBytes(s *roster.Store) ([]byte, error) {
	var buf bytes.Buffer
	if err := eng.Export(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
