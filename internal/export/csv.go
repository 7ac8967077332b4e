package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"workshop/internal/domain/reports"
)

type CSV struct {
	Formatter Formatter
}

func (r CSV) Render(w io.Writer, report reports.Report) error {
	t := r.Formatter.table(report)
	writer := csv.NewWriter(w)
	if err := writer.Write(t.headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	if err := writer.Write(t.total); err != nil {
		return fmt.Errorf("write csv total: %w", err)
	}
	writer.Flush()
	return writer.Error()
}
