// Package export renders assembled reports as downloadable files.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/domain/reports"
)

type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const (
	DefaultCurrencySuffix = "YER"
	DateLayout            = "02/01/2006"
	emptyNotes            = "-"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Renderer writes one report to w.
type Renderer interface {
	Render(w io.Writer, report reports.Report) error
}

// Formatter holds the presentation rules shared by every renderer.
type Formatter struct {
	CurrencySuffix string
	Now            func() time.Time
}

func NewFormatter(suffix string) Formatter {
	if strings.TrimSpace(suffix) == "" {
		suffix = DefaultCurrencySuffix
	}
	return Formatter{CurrencySuffix: suffix, Now: time.Now}
}

// Money renders an amount as a whole number with thousands separators
// followed by the currency suffix, e.g. "12,500 YER".
func (f Formatter) Money(d decimal.Decimal) string {
	return groupThousands(d.Round(0).IntPart()) + " " + f.suffix()
}

func (f Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func (f Formatter) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

func (f Formatter) suffix() string {
	if f.CurrencySuffix == "" {
		return DefaultCurrencySuffix
	}
	return f.CurrencySuffix
}

func ParseFormat(raw string) (Format, error) {
	switch format := Format(strings.ToLower(strings.TrimSpace(raw))); format {
	case FormatText, FormatPDF, FormatXLSX, FormatCSV:
		return format, nil
	case "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
}

// New returns the renderer for format.
func New(format Format, f Formatter) (Renderer, error) {
	switch format {
	case FormatText:
		return Text{Formatter: f}, nil
	case FormatPDF:
		return PDF{Formatter: f}, nil
	case FormatXLSX:
		return XLSX{Formatter: f}, nil
	case FormatCSV:
		return CSV{Formatter: f}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// FileName is "<kind>_report_<yyyy-mm-dd>.<ext>" for the given day.
func FileName(kind reports.Kind, format Format, day time.Time) string {
	return fmt.Sprintf("%s_report_%s.%s", kind, day.Format("2006-01-02"), format)
}

func ContentType(format Format) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	}
	return "text/plain; charset=utf-8"
}

func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
