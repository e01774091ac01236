package driver

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// FactRow is one (key, value, sign) triple read from a CSV fact file.
// Three columns: key, val, sign ("+" or "-", defaulting to "+" when
// the column is absent).
type FactRow struct {
	Key  uint64
	Val  uint64
	Sign int64
}

// CSVFactSource reads bulk fact triples from CSV, for seeding an
// Epoch's inputs from a snapshot file rather than one REPL line at a
// time. Configuration mirrors the teacher's CSVSource (HasHeader,
// Separator) adapted to the fixed key/val/sign column shape correction
// inputs need instead of arbitrary named columns.
type CSVFactSource struct {
	Reader    io.Reader
	HasHeader bool
	Separator rune
}

// NewCSVFactSource creates a fact source with a comma separator and a
// header row expected (and skipped).
func NewCSVFactSource(r io.Reader) *CSVFactSource {
	return &CSVFactSource{Reader: r, HasHeader: true, Separator: ','}
}

// WithoutHeader configures the source to treat every row as data.
func (s *CSVFactSource) WithoutHeader() *CSVFactSource {
	s.HasHeader = false
	return s
}

// WithSeparator sets a custom field separator (e.g. '\t' for TSV).
func (s *CSVFactSource) WithSeparator(sep rune) *CSVFactSource {
	s.Separator = sep
	return s
}

// ReadAll parses every row into FactRows. A malformed row aborts with
// an error naming the 1-based row number.
func (s *CSVFactSource) ReadAll() ([]FactRow, error) {
	reader := csv.NewReader(s.Reader)
	reader.Comma = s.Separator
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("driver: reading CSV fact file: %w", err)
	}
	if s.HasHeader && len(rows) > 0 {
		rows = rows[1:]
	}

	out := make([]FactRow, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("driver: fact row %d: need at least key,val columns, got %d", i+1, len(row))
		}
		key, err := strconv.ParseUint(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("driver: fact row %d: key: %w", i+1, err)
		}
		val, err := strconv.ParseUint(row[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("driver: fact row %d: val: %w", i+1, err)
		}
		sign := int64(1)
		if len(row) >= 3 {
			switch row[2] {
			case "", "+":
				sign = 1
			case "-":
				sign = -1
			default:
				return nil, fmt.Errorf("driver: fact row %d: sign must be + or -, got %q", i+1, row[2])
			}
		}
		out = append(out, FactRow{Key: key, Val: val, Sign: sign})
	}
	return out, nil
}

// LoadInto applies every row in r to e's named input via AddInput.
func LoadInto[K, V comparable](r []FactRow, convert func(FactRow) (K, V), name string, e interface {
	AddInput(name string, key K, val V, sign int64)
}) {
	for _, row := range r {
		k, v := convert(row)
		e.AddInput(name, k, v, row.Sign)
	}
}
