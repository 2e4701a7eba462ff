package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Import file columns, in order
const (
	colTitle = iota
	colType
	colValue
	colCategory
)

// csvRow is one accepted line of an import file
type csvRow struct {
	Line     int
	Title    string
	Type     domain.TransactionType
	Value    decimal.Decimal
	Category string
}

// csvRowReader turns an import file into rows. The header line is skipped and
// lines with an empty title, type or value are dropped and counted. An empty
// category cell is kept and resolves to the category titled "".
type csvRowReader struct {
	r       *csv.Reader
	skipped int
}

func newCSVRowReader(r io.Reader) *csvRowReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &csvRowReader{r: cr}
}

// Skipped returns how many lines were dropped so far
func (c *csvRowReader) Skipped() int {
	return c.skipped
}

// Rows yields accepted rows until the input ends or a row is malformed.
// The sequence reads the underlying stream and can be ranged over once.
func (c *csvRowReader) Rows() iter.Seq2[csvRow, error] {
	return func(yield func(csvRow, error) bool) {
		header := true
		for {
			record, err := c.r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					err = fmt.Errorf("line %d: %w: %v", parseErr.Line, domain.ErrMalformedImportRow, parseErr.Err)
				}
				yield(csvRow{}, err)
				return
			}

			if header {
				header = false
				continue
			}

			line, _ := c.r.FieldPos(0)
			row, ok, err := parseCSVRecord(line, record)
			if err != nil {
				yield(csvRow{}, err)
				return
			}
			if !ok {
				c.skipped++
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// parseCSVRecord trims every cell and validates the row. ok is false for rows
// that are silently dropped.
func parseCSVRecord(line int, record []string) (row csvRow, ok bool, err error) {
	cells := make([]string, colCategory+1)
	for i := range cells {
		if i < len(record) {
			cells[i] = strings.TrimSpace(record[i])
		}
	}

	if cells[colTitle] == "" || cells[colType] == "" || cells[colValue] == "" {
		return csvRow{}, false, nil
	}

	malformed := func(reason error) error {
		return fmt.Errorf("line %d: %w: %w", line, domain.ErrMalformedImportRow, reason)
	}

	title, err := validateTitle(cells[colTitle])
	if err != nil {
		return csvRow{}, false, malformed(err)
	}

	txType := domain.TransactionType(cells[colType])
	if !txType.Valid() {
		return csvRow{}, false, malformed(domain.ErrInvalidTransactionType)
	}

	value, err := decimal.NewFromString(cells[colValue])
	if err != nil {
		return csvRow{}, false, malformed(domain.ErrInvalidValue)
	}
	if err := validateValue(value); err != nil {
		return csvRow{}, false, malformed(err)
	}

	category := cells[colCategory]
	if category != "" {
		if category, err = validateCategoryTitle(category); err != nil {
			return csvRow{}, false, malformed(err)
		}
	}

	return csvRow{
		Line:     line,
		Title:    title,
		Type:     txType,
		Value:    value,
		Category: category,
	}, true, nil
}
