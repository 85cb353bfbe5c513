package mapper

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	logger "github.com/sirupsen/logrus"

	"tradeledger/src/model"
)

// RowError is a row that could not be normalized. Line is 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Problem reports the row as an invalid fill.
func (e RowError) Problem() model.Problem {
	return model.Problem{
		Kind:    model.ProblemInvalidFill,
		Level:   model.ProblemLevelError,
		Message: e.Error(),
	}
}

// Problems converts row errors for a matching result.
func Problems(rowErrs []RowError) []model.Problem {
	problems := make([]model.Problem, 0, len(rowErrs))
	for _, rowErr := range rowErrs {
		problems = append(problems, rowErr.Problem())
	}
	return problems
}

// ParseCSV reads a headed export and normalizes every row. Rows the normalizer
// skips are dropped silently; other bad rows are returned as RowErrors and do
// not stop the read.
func ParseCSV(r io.Reader, n Normalizer) ([]model.Fill, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%s csv: failed to read header: %w", n.Source(), err)
	}

	var (
		fills   []model.Fill
		invalid []RowError
		skipped int
		line    = 1
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return fills, invalid, fmt.Errorf("%s csv: line %d: %w", n.Source(), line, err)
		}
		if isBlank(record) {
			continue
		}

		fill, err := n.Normalize(NewRow(header, record))
		switch {
		case errors.Is(err, ErrSkipRow):
			skipped++
		case err != nil:
			invalid = append(invalid, RowError{Line: line, Err: err})
		default:
			fills = append(fills, fill)
		}
	}

	logger.WithFields(map[string]interface{}{
		"source":  n.Source(),
		"fills":   len(fills),
		"invalid": len(invalid),
		"skipped": skipped,
	}).Debug("csv export normalized")
	return fills, invalid, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if v != "" {
			return false
		}
	}
	return true
}
