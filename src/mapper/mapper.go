// Package mapper normalizes broker exports into fills. Fractional price
// notations and money strings are converted here, never in the matcher.
package mapper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tradeledger/src/model"
)

var (
	// ErrUnknownSource is returned by GetNormalizer for an unregistered source.
	ErrUnknownSource = errors.New("unknown fill source")
	// ErrSkipRow marks a row that is not an execution (canceled order, summary line).
	ErrSkipRow = errors.New("row is not a fill")
	// ErrMissingField marks a row without a required column value.
	ErrMissingField = errors.New("missing field")
)

// Row is one export record keyed by lower-cased, trimmed header.
type Row map[string]string

// NewRow zips a header with a record.
func NewRow(header, record []string) Row {
	row := make(Row, len(header))
	for i, name := range header {
		if i >= len(record) {
			break
		}
		row[headerKey(name)] = strings.TrimSpace(record[i])
	}
	return row
}

// Get returns the first non-empty value among the given column names.
func (r Row) Get(names ...string) string {
	for _, name := range names {
		if v := r[headerKey(name)]; v != "" {
			return v
		}
	}
	return ""
}

func (r Row) require(field string, names ...string) (string, error) {
	v := r.Get(names...)
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return v, nil
}

func headerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}

// Normalizer turns one source-specific row into a canonical fill.
type Normalizer interface {
	Source() string
	Normalize(row Row) (model.Fill, error)
}

var normalizers = map[string]Normalizer{}

func register(n Normalizer) {
	normalizers[n.Source()] = n
}

func init() {
	register(NewGenericNormalizer())
	register(NewTradovateNormalizer())
	register(NewNinjaTraderNormalizer())
}

// GetNormalizer returns the normalizer registered for source.
func GetNormalizer(source string) (Normalizer, error) {
	n, ok := normalizers[strings.ToLower(strings.TrimSpace(source))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownSource, source, strings.Join(Sources(), ", "))
	}
	return n, nil
}

// Sources lists registered source names.
func Sources() []string {
	names := make([]string, 0, len(normalizers))
	for name := range normalizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewNormalizer returns a copy of the source's normalizer that reads
// timestamps without a zone in loc. A nil loc means UTC.
func NewNormalizer(source string, loc *time.Location) (Normalizer, error) {
	n, err := GetNormalizer(source)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}

	switch v := n.(type) {
	case *GenericNormalizer:
		c := *v
		c.Location = loc
		return &c, nil
	case *TradovateNormalizer:
		c := *v
		c.Location = loc
		return &c, nil
	case *NinjaTraderNormalizer:
		c := *v
		c.Location = loc
		return &c, nil
	}
	return n, nil
}
