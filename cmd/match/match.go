package match

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradeledger/src/connectors"
	"tradeledger/src/contractspec"
	"tradeledger/src/mapper"
	"tradeledger/src/matcher"
	"tradeledger/src/model"
	"tradeledger/src/repository"
)

// Match reads fills from a CSV export or the import database, matches them
// and writes the result as JSON.
type Match struct {
	Log    *logger.Entry
	Config *Config

	Specs    contractspec.Config
	Matching matcher.Config
	Remote   connectors.Config

	// DB is the main database. Stored spec overrides are read from it and
	// results are saved to it when Persist is set. Nil skips both.
	DB *gorm.DB
	// ReadDB holds imported_fills for the db source.
	ReadDB *gorm.DB

	Stdin  io.Reader
	Stdout io.Writer
}

func (m *Match) Start(ctx context.Context) error {
	startedAt := time.Now().UTC()
	if m.Log == nil {
		m.Log = logger.WithField("cmd", "match")
	}
	if m.Config == nil {
		m.Config = GetConfig()
	}

	resolver, err := m.resolver(ctx)
	if err != nil {
		return err
	}

	fills, rowErrs, err := m.loadFills(ctx)
	if err != nil {
		return err
	}

	opts, err := m.Matching.Options()
	if err != nil {
		return err
	}
	opts.Log = m.Log

	res, err := matcher.MatchFills(ctx, fills, resolver, opts)
	if err != nil {
		m.Log.WithError(err).Warn("matching interrupted, writing partial result")
	}
	res.Reject(mapper.Problems(rowErrs)...)

	if m.Config.Persist && res.Complete {
		if m.DB == nil {
			return fmt.Errorf("persist requested without a database")
		}
		run, saveErr := repository.NewTradeRepository().WithDB(m.DB).SaveResult(ctx, m.Config.Source, res, startedAt)
		if saveErr != nil {
			return saveErr
		}
		m.Log.WithField("run_id", run.ID).Info("Match result persisted")
	}

	if writeErr := m.writeResult(res); writeErr != nil {
		return writeErr
	}
	return err
}

// resolver layers built-in specs, stored overrides and the remote spec source.
func (m *Match) resolver(ctx context.Context) (*contractspec.Resolver, error) {
	resolver, err := contractspec.NewResolverFromConfig(m.Specs)
	if err != nil {
		return nil, err
	}

	if m.DB != nil {
		stored, err := repository.NewContractSpecRepository().WithDB(m.DB).FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load stored contract specs: %w", err)
		}
		for _, spec := range stored {
			spec.Source = model.SpecSourceOverride
			if err := resolver.Register(spec); err != nil {
				m.Log.WithField("symbol", spec.Symbol).WithError(err).Warn("Skipping stored contract spec")
			}
		}
	}

	if m.Config.RemoteSpecs {
		applied, err := connectors.NewContractSpecClient(m.Remote).Preload(ctx, resolver)
		if err != nil {
			return nil, err
		}
		m.Log.WithField("applied", applied).Info("Remote contract specs preloaded")
	}
	return resolver, nil
}

func (m *Match) loadFills(ctx context.Context) ([]model.Fill, []mapper.RowError, error) {
	switch m.Config.Source {
	case SourceCSV:
		return m.loadCSV()
	case SourceDB:
		return m.loadImported(ctx)
	}
	return nil, nil, fmt.Errorf("unsupported fill source %q", m.Config.Source)
}

func (m *Match) loadCSV() ([]model.Fill, []mapper.RowError, error) {
	loc, err := time.LoadLocation(m.Config.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("load timezone %q: %w", m.Config.Timezone, err)
	}
	normalizer, err := mapper.NewNormalizer(m.Config.Format, loc)
	if err != nil {
		return nil, nil, err
	}

	in := m.Stdin
	if m.Config.Input != "-" {
		f, err := os.Open(m.Config.Input)
		if err != nil {
			return nil, nil, fmt.Errorf("open fills: %w", err)
		}
		defer f.Close()
		in = f
	}
	if in == nil {
		in = os.Stdin
	}

	fills, rowErrs, err := mapper.ParseCSV(in, normalizer)
	if err != nil {
		return nil, nil, err
	}
	for _, rowErr := range rowErrs {
		m.Log.WithFields(map[string]interface{}{
			"input": m.Config.Input,
			"line":  rowErr.Line,
		}).WithError(rowErr.Err).Warn("Skipping row")
	}
	return fills, rowErrs, nil
}

func (m *Match) loadImported(ctx context.Context) ([]model.Fill, []mapper.RowError, error) {
	if m.ReadDB == nil {
		return nil, nil, fmt.Errorf("db source requires the read-only database")
	}

	options := repository.FillSourceOptions{Source: m.Config.ImportSource}
	if m.Config.Account != "" {
		options.AccountID = &m.Config.Account
	}
	if m.Config.Since != "" {
		since, err := time.Parse(time.RFC3339, m.Config.Since)
		if err != nil {
			return nil, nil, fmt.Errorf("parse since %q: %w", m.Config.Since, err)
		}
		options.ExecutedAfter = &since
	}

	rows, err := repository.NewFillSourceRepository().WithDB(m.ReadDB).FindFills(ctx, options)
	if err != nil {
		return nil, nil, err
	}
	fills, rowErrs := mapper.FromImportedFills(rows)
	for _, rowErr := range rowErrs {
		m.Log.WithField("imported_fill_id", rowErr.Line).WithError(rowErr.Err).Warn("Skipping imported fill")
	}
	return fills, rowErrs, nil
}

func (m *Match) writeResult(res matcher.Result) error {
	out := m.Stdout
	if m.Config.Output != "-" {
		f, err := os.Create(m.Config.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if out == nil {
		out = os.Stdout
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
