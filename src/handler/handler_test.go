package handler

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"tradeledger/src/contractspec"
	"tradeledger/src/matcher"
	"tradeledger/src/model"
	"tradeledger/src/repository"
)

type mockSpecStore struct {
	specs    []model.ContractSpec
	err      error
	upserted *model.ContractSpec
	deleted  string
}

func (m *mockSpecStore) FindAll(ctx context.Context) ([]model.ContractSpec, error) {
	return m.specs, m.err
}

func (m *mockSpecStore) Upsert(ctx context.Context, spec *model.ContractSpec) error {
	if m.err != nil {
		return m.err
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	m.upserted = spec
	return nil
}

func (m *mockSpecStore) Delete(ctx context.Context, symbol string) error {
	m.deleted = symbol
	return m.err
}

type mockSaver struct {
	saved  *matcher.Result
	source string
	err    error
}

func (m *mockSaver) SaveResult(ctx context.Context, source string, res matcher.Result, startedAt time.Time) (*model.MatchRun, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.saved = &res
	m.source = source
	return &model.MatchRun{ID: 42}, nil
}

type mockTradeRepo struct {
	trades      []model.Trade
	positions   []model.OpenPosition
	err         error
	options     repository.TradeSearchOptions
	accountID   string
	updated     []model.Trade
	calledCount int
}

func (m *mockTradeRepo) Search(ctx context.Context, options repository.TradeSearchOptions) ([]model.Trade, error) {
	m.calledCount++
	m.options = options
	return m.trades, m.err
}

func (m *mockTradeRepo) FindByID(ctx context.Context, id string) (*model.Trade, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.trades {
		if m.trades[i].ID == id {
			return &m.trades[i], nil
		}
	}
	return nil, nil
}

func (m *mockTradeRepo) OpenPositions(ctx context.Context, accountID string) ([]model.OpenPosition, error) {
	m.accountID = accountID
	return m.positions, m.err
}

func (m *mockTradeRepo) UpdatePricing(ctx context.Context, trades []model.Trade) error {
	m.updated = trades
	return m.err
}

type failingLoader struct{}

func (failingLoader) Load(ctx context.Context) (*contractspec.Resolver, error) {
	return nil, errors.New("db down")
}

func testLoader(stored ...model.ContractSpec) ResolverLoader {
	return ResolverLoader{
		Config: contractspec.Config{
			DefaultTickSize:  decimal.NewFromInt(1),
			DefaultTickValue: decimal.NewFromInt(1),
			LoadBuiltin:      true,
		},
		Specs: &mockSpecStore{specs: stored},
	}
}
