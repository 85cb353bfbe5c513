package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeledger/src/model"
)

func TestSearchTradesHandler_InvalidParams(t *testing.T) {
	handler := SearchTradesHandler(&mockTradeRepo{})

	for _, target := range []string{
		"/trades?page=0",
		"/trades?pageSize=abc",
		"/trades?closedFrom=yesterday",
		"/trades?closedTo=2024-13-01",
		"/trades?status=open",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestSearchTradesHandler_PassesFilters(t *testing.T) {
	closed := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	repo := &mockTradeRepo{trades: []model.Trade{{ID: "t-1", AccountID: "ACC1", Instrument: "ES", CloseDate: closed}}}
	handler := SearchTradesHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/trades?account=ACC1&instrument=ES&status=held&closedFrom=2024-01-01T00:00:00Z&closedTo=2024-02-01T00:00:00Z&page=3&pageSize=10", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, repo.calledCount)
	require.NotNil(t, repo.options.AccountID)
	assert.Equal(t, "ACC1", *repo.options.AccountID)
	assert.Equal(t, "ES", *repo.options.Instrument)
	assert.Equal(t, model.TradeStatusHeld, *repo.options.Status)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *repo.options.ClosedAfter)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *repo.options.ClosedBefore)
	assert.Equal(t, 10, repo.options.Limit)
	assert.Equal(t, 20, repo.options.Offset)

	var trades []tradeView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "t-1", trades[0].ID)
	assert.True(t, trades[0].NetPnL.IsZero())
}

func getTrade(t *testing.T, repo *mockTradeRepo, id string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/trades/{id}", GetTradeHandler(testLoader(), repo))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/trades/"+id, nil))
	return rr
}

func TestGetTradeHandler(t *testing.T) {
	short := model.Trade{
		ID:         "t-short",
		AccountID:  "ACC1",
		Instrument: "ESH4",
		Side:       model.PositionSideShort,
		Quantity:   2,
		EntryPrice: decimal.RequireFromString("5001"),
		ClosePrice: decimal.RequireFromString("5000"),
		PnL:        decimal.NewFromInt(100),
		Commission: decimal.RequireFromString("4.2"),
		Status:     model.TradeStatusClosed,
	}
	held := model.Trade{ID: "t-held", Instrument: "ESH4", Status: model.TradeStatusHeld}
	repo := &mockTradeRepo{trades: []model.Trade{short, held}}

	rr := getTrade(t, repo, "t-short")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var view tradeView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "t-short", view.ID)
	assert.True(t, view.NetPnL.Equal(decimal.RequireFromString("95.8")), view.NetPnL.String())
	require.NotNil(t, view.Ticks)
	// a short that bought back one point lower made 4 ES ticks
	assert.True(t, view.Ticks.Equal(decimal.NewFromInt(4)), view.Ticks.String())

	rr = getTrade(t, repo, "t-held")
	require.Equal(t, http.StatusOK, rr.Code)
	view = tradeView{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Nil(t, view.Ticks)

	rr = getTrade(t, repo, "missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	repo.err = errors.New("db down")
	rr = getTrade(t, repo, "t-short")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSearchTradesHandler_EmptyAndError(t *testing.T) {
	rr := httptest.NewRecorder()
	SearchTradesHandler(&mockTradeRepo{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/trades", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	rr = httptest.NewRecorder()
	SearchTradesHandler(&mockTradeRepo{err: errors.New("db down")}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/trades", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestOpenPositionsHandler(t *testing.T) {
	repo := &mockTradeRepo{positions: []model.OpenPosition{{AccountID: "ACC1", Instrument: "NQ", Quantity: 2}}}

	rr := httptest.NewRecorder()
	OpenPositionsHandler(repo).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/positions?account=ACC1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ACC1", repo.accountID)
	var positions []model.OpenPosition
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &positions))
	require.Len(t, positions, 1)
	assert.Equal(t, int64(2), positions[0].Quantity)
}

func TestRepriceHeldHandler(t *testing.T) {
	held := model.Trade{
		ID:         "t-held",
		AccountID:  "ACC1",
		Instrument: "BAD",
		Side:       model.PositionSideLong,
		Quantity:   1,
		Status:     model.TradeStatusHeld,
		Legs: []model.TradeLeg{{
			Quantity:   1,
			EntryPrice: decimal.NewFromInt(100),
			ExitPrice:  decimal.NewFromInt(101),
		}},
	}
	repo := &mockTradeRepo{trades: []model.Trade{held}}
	loader := testLoader(model.ContractSpec{Symbol: "BAD", TickSize: decimal.NewFromInt(1), TickValue: decimal.NewFromInt(10)})

	rr := httptest.NewRecorder()
	RepriceHeldHandler(loader, repo).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/trades/reprice", nil))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, model.TradeStatusHeld, *repo.options.Status)
	require.Len(t, repo.updated, 1)
	assert.Equal(t, model.TradeStatusClosed, repo.updated[0].Status)
	assert.True(t, repo.updated[0].PnL.Equal(decimal.NewFromInt(10)))
	assert.JSONEq(t, `{"repriced":1,"still_held":0}`, rr.Body.String())
}
