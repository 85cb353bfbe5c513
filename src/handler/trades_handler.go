package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradeledger/src/contractspec"
	"tradeledger/src/matcher"
	"tradeledger/src/model"
	"tradeledger/src/pnl"
	"tradeledger/src/repository"
)

type tradeSearcher interface {
	Search(ctx context.Context, options repository.TradeSearchOptions) ([]model.Trade, error)
}

type positionLister interface {
	OpenPositions(ctx context.Context, accountID string) ([]model.OpenPosition, error)
}

type tradeFinder interface {
	FindByID(ctx context.Context, id string) (*model.Trade, error)
}

type tradeRepricer interface {
	tradeSearcher
	UpdatePricing(ctx context.Context, trades []model.Trade) error
}

// SearchTradesHandler lists persisted trades, newest close first.
// Supports pagination and filters (account, instrument, status, closedFrom, closedTo).
func SearchTradesHandler(repo tradeSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		var options repository.TradeSearchOptions

		if account := query.Get("account"); account != "" {
			options.AccountID = &account
		}
		if instrument := query.Get("instrument"); instrument != "" {
			options.Instrument = &instrument
		}
		if statusParam := query.Get("status"); statusParam != "" {
			status := model.TradeStatus(statusParam)
			if status != model.TradeStatusClosed && status != model.TradeStatusHeld {
				http.Error(w, "invalid status", http.StatusBadRequest)
				return
			}
			options.Status = &status
		}

		if closedFromParam := query.Get("closedFrom"); closedFromParam != "" {
			parsed, err := time.Parse(time.RFC3339, closedFromParam)
			if err != nil {
				http.Error(w, "invalid closedFrom", http.StatusBadRequest)
				return
			}
			options.ClosedAfter = &parsed
		}
		if closedToParam := query.Get("closedTo"); closedToParam != "" {
			parsed, err := time.Parse(time.RFC3339, closedToParam)
			if err != nil {
				http.Error(w, "invalid closedTo", http.StatusBadRequest)
				return
			}
			options.ClosedBefore = &parsed
		}

		page := 1
		if pageParam := query.Get("page"); pageParam != "" {
			parsedPage, err := strconv.Atoi(pageParam)
			if err != nil || parsedPage <= 0 {
				http.Error(w, "invalid page", http.StatusBadRequest)
				return
			}
			page = parsedPage
		}

		pageSize := 50
		if sizeParam := query.Get("pageSize"); sizeParam != "" {
			parsedSize, err := strconv.Atoi(sizeParam)
			if err != nil || parsedSize <= 0 {
				http.Error(w, "invalid pageSize", http.StatusBadRequest)
				return
			}
			pageSize = parsedSize
		}
		options.Limit = pageSize
		options.Offset = (page - 1) * pageSize

		trades, err := repo.Search(r.Context(), options)
		if err != nil {
			logger.WithError(err).Error("failed to search trades")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		views := make([]tradeView, 0, len(trades))
		for _, trade := range trades {
			views = append(views, newTradeView(trade))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// tradeView adds derived figures to a stored trade.
type tradeView struct {
	model.Trade
	NetPnL decimal.Decimal  `json:"net_pnl"`
	// Ticks is the per-contract move in the trade's favor, omitted for held trades.
	Ticks  *decimal.Decimal `json:"ticks,omitempty"`
}

func newTradeView(trade model.Trade) tradeView {
	return tradeView{Trade: trade, NetPnL: trade.NetPnL()}
}

// GetTradeHandler returns one trade with its tick count under the current specs.
func GetTradeHandler(loader resolverLoader, repo tradeFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		trade, err := repo.FindByID(r.Context(), id)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if trade == nil {
			http.Error(w, "trade not found", http.StatusNotFound)
			return
		}

		view := newTradeView(*trade)
		if trade.Status != model.TradeStatusHeld {
			resolver, err := loader.Load(r.Context())
			if err != nil {
				logger.WithError(err).Error("failed to load contract specs")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			spec, _ := resolver.Resolve(trade.Instrument)
			if ticks, err := pnl.Ticks(trade.EntryPrice, trade.ClosePrice, spec); err == nil {
				if trade.Side == model.PositionSideShort {
					ticks = ticks.Neg()
				}
				view.Ticks = &ticks
			}
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// OpenPositionsHandler lists stored open positions, optionally for one account.
func OpenPositionsHandler(repo positionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		positions, err := repo.OpenPositions(r.Context(), r.URL.Query().Get("account"))
		if err != nil {
			logger.WithError(err).Error("failed to list open positions")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if positions == nil {
			positions = []model.OpenPosition{}
		}
		writeJSON(w, http.StatusOK, positions)
	}
}

type repriceResponse struct {
	Repriced  int `json:"repriced"`
	StillHeld int `json:"still_held"`
}

// RepriceHeldHandler recomputes PnL of held trades with the current contract
// specs and stores the ones whose spec is now valid.
func RepriceHeldHandler(loader resolverLoader, repo tradeRepricer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := model.TradeStatusHeld
		options := repository.TradeSearchOptions{Status: &status}
		if account := r.URL.Query().Get("account"); account != "" {
			options.AccountID = &account
		}

		held, err := repo.Search(r.Context(), options)
		if err != nil {
			logger.WithError(err).Error("failed to load held trades")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		resolver, err := loader.Load(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to load contract specs")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		repriced, stillHeld := matcher.RepriceHeld(held, resolver)
		if len(repriced) > 0 {
			if err := repo.UpdatePricing(r.Context(), repriced); err != nil {
				logger.WithError(err).Error("failed to store repriced trades")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}

		logger.WithFields(map[string]interface{}{
			"repriced":   len(repriced),
			"still_held": len(stillHeld),
		}).Info("held trades repriced")
		writeJSON(w, http.StatusOK, repriceResponse{Repriced: len(repriced), StillHeld: len(stillHeld)})
	}
}

func DefaultSearchTradesHandler() http.HandlerFunc {
	return SearchTradesHandler(repository.NewTradeRepository())
}

func DefaultGetTradeHandler() http.HandlerFunc {
	return GetTradeHandler(ResolverLoader{
		Config: contractspec.GetConfig(),
		Specs:  repository.NewContractSpecRepository(),
	}, repository.NewTradeRepository())
}

func DefaultOpenPositionsHandler() http.HandlerFunc {
	return OpenPositionsHandler(repository.NewTradeRepository())
}

func DefaultRepriceHeldHandler() http.HandlerFunc {
	return RepriceHeldHandler(ResolverLoader{
		Config: contractspec.GetConfig(),
		Specs:  repository.NewContractSpecRepository(),
	}, repository.NewTradeRepository())
}
