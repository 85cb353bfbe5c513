package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradeledger/src/contractspec"
	"tradeledger/src/matcher"
	"tradeledger/src/model"
	"tradeledger/src/repository"
)

type resultSaver interface {
	SaveResult(ctx context.Context, source string, res matcher.Result, startedAt time.Time) (*model.MatchRun, error)
}

type resolverLoader interface {
	Load(ctx context.Context) (*contractspec.Resolver, error)
}

type matchRequest struct {
	Fills     []model.Fill                  `json:"fills"`
	Overrides map[string]model.ContractSpec `json:"overrides,omitempty"`
	Marks     map[string]decimal.Decimal    `json:"marks,omitempty"`
	Options   matcher.Options               `json:"options"`
	Persist   bool                          `json:"persist,omitempty"`
}

type matchResponse struct {
	matcher.Result
	RunID uint `json:"run_id,omitempty"`
}

// MatchHandler matches the posted fills and returns trades, open positions
// and problems. With persist set and a saver configured the result is stored.
func MatchHandler(loader resolverLoader, saver resultSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now().UTC()

		var req matchRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := req.Options.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Persist && saver == nil {
			http.Error(w, "persistence is not configured", http.StatusBadRequest)
			return
		}

		if len(req.Marks) > 0 {
			req.Options.MarkPrices = req.Marks
		}

		resolver, err := loader.Load(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to load contract specs")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		failed := resolver.Overrides(req.Overrides)

		res, err := matcher.MatchFills(r.Context(), req.Fills, resolver, req.Options)
		if err != nil {
			logger.WithError(err).Warn("match request interrupted")
			http.Error(w, "match interrupted", http.StatusServiceUnavailable)
			return
		}
		res.Problems = append(overrideProblems(failed), res.Problems...)

		resp := matchResponse{Result: res}
		if req.Persist {
			run, err := saver.SaveResult(r.Context(), "api", res, startedAt)
			if err != nil {
				logger.WithError(err).Error("failed to persist match result")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			resp.RunID = run.ID
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// overrideProblems reports rejected overrides. Trades on those instruments
// come back held.
func overrideProblems(failed map[string]error) []model.Problem {
	symbols := make([]string, 0, len(failed))
	for symbol := range failed {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	problems := make([]model.Problem, 0, len(symbols))
	for _, symbol := range symbols {
		problems = append(problems, model.Problem{
			Kind:       model.ProblemInvalidSpec,
			Level:      model.ProblemLevelError,
			Instrument: contractspec.NormalizeSymbol(symbol),
			Message:    failed[symbol].Error(),
		})
	}
	return problems
}

// DefaultMatchHandler wires the handler to the configured resolver and the main database.
func DefaultMatchHandler() http.HandlerFunc {
	return MatchHandler(ResolverLoader{
		Config: contractspec.GetConfig(),
		Specs:  repository.NewContractSpecRepository(),
	}, repository.NewTradeRepository())
}
