package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"tradeledger/src/contractspec"
	"tradeledger/src/model"
	"tradeledger/src/repository"
)

type specUpserter interface {
	Upsert(ctx context.Context, spec *model.ContractSpec) error
}

type specDeleter interface {
	Delete(ctx context.Context, symbol string) error
}

type specListResponse struct {
	Specs   []model.ContractSpec `json:"specs"`
	Default model.ContractSpec   `json:"default"`
}

// ListSpecsHandler returns the effective contract spec table.
// The body shape is the one connectors.ContractSpecClient reads.
func ListSpecsHandler(loader resolverLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolver, err := loader.Load(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to load contract specs")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, specListResponse{
			Specs:   resolver.Snapshot(),
			Default: resolver.Default(),
		})
	}
}

// PutSpecHandler stores an override for the symbol in the path.
func PutSpecHandler(repo specUpserter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := contractspec.NormalizeSymbol(chi.URLParam(r, "symbol"))
		if symbol == "" {
			http.Error(w, "missing symbol", http.StatusBadRequest)
			return
		}

		var spec model.ContractSpec
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&spec); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		spec.Symbol = symbol

		if err := repo.Upsert(r.Context(), &spec); err != nil {
			if errors.Is(err, model.ErrInvalidSpec) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			logger.WithError(err).Error("failed to store contract spec")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, spec)
	}
}

// DeleteSpecHandler removes the stored override for the symbol in the path.
// Matching falls back to the built-in table or the default spec.
func DeleteSpecHandler(repo specDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := contractspec.NormalizeSymbol(chi.URLParam(r, "symbol"))
		if symbol == "" {
			http.Error(w, "missing symbol", http.StatusBadRequest)
			return
		}
		if err := repo.Delete(r.Context(), symbol); err != nil {
			logger.WithError(err).WithField("symbol", symbol).Error("failed to delete contract spec")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DefaultListSpecsHandler() http.HandlerFunc {
	return ListSpecsHandler(ResolverLoader{
		Config: contractspec.GetConfig(),
		Specs:  repository.NewContractSpecRepository(),
	})
}

func DefaultPutSpecHandler() http.HandlerFunc {
	return PutSpecHandler(repository.NewContractSpecRepository())
}

func DefaultDeleteSpecHandler() http.HandlerFunc {
	return DeleteSpecHandler(repository.NewContractSpecRepository())
}
