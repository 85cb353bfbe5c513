package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeledger/src/model"
)

func TestListSpecsHandler(t *testing.T) {
	stored := model.ContractSpec{Symbol: "ES", TickSize: decimal.RequireFromString("0.25"), TickValue: decimal.NewFromInt(10)}

	rr := httptest.NewRecorder()
	ListSpecsHandler(testLoader(stored)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/contract-specs", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp specListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Specs)
	assert.Equal(t, model.SpecSourceDefault, resp.Default.Source)

	var es *model.ContractSpec
	for i := range resp.Specs {
		if resp.Specs[i].Symbol == "ES" {
			es = &resp.Specs[i]
		}
	}
	require.NotNil(t, es)
	assert.True(t, es.TickValue.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, model.SpecSourceOverride, es.Source)
}

func putSpec(t *testing.T, store *mockSpecStore, symbol, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Put("/contract-specs/{symbol}", PutSpecHandler(store))

	req := httptest.NewRequest(http.MethodPut, "/contract-specs/"+symbol, strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestPutSpecHandler(t *testing.T) {
	store := &mockSpecStore{}

	rr := putSpec(t, store, "mes", `{"tick_size": "0.25", "tick_value": "1.25"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NotNil(t, store.upserted)
	assert.Equal(t, "MES", store.upserted.Symbol)

	rr = putSpec(t, store, "MES", `{"tick_size": "0", "tick_value": "1.25"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = putSpec(t, store, "MES", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteSpecHandler(t *testing.T) {
	store := &mockSpecStore{}
	r := chi.NewRouter()
	r.Delete("/contract-specs/{symbol}", DeleteSpecHandler(store))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/contract-specs/es", nil))
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	assert.Equal(t, "ES", store.deleted)

	store.err = errors.New("db down")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/contract-specs/ES", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
