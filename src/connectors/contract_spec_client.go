package connectors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradeledger/src/model"
)

const (
	// Default retry configuration
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second

	specsPath     = "/contract-specs"
	specsCacheKey = "contract-specs"
)

// ErrSpecSourceDisabled is returned when no contract spec URL is configured.
var ErrSpecSourceDisabled = errors.New("contract spec source not configured")

type remoteSpec struct {
	Symbol    string          `json:"symbol"`
	TickSize  decimal.Decimal `json:"tick_size"`
	TickValue decimal.Decimal `json:"tick_value"`
}

type specListResponse struct {
	Specs []remoteSpec `json:"specs"`
}

// SpecOverrider accepts corrected contract specs, see contractspec.Resolver.
type SpecOverrider interface {
	Override(symbol string, tickSize, tickValue decimal.Decimal) error
}

// ContractSpecClient fetches contract specs from a remote reference service.
// Responses are cached so repeated runs do not hit the service.
type ContractSpecClient struct {
	baseURL string
	http    *resty.Client
	cache   *cache.Cache
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	if code >= 500 && code <= 599 {
		return true
	}
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func NewContractSpecClient(cfg Config) *ContractSpecClient {
	httpClient := resty.New().
		SetBaseURL(cfg.ContractSpecsURL).
		SetTimeout(cfg.ContractSpecsTimeout).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp).
		SetHeader("Accept", "application/json")
	if cfg.ContractSpecsToken != "" {
		httpClient.SetAuthToken(cfg.ContractSpecsToken)
	}

	ttl := cfg.ContractSpecsCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ContractSpecClient{
		baseURL: cfg.ContractSpecsURL,
		http:    httpClient,
		cache:   cache.New(ttl, 2*ttl),
	}
}

// FetchSpecs returns the remote spec list. Entries are not validated here.
func (c *ContractSpecClient) FetchSpecs(ctx context.Context) ([]model.ContractSpec, error) {
	if c.baseURL == "" {
		return nil, ErrSpecSourceDisabled
	}
	if cached, ok := c.cache.Get(specsCacheKey); ok {
		return cached.([]model.ContractSpec), nil
	}

	var body specListResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(specsPath)
	if err != nil {
		return nil, fmt.Errorf("fetch contract specs: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch contract specs: HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	specs := make([]model.ContractSpec, 0, len(body.Specs))
	for _, s := range body.Specs {
		specs = append(specs, model.ContractSpec{
			Symbol:    s.Symbol,
			TickSize:  s.TickSize,
			TickValue: s.TickValue,
			Source:    model.SpecSourceOverride,
		})
	}
	c.cache.Set(specsCacheKey, specs, cache.DefaultExpiration)

	logger.WithFields(map[string]interface{}{
		"url":   c.baseURL + specsPath,
		"specs": len(specs),
	}).Debug("contract specs fetched")
	return specs, nil
}

// Preload applies the remote specs to resolver before matching starts.
// Invalid entries are logged and skipped. It returns how many were applied.
func (c *ContractSpecClient) Preload(ctx context.Context, resolver SpecOverrider) (int, error) {
	specs, err := c.FetchSpecs(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, spec := range specs {
		if err := resolver.Override(spec.Symbol, spec.TickSize, spec.TickValue); err != nil {
			logger.WithFields(map[string]interface{}{
				"symbol": spec.Symbol,
			}).WithError(err).Warn("Skipping remote contract spec")
			continue
		}
		applied++
	}
	return applied, nil
}
