package contractspec

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"tradeledger/src/model"
)

// Resolver maps instrument symbols to contract specs.
// It is safe for concurrent use; matching partitions share one Resolver.
type Resolver struct {
	mu       sync.RWMutex
	fallback model.ContractSpec
	specs    map[string]model.ContractSpec
	// held are rejected overrides; their instruments resolve to the invalid
	// spec so trades are held instead of priced with a stale spec.
	held     map[string]model.ContractSpec
	unknown  map[string]struct{}
}

// NewResolver builds a resolver that answers unseen symbols with fallback.
// The fallback itself is not validated, an invalid default holds every trade it touches.
func NewResolver(fallback model.ContractSpec, specs ...model.ContractSpec) (*Resolver, error) {
	r := &Resolver{
		fallback: fallback,
		specs:    make(map[string]model.ContractSpec, len(specs)),
		held:     make(map[string]model.ContractSpec),
		unknown:  make(map[string]struct{}),
	}
	r.fallback.Source = model.SpecSourceDefault
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewResolverFromConfig builds a resolver with the configured default and,
// unless disabled, the built-in spec table.
func NewResolverFromConfig(cfg Config) (*Resolver, error) {
	var specs []model.ContractSpec
	if cfg.LoadBuiltin {
		builtin, err := Builtin()
		if err != nil {
			return nil, err
		}
		specs = builtin
	}
	return NewResolver(model.ContractSpec{
		TickSize:  cfg.DefaultTickSize,
		TickValue: cfg.DefaultTickValue,
	}, specs...)
}

// Register adds spec under its normalized symbol, keeping its source.
func (r *Resolver) Register(spec model.ContractSpec) error {
	spec.Symbol = NormalizeSymbol(spec.Symbol)
	if spec.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", model.ErrInvalidSpec)
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	if spec.Source == "" {
		spec.Source = model.SpecSourceOverride
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Symbol] = spec
	delete(r.held, spec.Symbol)
	for symbol := range r.unknown {
		if symbol == spec.Symbol || RootSymbol(symbol) == spec.Symbol {
			delete(r.unknown, symbol)
		}
	}
	return nil
}

// Override records a user-supplied spec that wins for all later lookups of symbol.
func (r *Resolver) Override(symbol string, tickSize, tickValue decimal.Decimal) error {
	return r.Register(model.ContractSpec{
		Symbol:    symbol,
		TickSize:  tickSize,
		TickValue: tickValue,
		Source:    model.SpecSourceOverride,
	})
}

// Overrides applies every valid entry of specs. Invalid entries are kept as
// held specs and their errors are returned keyed by the given symbol.
func (r *Resolver) Overrides(specs map[string]model.ContractSpec) map[string]error {
	var failed map[string]error
	for symbol, spec := range specs {
		err := r.Override(symbol, spec.TickSize, spec.TickValue)
		if err == nil {
			continue
		}
		if failed == nil {
			failed = make(map[string]error)
		}
		failed[symbol] = fmt.Errorf("override %s: %w", symbol, err)

		normalized := NormalizeSymbol(symbol)
		if normalized == "" {
			continue
		}
		r.mu.Lock()
		r.held[normalized] = model.ContractSpec{
			Symbol:    normalized,
			TickSize:  spec.TickSize,
			TickValue: spec.TickValue,
			Source:    model.SpecSourceOverride,
		}
		delete(r.unknown, normalized)
		r.mu.Unlock()
	}
	return failed
}

// Resolve returns the spec for instrument and whether it was known.
// Unknown instruments get the default spec and are remembered until overridden.
func (r *Resolver) Resolve(instrument string) (model.ContractSpec, bool) {
	symbol := NormalizeSymbol(instrument)

	r.mu.RLock()
	spec, ok := r.lookup(symbol)
	r.mu.RUnlock()
	if ok {
		return spec, true
	}

	r.mu.Lock()
	r.unknown[symbol] = struct{}{}
	fallback := r.fallback
	r.mu.Unlock()

	fallback.Symbol = symbol
	return fallback, false
}

func (r *Resolver) lookup(symbol string) (model.ContractSpec, bool) {
	keys := []string{symbol}
	if root := RootSymbol(symbol); root != symbol {
		keys = append(keys, root)
	}
	for _, key := range keys {
		if spec, ok := r.held[key]; ok {
			return spec, true
		}
		if spec, ok := r.specs[key]; ok {
			return spec, true
		}
	}
	return model.ContractSpec{}, false
}

// Default returns the spec used for unknown instruments.
func (r *Resolver) Default() model.ContractSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Unknown lists symbols resolved with the default spec, sorted.
func (r *Resolver) Unknown() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	symbols := make([]string, 0, len(r.unknown))
	for symbol := range r.unknown {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Snapshot lists registered specs ordered by symbol.
func (r *Resolver) Snapshot() []model.ContractSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]model.ContractSpec, 0, len(r.specs))
	for _, spec := range r.specs {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Symbol < specs[j].Symbol })
	return specs
}
