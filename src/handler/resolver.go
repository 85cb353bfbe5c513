package handler

import (
	"context"
	"fmt"

	"tradeledger/src/contractspec"
	"tradeledger/src/model"
)

type specLister interface {
	FindAll(ctx context.Context) ([]model.ContractSpec, error)
}

// ResolverLoader builds a fresh resolver per request: configured default,
// built-in table, then stored overrides. Resolvers record unknown symbols,
// so they are never shared between requests.
type ResolverLoader struct {
	Config contractspec.Config
	Specs  specLister
}

func (l ResolverLoader) Load(ctx context.Context) (*contractspec.Resolver, error) {
	resolver, err := contractspec.NewResolverFromConfig(l.Config)
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}
	if l.Specs == nil {
		return resolver, nil
	}

	stored, err := l.Specs.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored contract specs: %w", err)
	}
	for _, spec := range stored {
		spec.Source = model.SpecSourceOverride
		if err := resolver.Register(spec); err != nil {
			return nil, fmt.Errorf("stored contract spec %s: %w", spec.Symbol, err)
		}
	}
	return resolver, nil
}
