package contractspec

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"tradeledger/src/model"
)

//go:embed contract_specs.yaml
var builtinYAML []byte

type specFile struct {
	Specs []struct {
		Symbol    string `yaml:"symbol"`
		TickSize  string `yaml:"tick_size"`
		TickValue string `yaml:"tick_value"`
	} `yaml:"specs"`
}

// Builtin returns the embedded contract spec table.
func Builtin() ([]model.ContractSpec, error) {
	return ParseYAML(builtinYAML, model.SpecSourceBuiltin)
}

// ParseYAML decodes a spec table and validates every entry.
func ParseYAML(data []byte, source model.SpecSource) ([]model.ContractSpec, error) {
	var file specFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode contract specs: %w", err)
	}

	specs := make([]model.ContractSpec, 0, len(file.Specs))
	for _, entry := range file.Specs {
		tickSize, err := decimal.NewFromString(entry.TickSize)
		if err != nil {
			return nil, fmt.Errorf("contract spec %s tick_size: %w", entry.Symbol, err)
		}
		tickValue, err := decimal.NewFromString(entry.TickValue)
		if err != nil {
			return nil, fmt.Errorf("contract spec %s tick_value: %w", entry.Symbol, err)
		}
		spec := model.ContractSpec{
			Symbol:    NormalizeSymbol(entry.Symbol),
			TickSize:  tickSize,
			TickValue: tickValue,
			Source:    source,
		}
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
