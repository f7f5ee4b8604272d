package refdata

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/compensation"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
)

const seedDateLayout = "2006-01-02"

// Seed is the YAML shape of a reference data file.
type Seed struct {
	Operators   []OperatorSeed                 `mapstructure:"operators"`
	Bands       map[string][]compensation.Band `mapstructure:"bands"`
	SeatedFares []SeatedFareSeed               `mapstructure:"seated_fares"`
}

type OperatorSeed struct {
	Code   string `mapstructure:"code"`
	Name   string `mapstructure:"name"`
	Scheme string `mapstructure:"scheme"`
	Active *bool  `mapstructure:"active"`
}

type SeatedFareSeed struct {
	Route           string `mapstructure:"route"`
	SleeperClass    string `mapstructure:"sleeper_class"`
	SeatedFarePence int64  `mapstructure:"seated_fare_pence"`
	EffectiveFrom   string `mapstructure:"effective_from"`
	EffectiveTo     string `mapstructure:"effective_to"`
}

// Dataset is validated reference data ready to load into a store.
type Dataset struct {
	Rulepacks   []models.OperatorRulepack
	Tables      map[compensation.Scheme]*compensation.Table
	SeatedFares []models.SeatedFareEquivalent
}

// LoadFile reads and validates a YAML seed file.
func LoadFile(path string) (*Dataset, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read reference data %s: %w", path, err)
	}
	return compile(v)
}

// Parse reads and validates YAML seed data from r.
func Parse(r io.Reader) (*Dataset, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	return compile(v)
}

func compile(v *viper.Viper) (*Dataset, error) {
	var seed Seed
	if err := v.Unmarshal(&seed); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	return seed.Compile()
}

// Compile validates the seed. Schemes without configured bands fall back to
// their default tables.
func (s Seed) Compile() (*Dataset, error) {
	ds := &Dataset{Tables: make(map[compensation.Scheme]*compensation.Table)}

	for name, bands := range s.Bands {
		scheme, err := compensation.ParseScheme(name)
		if err != nil {
			return nil, err
		}
		table, err := compensation.NewTable(scheme, bands)
		if err != nil {
			return nil, fmt.Errorf("bands for %s: %w", scheme, err)
		}
		ds.Tables[scheme] = table
	}
	for _, scheme := range compensation.Schemes() {
		if _, ok := ds.Tables[scheme]; !ok {
			ds.Tables[scheme] = compensation.DefaultTable(scheme)
		}
	}

	seen := make(map[string]struct{}, len(s.Operators))
	for _, op := range s.Operators {
		code := strings.ToUpper(strings.TrimSpace(op.Code))
		if code == "" {
			return nil, errors.New("operator code is required")
		}
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("operator %s listed more than once", code)
		}
		seen[code] = struct{}{}
		scheme, err := compensation.ParseScheme(op.Scheme)
		if err != nil {
			return nil, fmt.Errorf("operator %s: %w", code, err)
		}
		active := true
		if op.Active != nil {
			active = *op.Active
		}
		ds.Rulepacks = append(ds.Rulepacks, models.OperatorRulepack{
			OperatorCode: code,
			Name:         op.Name,
			Scheme:       scheme,
			Active:       active,
		})
	}

	for _, sf := range s.SeatedFares {
		row, err := sf.compile()
		if err != nil {
			return nil, err
		}
		ds.SeatedFares = append(ds.SeatedFares, row)
	}
	return ds, nil
}

func (sf SeatedFareSeed) compile() (models.SeatedFareEquivalent, error) {
	row := models.SeatedFareEquivalent{
		Route:           strings.ToUpper(strings.TrimSpace(sf.Route)),
		SleeperClass:    strings.ToUpper(strings.TrimSpace(sf.SleeperClass)),
		SeatedFarePence: sf.SeatedFarePence,
	}
	if row.Route == "" || row.SleeperClass == "" {
		return row, errors.New("seated fare route and sleeper_class are required")
	}
	if row.SeatedFarePence < 0 {
		return row, fmt.Errorf("seated fare for %s %s must not be negative", row.Route, row.SleeperClass)
	}
	from, err := time.Parse(seedDateLayout, sf.EffectiveFrom)
	if err != nil {
		return row, fmt.Errorf("seated fare %s %s effective_from: %w", row.Route, row.SleeperClass, err)
	}
	row.EffectiveFrom = from
	if sf.EffectiveTo != "" {
		to, err := time.Parse(seedDateLayout, sf.EffectiveTo)
		if err != nil {
			return row, fmt.Errorf("seated fare %s %s effective_to: %w", row.Route, row.SleeperClass, err)
		}
		if to.Before(from) {
			return row, fmt.Errorf("seated fare %s %s ends before it starts", row.Route, row.SleeperClass)
		}
		row.EffectiveTo = &to
	}
	return row, nil
}

// DefaultDataset is the built-in reference data used when no seed file is
// configured.
func DefaultDataset() *Dataset {
	ds, err := Parse(strings.NewReader(defaultSeedYAML))
	if err != nil {
		panic(fmt.Sprintf("refdata: invalid default seed: %v", err))
	}
	return ds
}

const defaultSeedYAML = `
operators:
  - {code: GW, name: Great Western Railway, scheme: DR15}
  - {code: AW, name: Transport for Wales, scheme: DR15}
  - {code: VT, name: Avanti West Coast, scheme: DR15}
  - {code: XC, name: CrossCountry, scheme: DR30}
  - {code: NT, name: Northern, scheme: DR15}
  - {code: CS, name: Caledonian Sleeper, scheme: DR15}
  - {code: LE, name: Greater Anglia, scheme: DR30, active: false}
bands:
  DR15:
    - {threshold_minutes: 15, percentage: 25}
    - {threshold_minutes: 30, percentage: 50}
    - {threshold_minutes: 60, percentage: 100}
    - {threshold_minutes: 120, percentage: 100}
  DR30:
    - {threshold_minutes: 30, percentage: 50}
    - {threshold_minutes: 60, percentage: 100}
    - {threshold_minutes: 120, percentage: 100}
seated_fares:
  - {route: EUS-INV, sleeper_class: CLASSIC, seated_fare_pence: 8500, effective_from: "2024-01-01"}
  - {route: EUS-INV, sleeper_class: CLUB, seated_fare_pence: 8500, effective_from: "2024-01-01"}
  - {route: EUS-ABD, sleeper_class: CLASSIC, seated_fare_pence: 7800, effective_from: "2024-01-01", effective_to: "2024-12-31"}
  - {route: EUS-ABD, sleeper_class: CLASSIC, seated_fare_pence: 8200, effective_from: "2025-01-01"}
  - {route: PAD-PNZ, sleeper_class: STANDARD, seated_fare_pence: 2000, effective_from: "2024-01-01"}
`
