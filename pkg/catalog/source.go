package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/memberpay/pkg/config"
)

// EnvConfig maps catalog entries to environment variables. All price IDs are
// required; a missing one fails configuration loading before the service
// starts.
type EnvConfig struct {
	PriceStarterMonthly string `env:"PRICE_STARTER_MONTHLY,required"`
	PriceStarterAnnual  string `env:"PRICE_STARTER_ANNUAL,required"`
	PricePremiumMonthly string `env:"PRICE_PREMIUM_MONTHLY,required"`
	PricePremiumAnnual  string `env:"PRICE_PREMIUM_ANNUAL,required"`

	PriceAddOnNutrition string `env:"PRICE_ADDON_NUTRITION,required"`
	PriceAddOnCoaching  string `env:"PRICE_ADDON_COACHING,required"`
	PriceAddOnLabs      string `env:"PRICE_ADDON_LABS,required"`
	PriceAddOnSkincare  string `env:"PRICE_ADDON_SKINCARE,required"`

	ServiceRegions []string `env:"SERVICE_REGIONS" envDefault:"WA,OR"`
}

// EnvSource loads catalog data from environment variables via the config
// loader. The zero value is ready to use.
type EnvSource struct{}

func (EnvSource) Load() (Data, error) {
	var cfg EnvConfig
	if err := config.Load(&cfg); err != nil {
		return Data{}, err
	}
	return NewDataFromEnvConfig(cfg), nil
}

// NewDataFromEnvConfig converts an already-loaded EnvConfig into catalog
// data. Split out so tests can bypass the process environment.
func NewDataFromEnvConfig(cfg EnvConfig) Data {
	return Data{
		BasePrices: map[string]string{
			baseKey(PlanStarter, CycleMonthly): cfg.PriceStarterMonthly,
			baseKey(PlanStarter, CycleAnnual):  cfg.PriceStarterAnnual,
			baseKey(PlanPremium, CycleMonthly): cfg.PricePremiumMonthly,
			baseKey(PlanPremium, CycleAnnual):  cfg.PricePremiumAnnual,
		},
		AddOnPrices: map[string]string{
			string(AddOnNutrition): cfg.PriceAddOnNutrition,
			string(AddOnCoaching):  cfg.PriceAddOnCoaching,
			string(AddOnLabs):      cfg.PriceAddOnLabs,
			string(AddOnSkincare):  cfg.PriceAddOnSkincare,
		},
		Regions: cfg.ServiceRegions,
	}
}

// StaticSource serves fixed catalog data. Intended for tests.
type StaticSource struct {
	Data Data
}

func (s StaticSource) Load() (Data, error) {
	return s.Data, nil
}

// FileSource loads catalog data from a YAML file:
//
//	base_prices:
//	  starter:
//	    monthly: price_abc
//	    annual: price_def
//	add_on_prices:
//	  nutrition: price_ghi
//	regions: [WA, OR]
type FileSource struct {
	Path string
}

type fileCatalog struct {
	BasePrices  map[string]map[string]string `yaml:"base_prices"`
	AddOnPrices map[string]string            `yaml:"add_on_prices"`
	Regions     []string                     `yaml:"regions"`
}

func (s FileSource) Load() (Data, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return Data{}, fmt.Errorf("read catalog file %s: %w", s.Path, err)
	}

	var fc fileCatalog
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Data{}, fmt.Errorf("parse catalog file %s: %w", s.Path, err)
	}

	base := make(map[string]string)
	for plan, cycles := range fc.BasePrices {
		for cycle, id := range cycles {
			base[plan+"_"+cycle] = id
		}
	}

	return Data{
		BasePrices:  base,
		AddOnPrices: fc.AddOnPrices,
		Regions:     fc.Regions,
	}, nil
}
