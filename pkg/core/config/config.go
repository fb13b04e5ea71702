// Package config loads the engine tuning table from a YAML file, with
// compiled-in Korean-market defaults when the file or a field is absent.
// Runtime secrets (API keys, database URL) stay in the environment; this
// file carries only valuation parameters.
package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v2"

	"valuation_platform/pkg/core/relative"
)

// DCFConfig tunes the DCF engine's forecast and sensitivity behavior.
type DCFConfig struct {
	ForecastYears          int     `yaml:"forecast_years"`
	SensitivityWACCDelta   float64 `yaml:"sensitivity_wacc_delta"`
	SensitivityGrowthDelta float64 `yaml:"sensitivity_growth_delta"`
	SensitivitySteps       int     `yaml:"sensitivity_steps"`
}

// LLMConfig selects the rationale-drafting backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, deepseek, qwen
	Model    string `yaml:"model"`
}

// Config is the full tuning table.
type Config struct {
	DCF      DCFConfig         `yaml:"dcf"`
	Relative relative.Defaults `yaml:"relative"`
	LLM      LLMConfig         `yaml:"llm"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		DCF: DCFConfig{
			ForecastYears:          5,
			SensitivityWACCDelta:   0.02,
			SensitivityGrowthDelta: 0.01,
			SensitivitySteps:       5,
		},
		Relative: relative.MarketDefaults(),
		LLM: LLMConfig{
			Provider: "gemini",
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error; the defaults stand. A file that exists but does not parse
// is an error, never silently ignored.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, eris.Wrapf(err, "config: read %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, eris.Wrapf(err, "config: parse %s", path)
	}
	cfg.fillZeroes()
	return cfg, nil
}

// fillZeroes restores defaults for fields the file left unset, so a partial
// file never zeroes out an engine parameter.
func (c *Config) fillZeroes() {
	defaults := Default()
	if c.DCF.ForecastYears <= 0 {
		c.DCF.ForecastYears = defaults.DCF.ForecastYears
	}
	if c.DCF.SensitivityWACCDelta == 0 {
		c.DCF.SensitivityWACCDelta = defaults.DCF.SensitivityWACCDelta
	}
	if c.DCF.SensitivityGrowthDelta == 0 {
		c.DCF.SensitivityGrowthDelta = defaults.DCF.SensitivityGrowthDelta
	}
	if c.DCF.SensitivitySteps <= 0 {
		c.DCF.SensitivitySteps = defaults.DCF.SensitivitySteps
	}
	if c.Relative.PER == 0 {
		c.Relative.PER = defaults.Relative.PER
	}
	if c.Relative.PBR == 0 {
		c.Relative.PBR = defaults.Relative.PBR
	}
	if c.Relative.PSR == 0 {
		c.Relative.PSR = defaults.Relative.PSR
	}
	if c.Relative.EVEBITDA == 0 {
		c.Relative.EVEBITDA = defaults.Relative.EVEBITDA
	}
	if len(c.Relative.IndustryPSR) == 0 {
		c.Relative.IndustryPSR = defaults.Relative.IndustryPSR
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaults.LLM.Provider
	}
}
