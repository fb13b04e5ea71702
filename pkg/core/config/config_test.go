package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DCF.ForecastYears != 5 || cfg.Relative.PER != 10.0 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Relative.IndustryPSR["SaaS"] != 5.0 {
		t.Errorf("industry PSR table missing: %v", cfg.Relative.IndustryPSR)
	}
}

func TestLoadOverridesAndBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valuation.yaml")
	content := []byte(`
dcf:
  forecast_years: 7
relative:
  per: 12.5
  industry_psr:
    바이오: 8.0
llm:
  provider: deepseek
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DCF.ForecastYears != 7 {
		t.Errorf("forecast years = %d, want 7", cfg.DCF.ForecastYears)
	}
	// Unset fields fall back rather than zeroing the engine parameter.
	if cfg.DCF.SensitivitySteps != 5 || cfg.DCF.SensitivityWACCDelta != 0.02 {
		t.Errorf("sensitivity defaults lost: %+v", cfg.DCF)
	}
	if cfg.Relative.PER != 12.5 || cfg.Relative.PBR != 1.0 {
		t.Errorf("relative merge wrong: %+v", cfg.Relative)
	}
	if cfg.Relative.IndustryPSR["바이오"] != 8.0 {
		t.Errorf("industry PSR override lost: %v", cfg.Relative.IndustryPSR)
	}
	if cfg.LLM.Provider != "deepseek" {
		t.Errorf("llm provider = %q", cfg.LLM.Provider)
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("dcf: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted broken YAML")
	}
}
