package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Lumos-Labs-HQ/medseed/internal/seeder"
	"github.com/spf13/viper"
)

func loadFile(t *testing.T, content string) *Config {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Database.Provider != "mysql" {
		t.Errorf("Expected database provider to be 'mysql', got '%s'", config.Database.Provider)
	}
	if config.Database.URLEnv != "DATABASE_URL" {
		t.Errorf("Expected database url_env to be 'DATABASE_URL', got '%s'", config.Database.URLEnv)
	}
	if config.Seed.Threshold != 10 {
		t.Errorf("Expected threshold 10, got %d", config.Seed.Threshold)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg := loadFile(t, `{"database": {"provider": "sqlite"}}`)

	if cfg.Database.Provider != "sqlite" {
		t.Errorf("Expected provider sqlite, got %s", cfg.Database.Provider)
	}
	if cfg.Generate.BedAvailability != 0.7 || cfg.Generate.BillBase != 1001 || cfg.Generate.TaxRate != 0.05 {
		t.Errorf("Expected generation defaults, got %+v", cfg.Generate)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Expected text logs, got %s", cfg.Log.Format)
	}
}

func TestLoadKeepsExplicitZero(t *testing.T) {
	cfg := loadFile(t, `{"generate": {"bed_availability": 0, "tax_rate": 0}, "seed": {"counts": {"patients": 40, "appointment": 0}}}`)

	if cfg.Generate.BedAvailability != 0 {
		t.Errorf("Expected explicit 0 availability, got %v", cfg.Generate.BedAvailability)
	}
	if cfg.Generate.TaxRate != 0 {
		t.Errorf("Expected explicit 0 tax rate, got %v", cfg.Generate.TaxRate)
	}

	counts, err := cfg.Counts()
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[seeder.Patient] != 40 || counts[seeder.Appointment] != 0 {
		t.Errorf("Unexpected counts %v", counts)
	}
	if _, ok := counts[seeder.Appointment]; !ok {
		t.Error("Expected an explicit zero count to be kept")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"provider":     func(c *Config) { c.Database.Provider = "oracle" },
		"driver":       func(c *Config) { c.Database.Driver = "odbc" },
		"threshold":    func(c *Config) { c.Seed.Threshold = 0 },
		"count":        func(c *Config) { c.Seed.Counts = map[string]int{"ghosts": 3} },
		"availability": func(c *Config) { c.Generate.BedAvailability = 1.5 },
		"hours":        func(c *Config) { c.Generate.FirstHour = 18 },
		"log format":   func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", name)
		}
	}
}

func TestParseCounts(t *testing.T) {
	counts, err := ParseCounts([]string{"patients=40", "doctor=5"})
	if err != nil {
		t.Fatalf("ParseCounts failed: %v", err)
	}
	if counts[seeder.Patient] != 40 || counts[seeder.Doctor] != 5 {
		t.Errorf("Unexpected counts %v", counts)
	}

	counts, err = ParseCounts([]string{" wards = 7 "})
	if err != nil || counts[seeder.Ward] != 7 {
		t.Errorf("Expected surrounding spaces to be ignored, got %v (%v)", counts, err)
	}

	for _, bad := range []string{"patients", "patients=-1", "patients=many", "ghosts=2", "patients=5abc", "patients=5 6", "patients=", "patients=2.5"} {
		if _, err := ParseCounts([]string{bad}); err == nil {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}
}

func TestGetDatabaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.URLEnv = "MEDSEED_TEST_URL"

	t.Setenv("MEDSEED_TEST_URL", "")
	if _, err := cfg.GetDatabaseURL(); err == nil {
		t.Error("Expected an error for an unset URL")
	}

	t.Setenv("MEDSEED_TEST_URL", "sqlite://seed.db")
	if url, err := cfg.GetDatabaseURL(); err != nil || url != "sqlite://seed.db" {
		t.Errorf("Expected sqlite://seed.db, got %q (%v)", url, err)
	}
}

func TestInitializeProject(t *testing.T) {
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}
	defer os.Chdir(originalDir)

	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	if IsInitialized() {
		t.Error("Expected project to not be initialized, but it was")
	}
	if err := InitializeProject("sqlite"); err != nil {
		t.Fatalf("Failed to initialize project: %v", err)
	}
	if !IsInitialized() {
		t.Error("Expected project to be initialized, but it wasn't")
	}

	// Test that second initialization fails
	if err := InitializeProject("sqlite"); err == nil {
		t.Error("Expected second initialization to fail, but it succeeded")
	}

	viper.Reset()
	defer viper.Reset()
	viper.SetConfigFile(FileName)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("Failed to read generated config: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Provider != "sqlite" || cfg.Seed.Counts["patient"] != 20 {
		t.Errorf("Unexpected generated config %+v", cfg)
	}
}

func TestEnvOverridesNestedKeys(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("MEDSEED_DATABASE_PROVIDER", "sqlite")
	t.Setenv("MEDSEED_DATABASE_URL_ENV", "HOSPITAL_DB")
	t.Setenv("MEDSEED_SEED_THRESHOLD", "25")
	t.Setenv("MEDSEED_GENERATE_TAX_RATE", "0")
	BindEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Provider != "sqlite" || cfg.Database.URLEnv != "HOSPITAL_DB" {
		t.Errorf("Expected database settings from the environment, got %+v", cfg.Database)
	}
	if cfg.Seed.Threshold != 25 {
		t.Errorf("Expected threshold 25, got %d", cfg.Seed.Threshold)
	}
	if cfg.Generate.TaxRate != 0 {
		t.Errorf("Expected an explicit zero tax rate, got %v", cfg.Generate.TaxRate)
	}
	if cfg.Generate.BillBase != 1001 {
		t.Errorf("Expected unset keys to keep defaults, got bill base %d", cfg.Generate.BillBase)
	}
}
