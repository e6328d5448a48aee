package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Lumos-Labs-HQ/medseed/internal/catalog"
	"github.com/Lumos-Labs-HQ/medseed/internal/seeder"
	"github.com/spf13/viper"
)

// FileName is the config file medseed looks for in the working directory.
const FileName = "medseed.config.json"

type Config struct {
	Version  string   `json:"version" mapstructure:"version"`
	Catalog  string   `json:"catalog,omitempty" mapstructure:"catalog"` // YAML catalog; empty uses the built-in one
	Database Database `json:"database" mapstructure:"database"`
	Seed     Seed     `json:"seed" mapstructure:"seed"`
	Generate Generate `json:"generate" mapstructure:"generate"`
	Log      Log      `json:"log" mapstructure:"log"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
	// Driver selects the postgres client: "pgx" (default) or "pq".
	Driver string `json:"driver,omitempty" mapstructure:"driver"`
}

type Seed struct {
	Threshold  int            `json:"threshold" mapstructure:"threshold"`
	Workers    int            `json:"workers" mapstructure:"workers"`
	RandomSeed int64          `json:"random_seed,omitempty" mapstructure:"random_seed"` // 0 seeds from the clock
	Counts     map[string]int `json:"counts,omitempty" mapstructure:"counts"`
}

type Generate struct {
	BedAvailability       float64 `json:"bed_availability" mapstructure:"bed_availability"`
	AppointmentWindowDays int     `json:"appointment_window_days" mapstructure:"appointment_window_days"`
	FirstHour             int     `json:"first_hour" mapstructure:"first_hour"`
	LastHour              int     `json:"last_hour" mapstructure:"last_hour"`
	BillPrefix            string  `json:"bill_prefix" mapstructure:"bill_prefix"`
	BillBase              int     `json:"bill_base" mapstructure:"bill_base"`
	TaxRate               float64 `json:"tax_rate" mapstructure:"tax_rate"`
	DiscountMin           int     `json:"discount_min" mapstructure:"discount_min"`
	DiscountMax           int     `json:"discount_max" mapstructure:"discount_max"`
}

type Log struct {
	Format string `json:"format" mapstructure:"format"` // "text" or "json"
	Level  string `json:"level" mapstructure:"level"`
}

func DefaultConfig() *Config {
	p := seeder.DefaultParams()
	return &Config{
		Version: "1",
		Database: Database{
			Provider: "mysql",
			URLEnv:   "DATABASE_URL",
		},
		Seed: Seed{
			Threshold: seeder.DefaultThreshold,
			Workers:   1,
		},
		Generate: Generate{
			BedAvailability:       p.BedAvailability,
			AppointmentWindowDays: p.AppointmentWindowDays,
			FirstHour:             p.FirstHour,
			LastHour:              p.LastHour,
			BillPrefix:            p.BillPrefix,
			BillBase:              p.BillBase,
			TaxRate:               p.TaxRate,
			DiscountMin:           p.DiscountMin,
			DiscountMax:           p.DiscountMax,
		},
		Log: Log{Format: "text", Level: "info"},
	}
}

// EnvPrefix namespaces environment overrides: seed.threshold is read from
// MEDSEED_SEED_THRESHOLD.
const EnvPrefix = "MEDSEED"

var envKeys = []string{
	"catalog",
	"database.provider", "database.url_env", "database.driver",
	"seed.threshold", "seed.workers", "seed.random_seed",
	"generate.bed_availability", "generate.appointment_window_days",
	"generate.first_hour", "generate.last_hour", "generate.bill_prefix",
	"generate.bill_base", "generate.tax_rate", "generate.discount_min",
	"generate.discount_max",
	"log.format", "log.level",
}

// BindEnv lets MEDSEED_* variables override nested config keys, with or
// without a config file.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		viper.BindEnv(key)
	}
}

// Load unmarshals the active viper settings and fills in defaults for
// anything not set.
func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	def := DefaultConfig()
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = def.Database.Provider
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = def.Database.URLEnv
	}
	if cfg.Seed.Threshold == 0 {
		cfg.Seed.Threshold = def.Seed.Threshold
	}
	if cfg.Seed.Workers == 0 {
		cfg.Seed.Workers = def.Seed.Workers
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}

	// Zero is a meaningful value for most generation settings, so only
	// keys that were never set take the default.
	g, dg := &cfg.Generate, def.Generate
	if !viper.IsSet("generate.bed_availability") {
		g.BedAvailability = dg.BedAvailability
	}
	if !viper.IsSet("generate.appointment_window_days") {
		g.AppointmentWindowDays = dg.AppointmentWindowDays
	}
	if !viper.IsSet("generate.first_hour") {
		g.FirstHour = dg.FirstHour
	}
	if !viper.IsSet("generate.last_hour") {
		g.LastHour = dg.LastHour
	}
	if g.BillPrefix == "" {
		g.BillPrefix = dg.BillPrefix
	}
	if !viper.IsSet("generate.bill_base") {
		g.BillBase = dg.BillBase
	}
	if !viper.IsSet("generate.tax_rate") {
		g.TaxRate = dg.TaxRate
	}
	if !viper.IsSet("generate.discount_min") {
		g.DiscountMin = dg.DiscountMin
	}
	if !viper.IsSet("generate.discount_max") {
		g.DiscountMax = dg.DiscountMax
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) Validate() error {
	supportedProviders := []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}
	supported := false
	for _, provider := range supportedProviders {
		if c.Database.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	if d := c.Database.Driver; d != "" && d != "pgx" && d != "pq" {
		return fmt.Errorf("unsupported postgres driver: %s", d)
	}
	if c.Seed.Threshold < 1 {
		return fmt.Errorf("seed.threshold must be at least 1")
	}
	if c.Seed.Workers < 1 {
		return fmt.Errorf("seed.workers must be at least 1")
	}
	if _, err := c.Counts(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %s", c.Log.Format)
	}
	return c.Params().Validate()
}

// Params converts the generate section for the seeder.
func (c *Config) Params() seeder.Params {
	g := c.Generate
	return seeder.Params{
		BedAvailability:       g.BedAvailability,
		AppointmentWindowDays: g.AppointmentWindowDays,
		FirstHour:             g.FirstHour,
		LastHour:              g.LastHour,
		BillPrefix:            g.BillPrefix,
		BillBase:              g.BillBase,
		TaxRate:               g.TaxRate,
		DiscountMin:           g.DiscountMin,
		DiscountMax:           g.DiscountMax,
	}
}

// Counts resolves seed.counts keys, entity or table names, to entities.
func (c *Config) Counts() (map[seeder.Entity]int, error) {
	counts := make(map[seeder.Entity]int, len(c.Seed.Counts))
	var errs []error
	for name, n := range c.Seed.Counts {
		e, err := seeder.ParseEntity(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("seed.counts: %w", err))
			continue
		}
		if n < 0 {
			errs = append(errs, fmt.Errorf("seed.counts.%s cannot be negative", name))
			continue
		}
		counts[e] = n
	}
	return counts, errors.Join(errs...)
}

// ParseCounts reads "entity=n" pairs as given on the command line.
func ParseCounts(pairs []string) (map[seeder.Entity]int, error) {
	counts := make(map[seeder.Entity]int, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid count %q, expected entity=n", pair)
		}
		e, err := seeder.ParseEntity(name)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid count %q for %s", value, name)
		}
		counts[e] = n
	}
	return counts, nil
}

// InitializeProject writes a default config file to the working directory.
func InitializeProject(provider string) error {
	if IsInitialized() {
		return fmt.Errorf("%s already exists", FileName)
	}

	cfg := DefaultConfig()
	if provider != "" {
		cfg.Database.Provider = provider
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cfg.Seed.Counts = make(map[string]int)
	for e, n := range seeder.DefaultCounts(catalog.Default()) {
		cfg.Seed.Counts[string(e)] = n
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(FileName, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return nil
}

func IsInitialized() bool {
	_, err := os.Stat(FileName)
	return err == nil
}
