/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/quality"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "DBQUALITY"
	// DefaultConfigName is looked up in the working directory when no
	// config file is given.
	DefaultConfigName = "dbquality"
)

// SupportedDialects lists the accepted values of database.dialect.
var SupportedDialects = []string{"postgres", "cloudsqlpostgres", "mysql", "cloudsqlmysql", "sqlserver", "cloudsqlsqlserver", "oracle"}

// SupportedFormats lists the accepted report formats.
var SupportedFormats = []string{"text", "markdown", "json", "yaml", "csv"}

// Config holds all configuration for the application
type Config struct {
	Database     DatabaseConfig `mapstructure:"database"`
	Scoring      ScoringConfig  `mapstructure:"scoring"`
	Report       ReportConfig   `mapstructure:"report"`
	Log          LogConfig      `mapstructure:"log"`
	GeminiAPIKey string         `mapstructure:"gemini_api_key"`
	GeminiModel  string         `mapstructure:"gemini_model"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Dialect                        string `mapstructure:"dialect"`
	Host                           string `mapstructure:"host"`
	Port                           int    `mapstructure:"port"`
	User                           string `mapstructure:"user"`
	Password                       string `mapstructure:"password"`
	DBName                         string `mapstructure:"name"`
	SSLMode                        string `mapstructure:"sslmode"`
	CloudSQLInstanceConnectionName string `mapstructure:"cloudsql_instance_connection_name"`
	UsePrivateIP                   bool   `mapstructure:"cloudsql_use_private_ip"`
	// RowLimit caps the rows loaded per table; 0 loads everything.
	RowLimit int `mapstructure:"row_limit"`
	// OrderBy is the column used to give table rows a stable position.
	OrderBy string `mapstructure:"order_by"`
}

// ScoringConfig selects the metrics and how scoring errors are handled.
type ScoringConfig struct {
	Metrics     []string `mapstructure:"metrics"`
	Columns     []string `mapstructure:"columns"`
	FailureMode string   `mapstructure:"failure_mode"`
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	Format  string `mapstructure:"format"`
	OutFile string `mapstructure:"out"`
	Summary bool   `mapstructure:"summary"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// GetConfig returns a default configuration. Values are then overlaid by Load.
func GetConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Dialect: "postgres",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Scoring: ScoringConfig{
			Metrics:     metricNames(quality.DefaultMetrics()),
			FailureMode: quality.FailFast.String(),
		},
		Report: ReportConfig{Format: "text"},
		Log:    LogConfig{Level: "info", Format: "console"},
		// Gemini API key can be set via flag or env var
		GeminiModel: "gemini-2.0-flash",
	}
}

// SetConfig sets the global configuration.
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

// Current returns the configuration installed by SetConfig, or nil.
func Current() *Config {
	return globalConfig
}

// Load resolves the configuration from defaults, an optional YAML file,
// DBQUALITY_* environment variables and any flags already bound to v.
// An explicit cfgFile must exist; the default ./dbquality.yaml is optional.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v, GetConfig())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini_api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Database.Dialect = strings.ToLower(cfg.Database.Dialect)
	cfg.Report.Format = strings.ToLower(cfg.Report.Format)
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("database.dialect", d.Database.Dialect)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.DBName)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.cloudsql_instance_connection_name", d.Database.CloudSQLInstanceConnectionName)
	v.SetDefault("database.cloudsql_use_private_ip", d.Database.UsePrivateIP)
	v.SetDefault("database.row_limit", d.Database.RowLimit)
	v.SetDefault("database.order_by", d.Database.OrderBy)
	v.SetDefault("scoring.metrics", d.Scoring.Metrics)
	v.SetDefault("scoring.columns", d.Scoring.Columns)
	v.SetDefault("scoring.failure_mode", d.Scoring.FailureMode)
	v.SetDefault("report.format", d.Report.Format)
	v.SetDefault("report.out", d.Report.OutFile)
	v.SetDefault("report.summary", d.Report.Summary)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("gemini_api_key", d.GeminiAPIKey)
	v.SetDefault("gemini_model", d.GeminiModel)
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if !contains(SupportedDialects, c.Database.Dialect) {
		return fmt.Errorf("unsupported dialect: %s (only %s are supported)", c.Database.Dialect, strings.Join(SupportedDialects, ", "))
	}
	if c.Database.RowLimit < 0 {
		return fmt.Errorf("row limit must not be negative, got %d", c.Database.RowLimit)
	}
	if _, err := c.ScoringMetrics(); err != nil {
		return err
	}
	if _, err := quality.ParseFailureMode(c.Scoring.FailureMode); err != nil {
		return err
	}
	if !contains(SupportedFormats, c.Report.Format) {
		return fmt.Errorf("unsupported report format: %s (only %s are supported)", c.Report.Format, strings.Join(SupportedFormats, ", "))
	}
	return nil
}

// ScoringMetrics parses the configured metric names. Disabled metrics are
// rejected.
func (c *Config) ScoringMetrics() ([]quality.Metric, error) {
	metrics, err := quality.ParseMetrics(c.Scoring.Metrics)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics {
		if m == quality.Timeliness {
			return nil, fmt.Errorf("%s: %w", m, quality.ErrMetricDisabled)
		}
	}
	return metrics, nil
}

// ScoringOptions converts the scoring section into engine options.
func (c *Config) ScoringOptions() (quality.Options, error) {
	metrics, err := c.ScoringMetrics()
	if err != nil {
		return quality.Options{}, err
	}
	mode, err := quality.ParseFailureMode(c.Scoring.FailureMode)
	if err != nil {
		return quality.Options{}, err
	}
	return quality.Options{Metrics: metrics, FailureMode: mode}, nil
}

func metricNames(ms []quality.Metric) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = string(m)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
