// Package config loads the rtoreceipts configuration from viper and builds
// the per-package configurations handed to constructors.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"rto-receipt-reconciler/internal/batch"
	"rto-receipt-reconciler/internal/matcher"
	"rto-receipt-reconciler/internal/models"
	"rto-receipt-reconciler/internal/reporter"
	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

// Config is the full set of settings, read once at startup.
type Config struct {
	DocumentsDir   string `mapstructure:"documents_dir"`
	ExtractionLog  string `mapstructure:"extraction_log"`
	SummaryFile    string `mapstructure:"summary_file"`
	TransactionLog string `mapstructure:"transaction_log"`
	ReportFile     string `mapstructure:"report_file"`

	Workers          int  `mapstructure:"workers"`
	IncludeTextFiles bool `mapstructure:"include_text_files"`

	OutputFormat string `mapstructure:"output_format"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	LogFile      string `mapstructure:"log_file"`

	TransactionColumns  matcher.TransactionColumns `mapstructure:"transaction_columns"`
	SummaryColumns      matcher.SummaryColumns     `mapstructure:"summary_columns"`
	DateFormats         []string                   `mapstructure:"date_formats"`
	DuplicateWindowDays int                        `mapstructure:"duplicate_window_days"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("documents_dir", "receipts")
	v.SetDefault("extraction_log", "rto_receipts_log.xlsx")
	v.SetDefault("summary_file", "summary.xlsx")
	v.SetDefault("transaction_log", "OTP_transaction_list.xlsx")
	v.SetDefault("report_file", "reconciliation_result.xlsx")
	v.SetDefault("workers", batch.DefaultConfig().Workers)
	v.SetDefault("include_text_files", false)
	v.SetDefault("output_format", string(reporter.FormatConsole))
	v.SetDefault("log_level", string(logger.InfoLevel))
	v.SetDefault("log_format", string(logger.TextFormat))
	v.SetDefault("log_file", "")

	tx := matcher.DefaultTransactionColumns()
	v.SetDefault("transaction_columns.vehicle_no", tx.VehicleNo)
	v.SetDefault("transaction_columns.chassis_no", tx.ChassisNo)
	v.SetDefault("transaction_columns.payment_type", tx.PaymentType)
	v.SetDefault("transaction_columns.amount", tx.Amount)
	v.SetDefault("transaction_columns.bank_amount", tx.BankAmount)
	v.SetDefault("transaction_columns.date", tx.Date)

	sum := matcher.DefaultSummaryColumns()
	v.SetDefault("summary_columns.vehicle_no", sum.VehicleNo)
	v.SetDefault("summary_columns.chassis_no", sum.ChassisNo)
	v.SetDefault("summary_columns.amount", sum.Amount)
	v.SetDefault("summary_columns.date", sum.Date)

	v.SetDefault("date_formats", models.DefaultDateLayouts)
	v.SetDefault("duplicate_window_days", 4)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", v.ConfigFileUsed(), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "workers", c.Workers,
			fmt.Errorf("workers must be positive"))
	}
	if c.DuplicateWindowDays <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "duplicate_window_days", c.DuplicateWindowDays,
			fmt.Errorf("window must be at least one day"))
	}
	if !reporter.OutputFormat(c.OutputFormat).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output_format", c.OutputFormat,
			fmt.Errorf("valid formats: console, json, csv"))
	}

	for _, layout := range c.DateFormats {
		// A layout without any reference component formats to itself.
		if time.Date(2011, 11, 22, 13, 34, 56, 0, time.UTC).Format(layout) == layout {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "date_formats", layout,
				fmt.Errorf("layout must use Go reference time components such as 02-01-2006"))
		}
	}

	if err := c.CreateMatchingConfig().Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "matching", nil, err)
	}
	if err := c.CreateLoggerConfig(false).Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "logging", c.LogLevel, err)
	}
	return nil
}

// RequirePaths fails with a missing-config error for the first empty path.
func (c *Config) RequirePaths(keys ...string) error {
	paths := map[string]string{
		"documents_dir":   c.DocumentsDir,
		"extraction_log":  c.ExtractionLog,
		"summary_file":    c.SummaryFile,
		"transaction_log": c.TransactionLog,
		"report_file":     c.ReportFile,
	}
	for _, key := range keys {
		if strings.TrimSpace(paths[key]) == "" {
			return errors.ConfigurationError(errors.CodeMissingConfig, key, nil, nil)
		}
	}
	return nil
}

// CreateBatchConfig creates the batch processor configuration
func (c *Config) CreateBatchConfig() *batch.Config {
	config := batch.DefaultConfig()
	config.Workers = c.Workers
	if c.IncludeTextFiles {
		config.Extensions = append(config.Extensions, ".txt")
	}
	return config
}

// CreateMatchingConfig creates the matching configuration
func (c *Config) CreateMatchingConfig() *matcher.MatchingConfig {
	config := matcher.DefaultMatchingConfig()
	config.Transaction = c.TransactionColumns
	config.Summary = c.SummaryColumns
	if len(c.DateFormats) > 0 {
		config.DateLayouts = append([]string(nil), c.DateFormats...)
	}
	config.DuplicateWindow = time.Duration(c.DuplicateWindowDays) * 24 * time.Hour
	return config
}

// CreateReportConfig creates a report configuration for the specified output format
func (c *Config) CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.Transaction = c.TransactionColumns

	switch reporter.OutputFormat(format) {
	case reporter.FormatJSON:
		config.Format = reporter.FormatJSON
		config.MaxListItems = 0
	case reporter.FormatCSV:
		config.Format = reporter.FormatCSV
		config.IncludeFailures = false
	default:
		config.Format = reporter.FormatConsole
	}
	return config
}

// CreateLoggerConfig creates the logger configuration. verbose forces debug level.
func (c *Config) CreateLoggerConfig(verbose bool) *logger.Config {
	config := logger.DefaultConfig()
	config.Level = logger.Level(strings.ToLower(c.LogLevel))
	config.Format = logger.Format(strings.ToLower(c.LogFormat))
	if verbose {
		config.Level = logger.DebugLevel
		config.CallerInfo = true
	}
	if c.LogFile != "" {
		config.Output = logger.FileOutput
		config.File = c.LogFile
	}
	return config
}
