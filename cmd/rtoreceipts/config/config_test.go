package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"rto-receipt-reconciler/internal/reporter"
	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("defaults should load: %v", err)
	}

	if cfg.ExtractionLog != "rto_receipts_log.xlsx" {
		t.Errorf("expected default extraction log, got %q", cfg.ExtractionLog)
	}
	if cfg.TransactionColumns.VehicleNo != "Vehicle Reg. Number" {
		t.Errorf("expected default vehicle column, got %q", cfg.TransactionColumns.VehicleNo)
	}
	if cfg.SummaryColumns.Date != "Transaction Date" {
		t.Errorf("expected default summary date column, got %q", cfg.SummaryColumns.Date)
	}
	if len(cfg.DateFormats) == 0 {
		t.Error("expected default date formats")
	}

	matching := cfg.CreateMatchingConfig()
	if matching.DuplicateWindow != 4*24*time.Hour {
		t.Errorf("expected a 4 day window, got %v", matching.DuplicateWindow)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtoreceipts.yaml")
	content := `documents_dir: /data/receipts
workers: 8
include_text_files: true
transaction_columns:
  vehicle_no: Registration
  amount: Paid
date_formats:
  - "02/01/2006"
duplicate_window_days: 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DocumentsDir != "/data/receipts" || cfg.Workers != 8 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.TransactionColumns.VehicleNo != "Registration" || cfg.TransactionColumns.Amount != "Paid" {
		t.Errorf("column overrides not applied: %+v", cfg.TransactionColumns)
	}
	if cfg.TransactionColumns.ChassisNo != "Chassis Number" {
		t.Errorf("unset column should keep its default, got %q", cfg.TransactionColumns.ChassisNo)
	}

	matching := cfg.CreateMatchingConfig()
	if len(matching.DateLayouts) != 1 || matching.DateLayouts[0] != "02/01/2006" {
		t.Errorf("expected configured layouts, got %v", matching.DateLayouts)
	}
	if matching.DuplicateWindow != 48*time.Hour {
		t.Errorf("expected a 2 day window, got %v", matching.DuplicateWindow)
	}

	batch := cfg.CreateBatchConfig()
	if batch.Workers != 8 || len(batch.Extensions) != 2 || batch.Extensions[1] != ".txt" {
		t.Errorf("unexpected batch config %+v", batch)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  interface{}
		wantOK bool
	}{
		{"defaults", "", nil, true},
		{"zero workers", "workers", 0, false},
		{"zero window", "duplicate_window_days", 0, false},
		{"bad output format", "output_format", "xml", false},
		{"json output", "output_format", "json", true},
		{"layout without reference components", "date_formats", []string{"dd-mm-yyyy"}, false},
		{"blank column", "transaction_columns.amount", " ", false},
		{"bad log level", "log_level", "loud", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			if tt.key != "" {
				v.Set(tt.key, tt.value)
			}

			_, err := Load(v)
			if tt.wantOK && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.wantOK {
				appErr, ok := errors.AsReconcilerError(err)
				if !ok {
					t.Fatalf("expected configuration error, got %v", err)
				}
				if appErr.Category != errors.CategoryConfiguration {
					t.Errorf("expected configuration category, got %s", appErr.Category)
				}
			}
		})
	}
}

func TestRequirePaths(t *testing.T) {
	cfg, err := Load(newViper())
	if err != nil {
		t.Fatal(err)
	}

	if err := cfg.RequirePaths("extraction_log", "summary_file"); err != nil {
		t.Errorf("defaults should satisfy paths: %v", err)
	}

	cfg.SummaryFile = "  "
	err = cfg.RequirePaths("extraction_log", "summary_file")
	appErr, ok := errors.AsReconcilerError(err)
	if !ok || appErr.Code != errors.CodeMissingConfig {
		t.Fatalf("expected missing config error, got %v", err)
	}
}

func TestCreateReportConfig(t *testing.T) {
	cfg, err := Load(newViper())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		format string
		want   reporter.OutputFormat
	}{
		{"json", reporter.FormatJSON},
		{"csv", reporter.FormatCSV},
		{"console", reporter.FormatConsole},
		{"", reporter.FormatConsole},
	}
	for _, tt := range tests {
		rc := cfg.CreateReportConfig(tt.format)
		if rc.Format != tt.want {
			t.Errorf("format %q: expected %s, got %s", tt.format, tt.want, rc.Format)
		}
		if err := rc.Validate(); err != nil {
			t.Errorf("format %q: invalid report config: %v", tt.format, err)
		}
	}

	if cfg.CreateReportConfig("json").MaxListItems != 0 {
		t.Error("json output should list every missing transaction")
	}
}

func TestCreateLoggerConfig(t *testing.T) {
	cfg, err := Load(newViper())
	if err != nil {
		t.Fatal(err)
	}

	if lc := cfg.CreateLoggerConfig(false); lc.Level != logger.InfoLevel {
		t.Errorf("expected info level, got %s", lc.Level)
	}
	if lc := cfg.CreateLoggerConfig(true); lc.Level != logger.DebugLevel || !lc.CallerInfo {
		t.Errorf("verbose should force debug with caller info, got %+v", lc)
	}

	cfg.LogFile = filepath.Join(t.TempDir(), "run.log")
	if lc := cfg.CreateLoggerConfig(false); lc.Output != logger.FileOutput || lc.File != cfg.LogFile {
		t.Errorf("expected file output, got %+v", lc)
	}
}
