package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"rto-receipt-reconciler/cmd/rtoreceipts/config"
	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

const envPrefix = "RTORECEIPTS"

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	// appConfig is loaded once per invocation by loadConfig.
	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rtoreceipts",
	Short: "RTO receipt extraction and reconciliation tool",
	Long: `rtoreceipts reads RTO portal receipts (MV tax, national permit, permit
renewal and new registration), logs the fields it can extract, and checks
the payment transaction log against the receipts the portal issued.

Examples:
  rtoreceipts extract --dir receipts --log rto_receipts_log.xlsx
  rtoreceipts summarize --log rto_receipts_log.xlsx --summary summary.xlsx
  rtoreceipts reconcile --transactions OTP_transaction_list.xlsx --summary summary.xlsx
  rtoreceipts check-duplicate --vehicle MH12AB1234 --payment-type Tax --rto-amount 4500 --bank-amount 4510`,
	Version:       getVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json")
	rootCmd.PersistentFlags().String("output-format", "", "summary output format: console, json, csv")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// loadConfig binds the running command's flags onto config keys, reads the
// config file if one was given, and installs the global logger. Flags are
// bound here rather than in init because several commands expose the same
// key under their own flag.
func loadConfig(cmd *cobra.Command, flagKeys map[string]string) error {
	flagKeys["log_level"] = "log-level"
	flagKeys["log_format"] = "log-format"
	flagKeys["output_format"] = "output-format"

	for key, name := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return errors.InternalError(errors.CodeUnexpectedError, "bind flags", fmt.Errorf("unknown flag --%s", name))
		}
		if err := bindIfChanged(key, flag); err != nil {
			return err
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "config", cfgFile, err).
				WithSuggestion("check the config file path and syntax")
		}
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.CreateLoggerConfig(verbose))
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "logging", cfg.LogLevel, err)
	}
	logger.SetGlobalLogger(log)
	if cfgFile != "" {
		log.WithField("config_file", viper.ConfigFileUsed()).Debug("Using config file")
	}

	appConfig = cfg
	return nil
}

// bindIfChanged lets an explicitly set flag override config and env, while
// an untouched flag leaves the key alone so its default still comes from
// SetDefaults.
func bindIfChanged(key string, flag *pflag.Flag) error {
	if !flag.Changed {
		return nil
	}
	return viper.BindPFlag(key, flag)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
