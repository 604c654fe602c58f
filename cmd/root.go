/*
	Copyright 2023 Markus Papenbrock
*/

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mpapenbr/pitstrategy/log"
	botCmd "github.com/mpapenbr/pitstrategy/pkg/cmd/bot"
	calcCmd "github.com/mpapenbr/pitstrategy/pkg/cmd/calc"
	clientCmd "github.com/mpapenbr/pitstrategy/pkg/cmd/client"
	migrateCmd "github.com/mpapenbr/pitstrategy/pkg/cmd/migrate"
	serverCmd "github.com/mpapenbr/pitstrategy/pkg/cmd/server"
	"github.com/mpapenbr/pitstrategy/pkg/config"
	"github.com/mpapenbr/pitstrategy/version"
)

const envPrefix = "PST"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "pitstrategy",
	Short:   "Pit stop and fuel strategy calculator for endurance races",
	Long:    ``,
	Version: version.FullVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.pitstrategy.yml)")

	rootCmd.PersistentFlags().StringVar(&config.DB, "db",
		"pitstrategy.db",
		"Plan history storage (postgresql://... or a sqlite file)")
	rootCmd.PersistentFlags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for other services to be ready")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (text, json)")
	rootCmd.PersistentFlags().StringSliceVar(&config.LogFilter,
		"log-filter",
		[]string{},
		"zapfilter rules, for example \"*:* -debug:sql*\"")

	// add commands here
	rootCmd.AddCommand(calcCmd.NewCalcCmd())
	rootCmd.AddCommand(serverCmd.NewServerCmd())
	rootCmd.AddCommand(botCmd.NewBotCmd())
	rootCmd.AddCommand(migrateCmd.NewMigrateCmd())
	rootCmd.AddCommand(clientCmd.NewClientCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pitstrategy" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pitstrategy")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to PST_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			if err := applyValue(cmd.Flags(), f, v.Get(f.Name)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
	for _, sub := range cmd.Commands() {
		bindFlags(sub, v)
	}
}

// slice values from config files are applied element-wise
func applyValue(flags *pflag.FlagSet, f *pflag.Flag, val any) error {
	if items, ok := val.([]any); ok {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			s := make([]string, len(items))
			for i := range items {
				s[i] = fmt.Sprintf("%v", items[i])
			}
			return sv.Replace(s)
		}
	}
	return flags.Set(f.Name, fmt.Sprintf("%v", val))
}

func setupLogger() error {
	level := parseLogLevel(config.LogLevel, log.InfoLevel)
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	if len(config.LogFilter) > 0 {
		filter, err := log.WithFilter(strings.Join(config.LogFilter, " "))
		if err != nil {
			return fmt.Errorf("invalid log filter: %w", err)
		}
		opts = append(opts, filter)
	}
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(os.Stderr, level, opts...)
	default:
		logger = log.DevLogger(os.Stderr, level, opts...)
	}
	log.ResetDefault(logger)
	return nil
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}
