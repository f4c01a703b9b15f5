package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/AlfredBerg/regsido/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.regsido.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error.")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format: json or console.")
	cobra.CheckErr(viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format")))
}

// initConfig reads in a .env file, the config file and ENV variables if set.
func initConfig() {
	// Values already in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Failed reading .env:", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".regsido" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".regsido")
	}

	config.SetDefaults(viper.GetViper())
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

var rootCmd = &cobra.Command{
	Use:   "regsido",
	Short: "Vehicle registration dashboard and carmaker FAQ scrapers",
	Long: `regsido serves the CAR_REGIST_SIDO registration statistics as a filtered
dashboard and scrapes the Hyundai and Kia FAQ pages into the faq table.

Database credentials come from DB_HOST, DB_USER, DB_PASSWORD and DB_NAME,
read from the environment or a .env file in the working directory.`,
	SilenceUsage: true,
}

// setup validates the configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
