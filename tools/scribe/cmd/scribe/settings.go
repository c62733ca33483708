package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ErVarunGupta/Streaming-App/pkg/config"
	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
)

// settings is the configuration resolved by the root command.
var settings *config.ScribeConfig

// loadSettings layers manifest, environment and flags, then configures logging.
func loadSettings(_ *cobra.Command) error {
	cfg, err := resolveSettings(os.LookupEnv)
	if err != nil {
		return err
	}
	if viper.GetBool(flagVerbose) {
		cfg.Spec.Logging.DefaultLevel = config.LogLevelDebug
	}
	if err := logger.Configure(cfg.Spec.Logging.LoggerSpec()); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	settings = cfg
	return nil
}

func resolveSettings(lookup func(string) (string, bool)) (*config.ScribeConfig, error) {
	if path := viper.GetString(flagEnvFile); path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	cfg, err := config.Load(viper.GetString(flagConfig))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	if viper.IsSet(flagURL) {
		cfg.Spec.Endpoints.TranscriptionURL = viper.GetString(flagURL)
	}
	if viper.IsSet(flagSaveURL) {
		cfg.Spec.Endpoints.SaveURL = viper.GetString(flagSaveURL)
	}
	if viper.IsSet(flagLogLevel) {
		cfg.Spec.Logging.DefaultLevel = viper.GetString(flagLogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
