// Command scribe transcribes audio files and microphone recordings through
// a speech-to-text backend, and can run that backend locally.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags.
var Version = "dev"

const (
	flagConfig   = "config"
	flagVerbose  = "verbose"
	flagURL      = "url"
	flagSaveURL  = "save-url"
	flagLogLevel = "log-level"
	flagEnvFile  = "env-file"
)

var rootCmd = &cobra.Command{
	Use:           "scribe",
	Short:         "Speech capture and transcription client",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `scribe sends audio files or microphone recordings to a transcription
endpoint, shows the returned text and summary, and can save the result.

Settings come from a ScribeConfig manifest (--config), SCRIBE_* environment
variables (also read from a .env file) and flags, in increasing precedence.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadSettings(cmd)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP(flagConfig, "c", "", "ScribeConfig manifest path")
	flags.String(flagEnvFile, ".env", "dotenv file loaded before reading the environment")
	flags.String(flagURL, "", "transcription base URL (default http://localhost:8080)")
	flags.String(flagSaveURL, "", "save base URL (defaults to --url)")
	flags.String(flagLogLevel, "", "log level: trace, debug, info, warn, error")
	flags.BoolP(flagVerbose, "v", false, "enable debug logging")

	for _, name := range []string{flagConfig, flagEnvFile, flagURL, flagSaveURL, flagLogLevel, flagVerbose} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(uploadCmd, recordCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+describeError(err)))
		}
		os.Exit(1)
	}
}
