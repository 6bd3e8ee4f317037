// Package cli implements the eddist-go command-line entrypoint: the
// cobra root command plus the serve and migrate subcommands.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "eddist-go",
	Short: "A bbs.cgi-compatible bulletin board server",
	Long: `eddist-go serves a legacy bbs.cgi-compatible write/read protocol
over a modern Go HTTP stack: SQLite storage, in-memory rate limiting,
Redis-backed realtime fan-out, and WASM plugin hooks.

Start the server:
  eddist-go serve

Apply pending database migrations:
  eddist-go migrate`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./eddist.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("eddist")
	}

	viper.SetEnvPrefix("EDDIST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			log.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
		}
	}
}

func setupLogging() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}
