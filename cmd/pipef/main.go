package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pipef",
	Short: "Run prebuilt pipef pipelines",
	Long: `pipef runs a few ready-made dataflow pipelines: a TCP responder
serving a static payload and a filesystem watcher printing change
events. Both are wired from the same building blocks the library
exports.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		zerologr.NameFieldName = "logger"
		zerologr.NameSeparator = "/"
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02T15:04:05.000Z07:00"}
		log = zerolog.New(output).Level(level).With().Timestamp().Logger()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(respondCmd)
	rootCmd.AddCommand(watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
