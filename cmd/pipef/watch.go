package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/zerologr"
	"github.com/spf13/cobra"

	"github.com/pipef/pipef"
	"github.com/pipef/pipef/nodes"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Print filesystem change events for the given paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		paths := args
		if len(paths) == 0 {
			paths = cfg.Watch.Paths
		}
		if len(paths) == 0 {
			return fmt.Errorf("no paths to watch")
		}
		if watchInterval == 0 {
			watchInterval = cfg.Watch.TickInterval
		}
		if watchInterval == 0 {
			watchInterval = 100 * time.Millisecond
		}

		e := pipef.New(pipef.WithLogger(zerologr.New(&log)))

		src, err := pipef.AddSource[fsnotify.Event](e, "fs-events", nodes.NewWatchSource(paths...))
		if err != nil {
			return err
		}
		sink, err := pipef.AddSink[fsnotify.Event](e, "print", nodes.NewPrintSink[fsnotify.Event](os.Stdout))
		if err != nil {
			return err
		}
		if err := pipef.Connect[fsnotify.Event](src, sink); err != nil {
			return err
		}

		go func() {
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			<-c
			e.Stop()
		}()

		log.Info().Strs("paths", paths).Msg("watching")
		return e.Run(cmd.Context(), pipef.WithTickInterval(watchInterval))
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "tick-interval", 0, "pause between ticks")
}
