package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/zerologr"
	"github.com/spf13/cobra"

	"github.com/pipef/pipef"
	"github.com/pipef/pipef/nodes"
)

var (
	respondAddr     string
	respondFile     string
	respondInterval time.Duration
)

var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Serve a static payload to every TCP connection",
	Long: `respond answers every TCP connection with an HTTP response
carrying the contents of a file. The pipeline is

  tcp source -> request logger -> response builder -> tcp sink

and runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		if respondAddr == "" {
			respondAddr = cfg.Respond.Addr
		}
		if respondAddr == "" {
			respondAddr = ":8080"
		}
		if respondFile == "" {
			respondFile = cfg.Respond.File
		}
		if respondInterval == 0 {
			respondInterval = cfg.Respond.TickInterval
		}
		if respondInterval == 0 {
			respondInterval = 100 * time.Millisecond
		}

		body := []byte("<html><body>pipef</body></html>\n")
		if respondFile != "" {
			body, err = os.ReadFile(respondFile)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
		}

		e := pipef.New(pipef.WithLogger(zerologr.New(&log)))

		tcpSrc := nodes.NewTCPSource(respondAddr)
		src, err := pipef.AddSource[*nodes.Exchange](e, "tcp-in", tcpSrc)
		if err != nil {
			return err
		}
		logged, err := pipef.AddMap(e, "log-request", func(ex *nodes.Exchange) *nodes.Exchange {
			log.Info().
				Str("remote", ex.Conn.RemoteAddr().String()).
				Int("bytes", len(ex.Data)).
				Msg("request")
			return ex
		})
		if err != nil {
			return err
		}
		respond, err := pipef.AddMap(e, "build-response", func(ex *nodes.Exchange) *nodes.Exchange {
			ex.Data = []byte(fmt.Sprintf(
				"HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
				len(body), body))
			return ex
		})
		if err != nil {
			return err
		}
		sink, err := pipef.AddSink[*nodes.Exchange](e, "tcp-out", nodes.NewTCPSink())
		if err != nil {
			return err
		}

		if err := pipef.Connect[*nodes.Exchange](src, logged); err != nil {
			return err
		}
		if err := pipef.Connect[*nodes.Exchange](logged, respond); err != nil {
			return err
		}
		if err := pipef.Connect[*nodes.Exchange](respond, sink); err != nil {
			return err
		}

		go func() {
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			<-c
			log.Info().Msg("shutting down")
			e.Stop()
		}()

		log.Info().Str("addr", respondAddr).Msg("listening")
		return e.Run(cmd.Context(), pipef.WithTickInterval(respondInterval))
	},
}

func init() {
	respondCmd.Flags().StringVar(&respondAddr, "addr", "", "listen address (default :8080)")
	respondCmd.Flags().StringVar(&respondFile, "file", "", "file served as the response body")
	respondCmd.Flags().DurationVar(&respondInterval, "tick-interval", 0, "pause between ticks")
}
