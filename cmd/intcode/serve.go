package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/intcode/server"
)

func (a *app) newServeCmd() *cobra.Command {
	var (
		addr          string
		sessionTTL    time.Duration
		sweepInterval time.Duration
		maxSessions   int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host IntCode sessions over Connect (JSON and CBOR)",
		Example: `  intcode serve --addr :4567
  curl -H 'Content-Type: application/json' -d '{"program":"104,7,99"}' \
    http://localhost:4567/intcode.v1.MachineService/CreateSession`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.manifest.Server
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Addr
			}
			if !cmd.Flags().Changed("session-ttl") {
				sessionTTL = cfg.SessionTTL.Duration
			}
			if !cmd.Flags().Changed("sweep-interval") {
				sweepInterval = cfg.SweepInterval.Duration
			}

			srv := server.New(
				server.WithSessionTTL(sessionTTL),
				server.WithSweepInterval(sweepInterval),
				server.WithMaxSessions(maxSessions),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe(addr) }()

			select {
			case err := <-errc:
				srv.Stop()
				return err
			case <-ctx.Done():
				log.Notice("shutting down")
				srv.Stop()
				return <-errc
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: [server] addr)")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", 0, "Idle time before a session is swept (default: [server] session-ttl)")
	cmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 0, "How often idle sessions are swept (default: [server] sweep-interval)")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "Maximum live sessions, 0 for no limit")
	return cmd
}
