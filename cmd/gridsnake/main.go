// gridsnake is the authoritative multiplayer snake server. It owns the
// simulation, accepts WebSocket players, and broadcasts state snapshots on a
// fixed cadence. All configuration comes from GRIDSNAKE_* environment
// variables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/anabelle/gridsnake/internal/config"
	"github.com/anabelle/gridsnake/internal/game"
	"github.com/anabelle/gridsnake/internal/server"
	"github.com/anabelle/gridsnake/internal/session"
)

// forceExitAfter is how long a shutdown may drag before the process gives
// up and exits non-zero.
const forceExitAfter = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:           "gridsnake",
		Short:         "authoritative multiplayer snake server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("server exited")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// If the drain hangs past the grace window, exit hard.
	go func() {
		<-ctx.Done()
		log.Info("shutdown requested")
		time.Sleep(forceExitAfter)
		log.Error("shutdown timed out, forcing exit")
		os.Exit(1)
	}()

	engine := game.NewEngine(cfg.Rules(), log)
	initial := game.NewState(game.GridSize{Width: cfg.GridWidth, Height: cfg.GridHeight}, cfg.Seed)
	manager := session.NewManager(engine, initial, cfg.TickPeriod, log)

	return server.New(cfg, log, manager).Run(ctx)
}
