package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"redislite/internal/server"
)

func main() {
	log := logrus.New()
	cfg := server.DefaultConfig()

	root := &cobra.Command{
		Use:   "redislite",
		Short: "A Redis-compatible server with a minimal replication protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, log)
		},
	}

	root.Flags().IntVar(&cfg.Port, "port", cfg.Port, "TCP port to listen on")
	root.Flags().StringVar(&cfg.ReplicaOf, "replicaof", "", "replicate from \"host port\" instead of running as a primary")
	root.Flags().StringVar(&cfg.DirPath, "dir", cfg.DirPath, "directory the RDB snapshot is read from at startup")
	root.Flags().StringVar(&cfg.DBFile, "dbfilename", cfg.DBFile, "RDB snapshot filename within --dir")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		log.WithError(err).Fatal("server exited with error")
	}
}

func run(ctx context.Context, cfg *server.Config, log *logrus.Logger) error {
	entry := log.WithField("role", cfg.Role())
	srv := server.New(cfg, entry)
	return srv.Run(ctx)
}
