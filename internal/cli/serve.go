package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stochfold/internal/server"
	"github.com/matzehuels/stochfold/pkg/store"
)

const defaultAddr = ":8080"

// serveCommand creates the HTTP API command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sampling API over HTTP",
		Long: `Serve the sampling API over HTTP. Runs are stored in MongoDB when
[store] mongo_uri is configured and in memory otherwise. Tables are cached
in Redis when [cache] redis_addr is configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") && c.Config.Server.Addr != "" {
				addr = c.Config.Server.Addr
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			metrics := server.NewMetrics(nil)
			metrics.Install()
			return server.New(runner, st, metrics, c.Logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the table cache")
	return cmd
}

// newStore opens the configured run store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg := c.Config.Store
	if cfg.MongoURI == "" {
		return store.NewMemoryStore(), nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db := cfg.Database
	if db == "" {
		db = appName
	}
	st, err := store.NewMongoStore(connectCtx, cfg.MongoURI, db, cfg.Collection)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("storing runs in mongodb", "database", db)
	return st, nil
}
