// Command bloodconnect-admin is the operator CLI: it creates administrator
// accounts, exports the donor directory and lists recent emergency requests
// against the same MongoDB database the web server uses.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// cli holds what every command needs. Tests set db directly and skip connect.
type cli struct {
	cfg    cliConfig
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger

	in  io.Reader
	out io.Writer
}

func main() {
	c := &cli{in: os.Stdin, out: os.Stdout}
	if err := newRootCmd(c).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "bloodconnect-admin",
		Short:         "BloodConnect operator tools",
		Long:          `Create administrators, export the donor directory and review emergency requests.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.log == nil {
				var err error
				if c.log, err = newLogger(verbose); err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
			}
			if c.db != nil {
				return nil
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			return c.connect(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.client != nil {
				_ = c.client.Disconnect(context.Background())
			}
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: environment only)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(createAdminCmd(c))
	root.AddCommand(exportDonorsCmd(c))
	root.AddCommand(listEmergenciesCmd(c))
	return root
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func (c *cli) connect(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(c.cfg.MongoURI).SetAppName("bloodconnect-admin"))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongo ping: %w", err)
	}
	c.client = client
	c.db = client.Database(c.cfg.MongoDatabase)
	c.log.Debug("connected to MongoDB", zap.String("database", c.cfg.MongoDatabase))
	return nil
}
