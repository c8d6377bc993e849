// Package commands is the kiosk command line.
package commands

import (
	"fmt"

	"kiosk/app"
	"kiosk/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cli carries the flags and the lazily opened client shared by every command.
type cli struct {
	cfgPath   string
	verbose   bool
	ephemeral bool

	opts   []app.Option
	cfg    *config.Config
	logger *zap.Logger
	app    *app.App
}

// NewRoot builds the kiosk command tree. opts are passed to app.Open.
func NewRoot(opts ...app.Option) *cobra.Command {
	c := &cli{opts: opts}

	root := &cobra.Command{
		Use:   "kiosk",
		Short: "Marketplace client: sessions, shops, carts and chat",
		Long: `kiosk talks to a marketplace API as a customer, seller or admin.

The session token is kept between runs in the configured storage backend
(a file by default). Use --ephemeral to keep it in memory for one command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.cfgPath)
			if err != nil {
				return err
			}
			if c.ephemeral {
				cfg.Storage.Backend = config.BackendMemory
			}
			c.cfg = cfg

			zc := zap.NewProductionConfig()
			level, err := zapcore.ParseLevel(cfg.Log.Level)
			if err != nil {
				level = zapcore.InfoLevel
			}
			if c.verbose {
				level = zapcore.DebugLevel
			}
			zc.Level = zap.NewAtomicLevelAt(level)
			if c.logger, err = zc.Build(); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if c.app != nil {
				err = c.app.Close()
				c.app = nil
			}
			if c.logger != nil {
				_ = c.logger.Sync()
			}
			return err
		},
	}

	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "config file (default: user config dir)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&c.ephemeral, "ephemeral", false, "keep the session in memory only")

	addAuthCommands(root, c)
	addProfileCommands(root, c)
	addShopCommands(root, c)
	addCartCommands(root, c)
	addFollowCommands(root, c)
	addChatCommands(root, c)
	addGeoCommands(root, c)
	addPayCommands(root, c)
	addCheckCommands(root, c)

	return root
}

// client opens the app on first use.
func (c *cli) client(cmd *cobra.Command) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := app.Open(cmd.Context(), c.cfg, c.logger, c.opts...)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}
