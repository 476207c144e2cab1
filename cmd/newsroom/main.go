package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"newsroom/internal/app"
	"newsroom/internal/config"
	"newsroom/internal/newsroom"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(openFromEnv).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// session is the service opened for one CLI invocation.
type session struct {
	svc   *newsroom.Service
	log   *slog.Logger
	close func() error
}

type opener func(ctx context.Context) (*session, error)

func openFromEnv(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := app.NewLogger(cfg.LogLevel)
	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &session{svc: a.Service, log: log, close: a.Close}, nil
}

type cli struct {
	open     opener
	password string
	svc      *newsroom.Service
	log      *slog.Logger
	closeFn  func() error
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:           "newsroom",
		Short:         "Daily news briefings from RSS feeds",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			c.svc, c.log, c.closeFn = sess.svc, sess.log, sess.close
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.closeFn != nil {
				return c.closeFn()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.password, "password", "", "admin password (default: $ADMIN_PASSWORD)")

	root.AddCommand(c.feedsCmd())
	root.AddCommand(c.generateCmd())
	root.AddCommand(c.archiveCmd())
	root.AddCommand(c.statsCmd())
	root.AddCommand(c.modelsCmd())
	root.AddCommand(c.serveCmd())
	return root
}

// admin checks the --password flag, falling back to ADMIN_PASSWORD.
func (c *cli) admin() error {
	pw := c.password
	if pw == "" {
		pw = os.Getenv("ADMIN_PASSWORD")
	}
	if err := c.svc.Authorize(pw); err != nil {
		return fmt.Errorf("admin command: %w", err)
	}
	return nil
}

// adminRun wraps run so that it only executes for an authorized operator.
func (c *cli) adminRun(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := c.admin(); err != nil {
			return err
		}
		return run(cmd, args)
	}
}
