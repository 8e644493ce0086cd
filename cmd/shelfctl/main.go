// shelfctl is a command-line client for a toolshelf server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/toolshelf/internal/client"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/reconcile"
	"github.com/MrSnakeDoc/toolshelf/internal/version"
)

var _ reconcile.Remote = (*client.Client)(nil)

type options struct {
	server  string
	timeout time.Duration
	json    bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "shelfctl",
		Short: "Manage a toolshelf catalog from the command line",
		Long: `shelfctl talks to a toolshelf server over its REST API.

Mutations are applied to a local copy first and rolled back when the
server rejects them.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("TOOLSHELF_URL")
	if server == "" {
		server = "http://localhost:8080"
	}
	root.PersistentFlags().StringVarP(&opts.server, "server", "s", server, "Server URL (or set TOOLSHELF_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "Overall timeout per command")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "Print JSON instead of tables")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newCategoriesCmd(opts),
		newToolsCmd(opts),
		newCollectionsCmd(opts),
	)
	return root
}

// session is the per-command client state.
type session struct {
	opts   *options
	client *client.Client
	logger logger.Logger
}

func (o *options) session() (*session, error) {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	log := logger.New(level, true)
	c, err := client.New(client.Options{BaseURL: o.server, Timeout: o.timeout}, log)
	if err != nil {
		return nil, err
	}
	return &session{opts: o, client: c, logger: log}, nil
}

// reconciler returns a reconciler loaded with the server's catalog.
func (s *session) reconciler(ctx context.Context) (*reconcile.Reconciler, error) {
	r := reconcile.New(s.client, s.logger)
	if err := r.Load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
