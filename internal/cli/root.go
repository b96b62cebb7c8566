// Package cli implements docrankctl, a terminal client over the retrieval service.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docrank/internal/app"
	"github.com/kailas-cloud/docrank/internal/config"
	"github.com/kailas-cloud/docrank/internal/domain"
	logpkg "github.com/kailas-cloud/docrank/internal/logger"
)

// Service is the part of the retrieval service the commands use.
type Service interface {
	DocIDs(ctx context.Context) ([]string, error)
	Document(ctx context.Context, id string) (domain.Document, error)
	Metadata(ctx context.Context, id string) (domain.Metadata, error)
	Search(ctx context.Context, query string, k int) (domain.Ranking, error)
	Highlight(ctx context.Context, query string, k int, tag string) (domain.Answers, error)
	SearchBatch(ctx context.Context, queries []string, k, workers int) ([]domain.Ranking, error)
}

// Opener connects to the configured backends. The returned Closer releases them.
type Opener func(ctx context.Context, cfg config.Config, logger *zap.Logger) (Service, io.Closer, error)

// OpenApp is the production Opener.
func OpenApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (Service, io.Closer, error) {
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a.Retrieval, a, nil
}

type rootOptions struct {
	configPath string
	env        string
	logLevel   string
	open       Opener
}

// NewRootCommand builds the docrankctl command tree.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &rootOptions{open: open}

	root := &cobra.Command{
		Use:   "docrankctl",
		Short: "Query the docrank document store and search ranker",
		Long: `docrankctl reads documents from the SQLite store and ranks them with the
configured search engine (Elasticsearch or Redis).

Example usage:
  docrankctl ids
  docrankctl text "Alan Turing"
  docrankctl search -k 5 "universal machine"
  docrankctl batch --workers 8 queries.txt`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is config/<env>.yaml)")
	root.PersistentFlags().StringVar(&opts.env, "env", "", "environment name (default is $ENV or local)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		newIDsCommand(opts),
		newTextCommand(opts),
		newMetaCommand(opts),
		newSearchCommand(opts),
		newHighlightCommand(opts),
		newBatchCommand(opts),
		newVersionCommand(),
	)
	return root
}

func (o *rootOptions) loadConfig() (config.Config, string, error) {
	env := o.env
	if env == "" {
		env = config.GetEnv()
	}
	if o.configPath != "" {
		cfg, err := config.LoadFile(o.configPath)
		return cfg, env, err
	}
	cfg, err := config.Load(env)
	return cfg, env, err
}

// run opens the backends, calls fn and releases the backends.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, svc Service) error) (err error) {
	cfg, env, err := o.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, o.logLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := logpkg.With(logpkg.ContextWithLogger(cmd.Context(), logger), zap.String("command", cmd.Name()))
	svc, closer, err := o.open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open backends: %w", err)
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close backends: %w", cerr)
		}
	}()

	return fn(ctx, svc)
}
