// Package app wires configured backends into the retrieval service.
// Both the HTTP server and the CLI build their object graph through Build.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrank/internal/config"
	"github.com/kailas-cloud/docrank/internal/engine"
	"github.com/kailas-cloud/docrank/internal/engine/elastic"
	"github.com/kailas-cloud/docrank/internal/engine/redis"
	documentrepo "github.com/kailas-cloud/docrank/internal/repository/document"
	searchrepo "github.com/kailas-cloud/docrank/internal/repository/search"
	batchuc "github.com/kailas-cloud/docrank/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/docrank/internal/usecase/health"
	"github.com/kailas-cloud/docrank/internal/usecase/retrieval"
)

// BackendSQLite labels the document store in metrics and logs.
const BackendSQLite = "sqlite"

// App holds the wired components of one docrank process.
type App struct {
	Retrieval *retrieval.Service
	Health    *healthuc.Service
	Search    *searchrepo.Repo
	// Documents is nil when documents.path is not configured.
	Documents *documentrepo.Repo
}

// Build opens the document store and the search engine described by cfg and
// composes the retrieval service on top of them. On error every backend opened
// so far is closed.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	eng, err := newEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Engine.ReadinessTimeout) * time.Second
	if err := eng.WaitForReady(ctx, timeout); err != nil {
		eng.Close()
		return nil, fmt.Errorf("engine not ready: %w", err)
	}
	logger.Info("Connected to search engine",
		zap.String("driver", cfg.Engine.Driver),
		zap.Strings("addrs", cfg.Engine.Addrs),
	)

	search, err := searchrepo.New(eng, searchrepo.Config{
		Index:         cfg.Search.Index,
		Fields:        cfg.Search.Fields,
		IDField:       cfg.Search.IDField,
		ContentField:  cfg.Search.ContentField,
		MetadataField: cfg.Search.MetadataField,
		Strict:        cfg.Search.Strict,
		FoldCase:      cfg.Documents.FoldCase,
	})
	if err != nil {
		eng.Close()
		return nil, fmt.Errorf("search repository: %w", err)
	}

	a := &App{Search: search}

	if cfg.Documents.Path != "" {
		a.Documents, err = documentrepo.Open(ctx, documentrepo.Config{
			Path:     cfg.Documents.Path,
			FoldCase: cfg.Documents.FoldCase,
		})
		if err != nil {
			_ = search.Close()
			return nil, fmt.Errorf("document store: %w", err)
		}
		logger.Info("Opened document store", zap.String("path", cfg.Documents.Path))
	}

	var (
		docs    retrieval.DocumentReader = search
		backend                          = cfg.Engine.Driver
	)
	if cfg.Search.TextSource == config.TextSourceStore {
		if a.Documents == nil {
			_ = a.Close()
			return nil, fmt.Errorf("text source %q requires documents.path", config.TextSourceStore)
		}
		docs, backend = a.Documents, BackendSQLite
	}

	dispatcher := batchuc.New(search)
	a.Retrieval = retrieval.New(search, dispatcher, docs, retrieval.Backends{
		Ranker:    cfg.Engine.Driver,
		Documents: backend,
	}).
		WithDefaultK(cfg.Search.DefaultK).
		WithWorkers(cfg.Search.Workers)

	components := []healthuc.Component{{Name: "engine", Pinger: search}}
	if a.Documents != nil {
		components = append(components, healthuc.Component{Name: "documents", Pinger: a.Documents})
	}
	a.Health = healthuc.New(components...).
		WithTimeout(time.Duration(cfg.HTTP.HealthSec) * time.Second)

	return a, nil
}

// Close releases every backend. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	if a.Search != nil {
		errs = append(errs, a.Search.Close())
	}
	if a.Documents != nil {
		errs = append(errs, a.Documents.Close())
	}
	return errors.Join(errs...)
}

func newEngine(cfg config.EngineConfig) (engine.Engine, error) {
	switch cfg.Driver {
	case config.DriverElastic:
		s, err := elastic.NewStore(elastic.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			APIKey:   cfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("elastic store: %w", err)
		}
		return s, nil
	case config.DriverRedis:
		s, err := redis.NewStore(redis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown engine driver %q", cfg.Driver)
	}
}
