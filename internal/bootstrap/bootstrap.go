package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	rediscache "github.com/PabloGalante/idefend/internal/adapters/cache/redis"
	httpadapter "github.com/PabloGalante/idefend/internal/adapters/http"
	"github.com/PabloGalante/idefend/internal/adapters/llm"
	"github.com/PabloGalante/idefend/internal/adapters/news"
	firestorestore "github.com/PabloGalante/idefend/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/idefend/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/idefend/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/idefend/internal/app/articles"
	"github.com/PabloGalante/idefend/internal/app/conversation"
	"github.com/PabloGalante/idefend/internal/app/profile"
	"github.com/PabloGalante/idefend/internal/config"
	"github.com/PabloGalante/idefend/internal/domain"
	"github.com/PabloGalante/idefend/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// App holds the services built from a Config.
type App struct {
	Catalog      *domain.Catalog
	Conversation *conversation.Service
	Articles     *articles.Service // nil without a NewsAPI key
	Profiles     *profile.Service

	closers []io.Closer
}

// Build wires providers, stores and services for cfg.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	log := observability.Logger()
	app := &App{}

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	app.Catalog = catalog

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app.Conversation = conversation.NewService(provider, catalog, memstore.NewSessionStore[*conversation.Session]())

	profiles, err := app.newProfileStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Profiles = profile.NewService(profiles, profile.Options{AllowDemoSignIn: cfg.AllowDemoSignIn})

	if cfg.NewsAPIKey != "" {
		var source domain.ArticleSource = news.NewClient(news.Config{
			APIKey:  cfg.NewsAPIKey,
			BaseURL: cfg.NewsBaseURL,
		})
		if cfg.RedisAddr != "" {
			client, err := rediscache.NewClient(ctx, rediscache.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err != nil {
				log.Warnw("redis unavailable, article cache disabled", "addr", cfg.RedisAddr, "error", err)
			} else {
				log.Infow("article cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ArticleCacheTTL)
				app.closers = append(app.closers, client)
				source = rediscache.NewCachedSource(client, source, rediscache.DefaultPrefix, cfg.ArticleCacheTTL)
			}
		}
		app.Articles = articles.NewService(source, catalog)
	} else {
		log.Infow("no news api key, article feed disabled")
	}

	return app, nil
}

func newProvider(ctx context.Context, cfg *config.Config) (domain.Provider, error) {
	log := observability.Logger()

	switch cfg.Provider {
	case config.ProviderMock:
		log.Infow("using mock provider")
		return llm.NewMockLLM(), nil
	case config.ProviderGenAI:
		log.Infow("using genai provider", "model", cfg.GeminiModel, "vertex", cfg.UseVertex)
		client, err := llm.NewGenAIClient(ctx, llm.GenAIConfig{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiModel,
			Vertex:   cfg.UseVertex,
			Project:  cfg.GCPProjectID,
			Location: cfg.GCPLocation,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing genai provider: %w", err)
		}
		return client, nil
	default:
		log.Infow("using gemini REST provider", "model", cfg.GeminiModel)
		return llm.NewGeminiClient(llm.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			Timeout: cfg.ProviderTimeout,
		}), nil
	}
}

func (a *App) newProfileStore(ctx context.Context, cfg *config.Config) (domain.ProfileStore, error) {
	log := observability.Logger()

	switch cfg.ProfileBackend {
	case config.BackendFirestore:
		log.Infow("using firestore profile store", "project", cfg.GCPProjectID)
		var opts []option.ClientOption
		if cfg.GCPCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsFile))
		}
		store, err := firestorestore.NewStore(ctx, cfg.GCPProjectID, opts...)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	case config.BackendSQLite:
		log.Infow("using sqlite profile store", "path", cfg.SQLitePath)
		store, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		log.Infow("using in-memory profile store")
		return memstore.NewProfileStore(), nil
	}
}

// Close releases store and cache connections.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			observability.Logger().Warnw("close failed", "error", err)
		}
	}
	a.closers = nil
}

// Handler returns the HTTP API for the app.
func (a *App) Handler() *echo.Echo {
	return httpadapter.NewServer(a.Conversation, a.Articles, a.Profiles)
}

// Serve runs the HTTP API on port until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context, port string) error {
	e := a.Handler()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		observability.Logger().Infow("IDefend API listening", "port", port)
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		observability.Logger().Infow("shutting down")
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
