package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/rfaridh/porto-web/internal/web"
	"github.com/rfaridh/porto-web/pkg/client"
	"github.com/rfaridh/porto-web/pkg/config"
	"github.com/rfaridh/porto-web/pkg/logging"
	"github.com/rfaridh/porto-web/pkg/portfolio"
)

func main() {
	configPath := flag.String("config", os.Getenv("PORTO_CONFIG"), "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// The logger is not configured yet.
		logging.Setup(logging.DefaultConfig())
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// app is the wired program.
type app struct {
	site       *web.Server
	httpServer *http.Server
	redis      *redis.Client
	clients    []*client.Client
}

func (a *app) close() {
	for _, c := range a.clients {
		c.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// build wires clients, sources and the site from a resolved configuration.
func build(ctx context.Context, cfg config.Resolved) (*app, error) {
	a := &app{}

	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := a.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// The site works without the cache; readiness reports it.
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, continuing")
		} else {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
		}
	}

	newClient := func(base string) (*client.Client, error) {
		cc := client.DefaultConfig(base, cfg.Token)
		cc.Redis = a.redis
		cc.UserAgent = cfg.Client.UserAgent
		cc.Timeout = cfg.Client.Timeout
		cc.MaxAttempts = cfg.Client.MaxAttempts
		cc.InitialBackoff = cfg.Client.InitialBackoff

		c, err := client.New(cc)
		if err != nil {
			return nil, err
		}
		a.clients = append(a.clients, c)
		return c, nil
	}

	apiClient, err := newClient(cfg.APIBase)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("content client: %w", err)
	}

	projectsClient := apiClient
	if cfg.ProjectsBase != cfg.APIBase {
		if projectsClient, err = newClient(cfg.ProjectsBase); err != nil {
			a.close()
			return nil, fmt.Errorf("projects client: %w", err)
		}
	}

	locale, err := portfolio.ParseLocale(cfg.DateLocale)
	if err != nil {
		a.close()
		return nil, err
	}
	opts := portfolio.Options{
		Locale:       locale,
		TagDelimiter: cfg.TagDelimiter,
		ImageBase:    cfg.ImageBase,
	}

	a.site, err = web.New(web.Deps{
		Experiences: portfolio.NewExperienceSource(apiClient, opts),
		Projects:    portfolio.NewProjectSource(projectsClient, cfg.ProjectsPaged, opts),
		Redis:       a.redis,
	}, web.Options{
		RenderTimeout:  cfg.Server.RenderTimeout,
		SessionTTL:     cfg.Server.SessionTTL,
		MaxConcurrency: cfg.Client.MaxConcurrency,
		MaxPages:       cfg.Client.MaxPages,
		Footer: web.FooterOptions{
			Owner:      cfg.Footer.Owner,
			SinceYear:  cfg.Footer.SinceYear,
			CreditName: cfg.Footer.CreditName,
			CreditURL:  cfg.Footer.CreditURL,
		},
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.site.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// run serves until ctx ends, then shuts down gracefully.
func run(ctx context.Context, cfg config.Resolved) error {
	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	a.site.Start(ctx)

	if cfg.Server.WarmCache {
		go func() {
			warmCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			if err := a.site.Warm(warmCtx); err != nil {
				log.Warn().Err(err).Msg("Cache warm-up failed")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("env", string(cfg.Env)).
			Str("api", cfg.APIBase).
			Str("projects", cfg.ProjectsBase).
			Bool("cache", a.redis != nil).
			Msg("Starting portfolio server")

		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
