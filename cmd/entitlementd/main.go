package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/access"
	"github.com/dmitrymomot/bookingkit/pkg/api"
	"github.com/dmitrymomot/bookingkit/pkg/catalog"
	"github.com/dmitrymomot/bookingkit/pkg/config"
	"github.com/dmitrymomot/bookingkit/pkg/httpserver"
	"github.com/dmitrymomot/bookingkit/pkg/logger"
	"github.com/dmitrymomot/bookingkit/pkg/pg"
	"github.com/dmitrymomot/bookingkit/pkg/pgstore"
	"github.com/dmitrymomot/bookingkit/pkg/redis"
	"github.com/dmitrymomot/bookingkit/pkg/requestid"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
	"github.com/dmitrymomot/bookingkit/pkg/team"
)

type appConfig struct {
	Env                 string        `env:"APP_ENV" envDefault:"development"`
	Name                string        `env:"APP_NAME" envDefault:"entitlementd"`
	CatalogFile         string        `env:"CATALOG_FILE"` // synced into Postgres at startup when set
	CatalogCacheTTL     time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
	TeamMaxMembers      int           `env:"TEAM_MAX_MEMBERS" envDefault:"0"`
	TeamUnlimitedPlugin string        `env:"TEAM_UNLIMITED_PLUGIN"` // plugin slug
	TrialDays           int           `env:"TRIAL_DAYS" envDefault:"7"`
	CheckoutSuccessURL  string        `env:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL   string        `env:"CHECKOUT_CANCEL_URL"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("entitlementd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg    appConfig
		pgCfg     pg.Config
		redisCfg  redis.Config
		httpCfg   httpserver.Config
		paddleCfg subscription.PaddleConfig
	)
	if err := errors.Join(
		config.Load(&appCfg),
		config.Load(&pgCfg),
		config.Load(&redisCfg),
		config.Load(&httpCfg),
		config.Load(&paddleCfg),
	); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, appCfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pgstore.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	pluginSource := pgstore.NewCatalogSource(pool)
	if appCfg.CatalogFile != "" {
		plugins, err := catalog.NewFileSource(appCfg.CatalogFile).Load(ctx)
		if err != nil {
			return err
		}
		if err := pluginSource.Sync(ctx, plugins); err != nil {
			return fmt.Errorf("sync plugin catalog: %w", err)
		}
		log.InfoContext(ctx, "plugin catalog synced", slog.Int("count", len(plugins)))
	}

	cached := catalog.NewCachedSource(
		pluginSource,
		redis.NewStorage(redisClient, redisCfg.KeyPrefix),
		appCfg.CatalogCacheTTL,
		catalog.WithCacheLogger(log),
	)
	plugins, err := catalog.New(ctx, cached,
		catalog.WithLogger(log),
		catalog.WithRefreshInterval(appCfg.CatalogCacheTTL),
	)
	if err != nil {
		return err
	}

	provider, err := subscription.NewPaddleProvider(paddleCfg)
	if err != nil {
		return err
	}

	// acc is assigned below; the hooks only run once the server is serving.
	var acc *access.Service

	subs := subscription.NewService(
		pgstore.NewSubscriptionStore(pool),
		plugins,
		provider,
		subscription.WithLogger(log),
		subscription.WithTrialDuration(time.Duration(max(appCfg.TrialDays, 1))*24*time.Hour),
		subscription.WithCheckoutURLs(appCfg.CheckoutSuccessURL, appCfg.CheckoutCancelURL),
		subscription.WithDeletionHook(func(ctx context.Context, ownerID, pluginID uuid.UUID) error {
			return acc.PurgeOwnerPlugin(ctx, ownerID, pluginID)
		}),
	)

	teamOpts := []team.ServiceOption{
		team.WithLogger(log),
		team.WithMaxMembers(appCfg.TeamMaxMembers),
	}
	if appCfg.TeamUnlimitedPlugin != "" {
		p, err := plugins.GetBySlug(ctx, appCfg.TeamUnlimitedPlugin)
		if err != nil {
			return fmt.Errorf("unlimited team plugin %q: %w", appCfg.TeamUnlimitedPlugin, err)
		}
		teamOpts = append(teamOpts, team.WithUnlimitedPlugin(p.ID, subs))
	}

	teamOpts = append(teamOpts, team.WithRemovalHook(func(ctx context.Context, m *team.Member) error {
		return acc.PurgeMember(ctx, m.ID)
	}))
	members := team.NewService(pgstore.NewTeamStore(pool), teamOpts...)
	acc = access.NewService(pgstore.NewOverrideStore(pool), plugins, subs, members, access.WithLogger(log))

	handler := api.NewHandler(plugins, subs, members, acc,
		api.WithLogger(log),
		api.WithProbe("postgres", pg.Healthcheck(pool)),
		api.WithProbe("redis", redis.Healthcheck(redisClient)),
	)

	return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log)).Run(ctx, handler.Routes())
}
