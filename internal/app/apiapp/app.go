package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cultureradar/backend/internal/config"
	"github.com/cultureradar/backend/internal/infra/functions"
	"github.com/cultureradar/backend/internal/infra/metrics"
	s3infra "github.com/cultureradar/backend/internal/infra/s3"
	"github.com/cultureradar/backend/internal/jobs/cleanup"
	pgrepo "github.com/cultureradar/backend/internal/repo/postgres"
	redrepo "github.com/cultureradar/backend/internal/repo/redis"
	activitiessvc "github.com/cultureradar/backend/internal/services/activities"
	authsvc "github.com/cultureradar/backend/internal/services/auth"
	engagementsvc "github.com/cultureradar/backend/internal/services/engagement"
	geosvc "github.com/cultureradar/backend/internal/services/geo"
	interactionsvc "github.com/cultureradar/backend/internal/services/interactions"
	mediasvc "github.com/cultureradar/backend/internal/services/media"
	modsvc "github.com/cultureradar/backend/internal/services/moderation"
	profilesvc "github.com/cultureradar/backend/internal/services/profiles"
	ratesvc "github.com/cultureradar/backend/internal/services/rate"
	submissionsvc "github.com/cultureradar/backend/internal/services/submission"
	weathersvc "github.com/cultureradar/backend/internal/services/weather"
	"github.com/cultureradar/backend/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	cleanup    *cleanup.Job
	stopJobs   context.CancelFunc
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	location, err := time.LoadLocation(cfg.Submission.Timezone)
	if err != nil {
		log.Warn("unknown submission timezone, using UTC", zap.String("timezone", cfg.Submission.Timezone), zap.Error(err))
		location = time.UTC
	}

	registry := metrics.New()
	r := chi.NewRouter()
	ApplyMiddlewares(r, log, registry, cfg.HTTP.CORSOrigins, cfg.HTTP.RequestTimeout)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	geocodeCacheRepo := redrepo.NewGeocodeCacheRepo(redisClient)
	activityRepo := pgrepo.NewActivityRepo(pool)
	blobRepo := pgrepo.NewBlobRepo(pool)
	interactionRepo := pgrepo.NewInteractionRepo(pool)
	statsRepo := pgrepo.NewStatsRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)

	functionsClient, err := functions.NewClient(cfg.Functions.BaseURL, cfg.Functions.Timeout)
	if err != nil {
		return nil, fmt.Errorf("functions client: %w", err)
	}

	mediaChannel, err := newMediaChannel(cfg, functionsClient, log)
	if err != nil {
		return nil, err
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, 0)
	geocoder := geosvc.NewGeocoder(geosvc.Config{
		BaseURL:           cfg.Geocoder.BaseURL,
		UserAgent:         cfg.Geocoder.UserAgent,
		Timeout:           cfg.Geocoder.Timeout,
		RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
		Burst:             cfg.Geocoder.Burst,
	}, geosvc.NewMemoryCache(geocodeCacheRepo), log).WithMetrics(registry)
	mediaService := mediasvc.NewService(mediaChannel, blobRepo, cfg.Media.MaxFiles, log)
	moderationService := modsvc.NewService(modsvc.NewFunctionsClient(functionsClient), log)
	pipeline := submissionsvc.NewPipeline(submissionsvc.Dependencies{
		Activities: activityRepo,
		Geocoder:   geocoder,
		Media:      mediaService,
		Moderator:  moderationService,
		Metrics:    registry,
		Logger:     log,
	}, submissionsvc.Config{
		DownstreamTimeout: cfg.Submission.DownstreamTimeout,
	})
	aggregator := engagementsvc.NewAggregator(statsRepo, log)
	weatherClient := weathersvc.NewClient(cfg.Weather.BaseURL, cfg.Weather.Timeout)
	catalog := activitiessvc.NewService(activityRepo, geocoder, aggregator, weatherClient, log)
	toggleLimiter := ratesvc.NewLimiter(
		rateRepo,
		"interactions",
		cfg.Interactions.TogglesPerMinute,
		cfg.Interactions.TogglesPer10Sec,
	)
	interactionService := interactionsvc.NewService(interactionRepo, toggleLimiter, log)
	profileService := profilesvc.NewService(userRepo, mediaService, log)

	var cleanupJob *cleanup.Job
	if pool != nil {
		cleanupJob = cleanup.New(activityRepo, cfg.Cleanup.DraftRetention, log)
	}

	RegisterRoutes(r, Dependencies{
		Tokens:       jwtManager,
		Catalog:      catalog,
		Pipeline:     pipeline,
		Interactions: interactionService,
		Geocoder:     geocoder,
		Profiles:     profileService,
		Metrics:      registry.Handler(),
		Activities: handlers.ActivitiesConfig{
			MaxUploadSize: cfg.Media.MaxUploadSize,
			Location:      location,
		},
		Logger: log,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		cleanup:    cleanupJob,
		httpRouter: r,
	}, nil
}

// newMediaChannel picks where uploaded files go. The hosted functions are the
// default; "s3" writes straight to the object store.
func newMediaChannel(cfg config.Config, functionsClient *functions.Client, log *zap.Logger) (mediasvc.Channel, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Media.Channel)) {
	case "", "functions":
		return mediasvc.NewFunctionsChannel(functionsClient), nil
	case "s3":
		client, err := s3infra.NewClient(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			log.Warn("s3 init failed, falling back to functions media channel", zap.Error(err))
			return mediasvc.NewFunctionsChannel(functionsClient), nil
		}
		return mediasvc.NewS3Channel(client, cfg.S3.Bucket, cfg.S3.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown media channel %q", cfg.Media.Channel)
	}
}

func (a *App) Run() error {
	if a.cleanup != nil {
		jobsCtx, cancel := context.WithCancel(context.Background())
		a.stopJobs = cancel
		go a.cleanup.Loop(jobsCtx, a.cfg.Cleanup.Interval)
	}

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.stopJobs != nil {
		a.stopJobs()
	}
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
