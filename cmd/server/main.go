package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	authgin "github.com/open-rails/insights/adapters/gin"
	"github.com/open-rails/insights/adapters/gin/handlers"
	"github.com/open-rails/insights/analytics"
	"github.com/open-rails/insights/auth"
	"github.com/open-rails/insights/config"
	"github.com/open-rails/insights/jobs"
	"github.com/open-rails/insights/lookup"
	"github.com/open-rails/insights/metrics"
	redisstore "github.com/open-rails/insights/storage/redis"
	"github.com/open-rails/insights/tracing"
)

func main() {
	cfg, err := config.Load(os.Getenv("INSIGHTS_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR] load config:", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	if err := cfg.Validate(log); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  "insights",
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.Env != "production",
		SampleRatio:  cfg.SampleRatio,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("tracing setup")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()

	keySource, jwksSource := newKeySource(cfg, log)
	verifier := auth.NewVerifier(keySource, log)
	hook := auth.NewLocationHook(cfg.Auth.LocationType)

	jobClient, err := jobs.NewClient(pool, log)
	if err != nil {
		log.WithError(err).Fatal("init job client")
	}
	if err := jobClient.Start(ctx); err != nil {
		log.WithError(err).Fatal("start job client")
	}

	store := analytics.NewStore(pool, jobClient, "", log)
	lookupCache := redisstore.NewLookupCache(rdb, "", time.Duration(cfg.LookupCacheTTLSeconds)*time.Second)
	directory := lookup.NewDirectory(pool, lookupCache, "", log)

	sched := newSchedule(cfg, jwksSource, directory, log)
	sched.Start()
	defer sched.Stop()

	engine := newEngine(cfg, verifier, hook, store, directory, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = jobClient.Stop(shutdownCtx)
	_ = shutdownTracing(shutdownCtx)
}

func newLogger(cfg *config.Config) *logrus.Entry {
	l := logrus.New()
	if cfg.LogFormat == "text" {
		l.SetFormatter(&logrus.TextFormatter{})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		l.SetLevel(level)
	}
	return l.WithFields(logrus.Fields{"service": "insights", "env": cfg.Env})
}

// newKeySource builds the configured key source. The second return is
// non-nil only in JWKS mode, for scheduled warming.
func newKeySource(cfg *config.Config, log *logrus.Entry) (auth.KeySource, *auth.JWKSKeySource) {
	if cfg.Auth.Mode == config.AuthModeStatic {
		return auth.NewStaticKeySource(cfg.Auth.StaticKeyPEM), nil
	}
	js := auth.NewJWKSKeySource(auth.JWKSConfig{
		URL:                cfg.Auth.JWKSURL,
		Issuer:             cfg.Auth.Issuer,
		Realm:              cfg.Auth.Realm,
		FetchTimeout:       time.Duration(cfg.Auth.FetchTimeoutSeconds) * time.Second,
		MinRefreshInterval: time.Duration(cfg.Auth.MinRefreshIntervalSeconds) * time.Second,
	}, log)
	if err := js.CheckConfig(); err != nil {
		// Diagnostic only: requests will keep being rejected with 401
		// until the configuration is fixed.
		log.WithError(err).Warn("jwks key source misconfigured")
	}
	return js, js
}

func newSchedule(cfg *config.Config, jwksSource *auth.JWKSKeySource, directory *lookup.Directory, log *logrus.Entry) *cron.Cron {
	sched := cron.New()
	if jwksSource != nil {
		_, err := sched.AddFunc(cfg.JWKSWarmSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := jwksSource.Warm(ctx); err != nil {
				metrics.JWKSFetchTotal.WithLabelValues("error").Inc()
				log.WithError(err).Warn("jwks warm failed")
				return
			}
			metrics.JWKSFetchTotal.WithLabelValues("ok").Inc()
		})
		if err != nil {
			log.WithError(err).WithField("schedule", cfg.JWKSWarmSchedule).
				Warn("invalid jwks warm schedule; periodic key warming disabled")
		}
	}
	_, _ = sched.AddFunc("@every 6h", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := directory.Refresh(ctx); err != nil {
			log.WithError(err).Warn("lookup directory refresh failed")
		}
	})
	return sched
}

func newEngine(cfg *config.Config, verifier *auth.Verifier, hook auth.PostVerifyHook, store *analytics.Store, directory *lookup.Directory, log *logrus.Entry) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), authgin.RequestID(), authgin.Tracing("insights"), authgin.RequestLogger(log))

	engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1",
		authgin.AuthRequired(verifier, hook, log),
		authgin.LookupMiddleware(directory, log),
	)
	{
		v1.GET("/dashboard", handlers.HandleDashboardGET(store))
		v1.GET("/sessions", handlers.HandleSessionsGET(store))
		v1.GET("/users", handlers.HandleUsersGET(store))
		v1.GET("/errors", handlers.HandleErrorsGET(store))
		v1.GET("/feedback", handlers.HandleFeedbackGET(store))
		v1.POST("/feedback", handlers.HandleFeedbackPOST(store))
		v1.GET("/leaderboard", handlers.HandleLeaderboardGET(store))
	}
	return engine
}
