package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/api"
	"github.com/technosupport/vms-inventory/internal/audit"
	"github.com/technosupport/vms-inventory/internal/auth"
	"github.com/technosupport/vms-inventory/internal/cameras"
	"github.com/technosupport/vms-inventory/internal/config"
	"github.com/technosupport/vms-inventory/internal/crypto"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/events"
	"github.com/technosupport/vms-inventory/internal/license"
	"github.com/technosupport/vms-inventory/internal/logging"
	"github.com/technosupport/vms-inventory/internal/metrics"
	"github.com/technosupport/vms-inventory/internal/middleware"
	"github.com/technosupport/vms-inventory/internal/nvr"
	"github.com/technosupport/vms-inventory/internal/profiles"
	"github.com/technosupport/vms-inventory/internal/ratelimit"
	"github.com/technosupport/vms-inventory/internal/tokens"
	"github.com/technosupport/vms-inventory/internal/users"
)

const serviceName = "vms-inventory"

var version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Config and logging
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("platform init: %w", err)
	}

	// 2. Database
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	// 3. Redis, tokens and secrets
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()

	tokenMgr := tokens.NewManager(cfg.Auth.SigningKey, cfg.Auth.Issuer)
	blacklist := auth.NewRedisBlacklist(rdb, cfg.Auth.BlacklistPrefix)
	hasher := auth.NewHasher(auth.DefaultParams)

	keyring := crypto.NewKeyring()
	if err := keyring.Load(cfg.Crypto.Keys, cfg.Crypto.ActiveKID); err != nil {
		return fmt.Errorf("keyring: %w", err)
	}

	// 4. Metrics and change events
	collector := metrics.NewCollector(logger)

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.Enabled() {
		nc, err := nats.Connect(cfg.Events.NATSURL, nats.Name(serviceName), nats.MaxReconnects(-1))
		if err != nil {
			// Mutations must not depend on the broker.
			logger.Warn("nats connect failed, change events disabled", zap.Error(err))
		} else {
			defer nc.Drain()
			dedup, err := events.NewDedup(cfg.Events.DedupMaxKeys, cfg.Events.DedupTTL)
			if err != nil {
				return fmt.Errorf("event dedup: %w", err)
			}
			publisher = events.NewNATSPublisher(nc, cfg.Events.SubjectPrefix, cfg.Events.PublishRetryMax, dedup)
			logger.Info("publishing change events", zap.String("nats_url", cfg.Events.NATSURL), zap.String("prefix", cfg.Events.SubjectPrefix))
		}
	}
	publisher = collector.InstrumentPublisher(publisher)

	// 5. Activity log
	spoolDir, err := cfg.SpoolDir()
	if err != nil {
		return err
	}
	spool, err := audit.NewSpool(spoolDir, cfg.Audit.SpoolMaxMB)
	if err != nil {
		return fmt.Errorf("audit spool: %w", err)
	}
	auditService := audit.NewService(data.ActivityLogModel{DB: db}, spool, logger, cfg.Pagination.MaxPageSize)
	auditService.StartReplayer(ctx, cfg.Audit.ReplayInterval)
	if err := audit.CheckRetentionPolicy(cfg.Audit.RetentionDays); err != nil {
		logger.Warn("activity log retention disabled", zap.Error(err))
	} else {
		auditService.StartRetention(ctx, cfg.Audit.RetentionDays)
	}

	// 6. Inventory services
	camRepo := data.CameraModel{DB: db}
	nvrRepo := data.NVRModel{DB: db}
	groupRepo := data.GroupModel{DB: db}
	roleRepo := data.RoleModel{DB: db}
	userRepo := data.UserModel{DB: db}

	camOpts := cameras.Options{MaxPageSize: cfg.Pagination.MaxPageSize}
	camService := cameras.NewService(camRepo, publisher, logger, camOpts)
	groupService := cameras.NewGroupService(groupRepo, publisher, logger)
	recordService := cameras.NewRecordService(data.AlertModel{DB: db}, data.ActivityModel{DB: db}, data.TrackingModel{DB: db}, camOpts)
	nvrService := nvr.NewService(nvrRepo, keyring, publisher, logger, nvr.Options{MaxPageSize: cfg.Pagination.MaxPageSize})
	profileService := profiles.NewService(data.ProfileModel{DB: db})
	roleService := users.NewRoleService(roleRepo)
	userService := users.NewService(userRepo, hasher, publisher, logger, cfg.Pagination.MaxPageSize)
	permService := users.NewPermissionService(data.PermissionModel{DB: db})
	authService := users.NewAuthService(userRepo, roleRepo, hasher, tokenMgr, blacklist, logger)
	licenseService := license.NewService(data.LicenseModel{DB: db}, logger)

	collector.AddSource("camera", camRepo.Stats)
	collector.AddSource("nvr", nvrRepo.Stats)
	collector.AddSource("group", groupRepo.Stats)
	collector.Start(ctx, cfg.Metrics.SnapshotInterval)

	// 7. Middleware
	limiter := ratelimit.NewLimiter(rdb, cfg.Auth.RateLimitSalt)
	rlMiddleware := middleware.NewRateLimitMiddleware(limiter, cfg.RateLimit, collector, logger)
	config.Watch(ctx, configPath, logger, func(next *config.Config) {
		rlMiddleware.SetConfig(next.RateLimit)
		logger.Info("rate limits reloaded")
	})
	auditMiddleware := middleware.NewAuditMiddleware(auditService)

	// 8. Routes
	health := api.NewHealthHandler(map[string]api.Pinger{
		"postgres": db,
		"redis":    api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	}, logger)

	handler := api.NewRouter(api.RouterConfig{
		Log:            logger,
		Auth:           middleware.NewJWTAuth(tokenMgr, blacklist, logger),
		RateLimit:      rlMiddleware,
		Audit:          auditMiddleware,
		Metrics:        collector,
		CORSOrigins:    cfg.CORS.Origins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Title:          "VMS Inventory API",
		Version:        version,
	}, api.Collect(
		health,
		api.NewAuthHandler(authService, logger),
		api.NewCameraHandler(camService, logger),
		api.NewNVRHandler(nvrService, logger),
		api.NewGroupHandler(groupService, logger),
		api.NewRecordHandler(recordService, logger),
		api.NewProfileHandler(profileService, logger),
		api.NewRoleHandler(roleService, logger),
		api.NewUserHandler(userService, permService, logger),
		api.NewLicenseHandler(licenseService, logger),
		api.NewAuditHandler(auditService, logger),
	))

	// 9. Serve until SIGINT or SIGTERM
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr), zap.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown requested")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}

	// Writes still in flight may land in the spool; wait for them, then flush it.
	if err := auditMiddleware.Wait(shutdownCtx); err != nil {
		logger.Warn("activity log writes still pending at shutdown", zap.Error(err))
	}
	auditService.Replay(shutdownCtx)
	logger.Info("server stopped gracefully")
	return nil
}
