package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"

	"github.com/appetiteclub/tableside/internal/auth"
	"github.com/appetiteclub/tableside/internal/catalog"
	"github.com/appetiteclub/tableside/internal/config"
	"github.com/appetiteclub/tableside/internal/mongo"
	"github.com/appetiteclub/tableside/internal/order"
	"github.com/appetiteclub/tableside/internal/realtime"
	"github.com/appetiteclub/tableside/internal/redis"
	"github.com/appetiteclub/tableside/internal/seeding"
	"github.com/appetiteclub/tableside/internal/session"
	"github.com/appetiteclub/tableside/internal/stock"
	"github.com/appetiteclub/tableside/pkg"
	"github.com/appetiteclub/tableside/pkg/event"
)

const (
	appNamespace = "TABLESIDE"
	appName      = "tableside"
	appVersion   = "0.1.0"
)

func main() {
	aptConfig, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	cfg, err := config.Load(aptConfig)
	if err != nil {
		log.Fatalf("%s(%s) invalid configuration: %v", appName, appVersion, err)
	}

	logger := apt.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	baseRepo := mongo.NewBaseRepo(cfg.MongoURL, cfg.MongoName, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	restaurantRepo := mongo.NewRestaurantRepo(db)
	tableRepo := mongo.NewTableRepo(db)
	menuItemRepo := mongo.NewMenuItemRepo(db)
	ingredientRepo := mongo.NewIngredientRepo(db)
	staffRepo := mongo.NewStaffRepo(db)
	orderRepo := mongo.NewOrderRepo(db)
	tokenRepo := mongo.NewTokenRepo(db)

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
	}

	// Redis backs the daily counter and public rate limits when configured.
	var counter order.Counter = mongo.NewCounterRepo(db)
	publicLimiter := func(next http.Handler) http.Handler { return next }
	if cfg.RedisEnabled {
		redisClient := redis.NewClient(cfg.RedisAddr, cfg.RedisDB, logger)
		if err := redisClient.Start(ctx); err != nil {
			log.Fatalf("%s(%s) cannot connect to redis: %v", appName, appVersion, err)
		}
		lifecycles = append(lifecycles, apt.LifecycleHooks{OnStop: redisClient.Stop})

		publicLimiter = redis.RateLimit(redisClient.Redis(), "public", cfg.PublicRateLimit, cfg.PublicRateWindow, logger)
		if cfg.OrderCounter == config.CounterRedis {
			counter = redis.NewDailyCounter(redisClient.Redis())
		}
	}
	logger.Info("order numbering configured", "counter", cfg.OrderCounter)

	hub := realtime.NewHub(realtime.DefaultClientBuffer, logger)

	// Without NATS events go straight to this instance's sockets.
	var publisher events.Publisher = hub
	if cfg.NATSEnabled {
		pub, err := pkg.NewNATSPublisher(cfg.NATSURL, appName)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
		}

		sub, err := pkg.NewNATSSubscriber(cfg.NATSURL, appName, logger)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
		}

		publisher = realtime.NewFanout(pub)
		lifecycles = append(lifecycles,
			realtime.NewRelay(sub, hub, logger),
			apt.LifecycleHooks{OnStop: func(context.Context) error { return pub.Close() }},
			apt.LifecycleHooks{OnStop: func(context.Context) error { return sub.Close() }},
		)
	} else {
		lifecycles = append(lifecycles, apt.LifecycleHooks{OnStop: func(context.Context) error {
			hub.Close()
			return nil
		}})
	}

	deductor := stock.NewDeductor(menuItemRepo, ingredientRepo, logger)
	var stockQueue order.StockDeducter
	if cfg.NATSStreamEnabled {
		stream, err := pkg.NewNATSStream(ctx, pkg.NATSStreamConfig{
			URL:          cfg.NATSURL,
			StreamName:   "STOCK_EVENTS",
			Topic:        event.StockTopic,
			ConsumerName: appName + "-stock",
			MaxAge:       7 * 24 * time.Hour,
			MaxDeliver:   5,
		}, logger)
		if err != nil {
			log.Fatalf("%s(%s) cannot setup stock stream: %v", appName, appVersion, err)
		}

		queue := stock.NewStreamQueue(stream, stream, deductor, logger)
		stockQueue = queue
		lifecycles = append(lifecycles,
			queue,
			apt.LifecycleHooks{OnStop: func(context.Context) error { return stream.Close() }},
		)
	} else {
		worker := stock.NewWorker(deductor, cfg.StockQueueSize, logger)
		stockQueue = worker
		lifecycles = append(lifecycles, worker)
	}

	authn := auth.NewAuthenticator(cfg.JWTSecret, logger)
	maintenance := auth.RequireMaintenanceKey(cfg.MaintenanceKey, cfg.IsDev())

	policy, err := session.ParsePolicy(cfg.SessionPolicy)
	if err != nil {
		log.Fatalf("%s(%s) %v", appName, appVersion, err)
	}
	sessions := session.NewManager(tokenRepo, tableRepo, restaurantRepo, session.Options{
		TTL:    cfg.SessionTTL,
		Policy: policy,
	}, logger)
	lifecycles = append(lifecycles, session.NewSweeper(sessions, cfg.SessionSweepInterval, logger))

	orderService := order.NewService(order.ServiceDeps{
		Orders:      orderRepo,
		Counter:     counter,
		MenuItems:   menuItemRepo,
		Tables:      tableRepo,
		Restaurants: restaurantRepo,
		Staff:       staffRepo,
		Stock:       stockQueue,
	}, order.ServiceOptions{}, logger)

	orderHandler := order.NewHandler(order.HandlerDeps{
		Service:       orderService,
		Sessions:      sessions,
		Authenticator: authn,
		Publisher:     publisher,
		PublicLimiter: publicLimiter,
	}, logger)

	sessionHandler := session.NewHandler(session.HandlerDeps{
		Manager:       sessions,
		Authenticator: authn,
		Publisher:     publisher,
		PublicLimiter: publicLimiter,
		Maintenance:   maintenance,
	}, logger)

	catalogHandler := catalog.NewHandler(catalog.HandlerDeps{
		MenuItems:     menuItemRepo,
		Authenticator: authn,
		Publisher:     publisher,
	}, logger)

	wsHandler := realtime.NewWSHandler(hub, authn, logger)

	if cfg.SeedDemo {
		logger.Info("Demo seeding enabled")
		repos := seeding.Repos{
			Restaurants: restaurantRepo,
			Tables:      tableRepo,
			MenuItems:   menuItemRepo,
			Ingredients: ingredientRepo,
			Staff:       staffRepo,
		}
		lifecycles = append(lifecycles, apt.LifecycleHooks{
			OnStart: seeding.DemoSeedingFunc(seedCtx, repos, db, logger),
			OnStop: func(context.Context) error {
				cancelSeeds()
				return nil
			},
		})
	}

	// Guest-facing: browsers on the customer's phone call in directly.
	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	options := []apt.Option{
		apt.WithConfig(aptConfig),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", sessionHandler, orderHandler, catalogHandler, wsHandler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
