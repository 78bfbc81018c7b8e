package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/agent"
	"github.com/halcyard/windrose/internal/api"
	"github.com/halcyard/windrose/internal/config"
	"github.com/halcyard/windrose/internal/embedding"
	"github.com/halcyard/windrose/internal/graph"
	"github.com/halcyard/windrose/internal/hub"
	"github.com/halcyard/windrose/internal/kgraph"
	"github.com/halcyard/windrose/internal/notify"
	"github.com/halcyard/windrose/internal/orchestrator"
	"github.com/halcyard/windrose/internal/provider"
	pgstore "github.com/halcyard/windrose/internal/store"
	"github.com/halcyard/windrose/internal/task"
	"github.com/halcyard/windrose/internal/tools"
	"github.com/halcyard/windrose/internal/travel"
	"github.com/halcyard/windrose/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting windrose...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/windrose.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	ctx := context.Background()

	// Initialize provider router
	router := provider.NewRouter(logger)
	for _, pc := range cfg.Providers {
		provCfg := provider.Config{
			ID: pc.ID, Type: pc.Type, Name: pc.Name,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey, Model: pc.Model,
		}
		switch pc.Type {
		case "gemini":
			p, gErr := provider.NewGemini(ctx, provCfg, logger)
			if gErr != nil {
				logger.Warn("Gemini provider unavailable", zap.String("id", pc.ID), zap.Error(gErr))
				continue
			}
			router.Register(p)
		case "openai":
			router.Register(provider.NewOpenAI(provCfg, logger))
		default:
			logger.Warn("unknown provider type", zap.String("id", pc.ID), zap.String("type", pc.Type))
		}
	}

	// Initialize PostgreSQL store
	var pgStore *pgstore.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := pgstore.New(cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without persistence", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(ctx, "migrations"); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			pgStore = ps
		}
	}

	// Initialize Redis event stream
	var events *hub.EventStream
	if cfg.Database.Redis.URL != "" {
		es, esErr := hub.NewEventStream(cfg.Database.Redis.URL, logger)
		if esErr != nil {
			logger.Warn("Redis unavailable, running without event stream", zap.Error(esErr))
		} else {
			events = es
		}
	}

	// Register agents on the hub
	comms := hub.New(events, logger)
	af := travel.NewAttractionFinder()
	he := travel.NewHotelEstimator()
	ib := travel.NewItineraryBuilder(af)
	for _, a := range []agent.Agent{
		agent.NewCoordinator(logger),
		agent.NewTravelAdvisor(logger),
		agent.NewBudgetOptimizer(logger),
		agent.NewWeatherAnalyst(logger),
		agent.NewLocalExpert(logger),
		agent.NewItineraryPlanner(ib, logger),
	} {
		if err := comms.Register(a); err != nil {
			logger.Fatal("agent registration failed", zap.Error(err))
		}
	}
	comms.ConnectAll()

	// Initialize orchestrator
	orch := orchestrator.New(comms, hub.NewDecisionEngine(logger), orchestrator.Services{
		Weather:     travel.NewWeatherService(cfg.Weather.APIKey, logger),
		Hotels:      he,
		Attractions: af,
		Expenses:    travel.NewExpenseCalculator(he, af),
		Currency:    travel.NewCurrencyConverter(logger),
		Itinerary:   ib,
	}, logger)

	// Initialize trip recall over Qdrant
	var tripIndex *vectorstore.TripIndex
	if cfg.Database.Qdrant.Host != "" {
		embed := embedding.New(embedding.Config{
			Provider: cfg.Embedding.Provider, Endpoint: cfg.Embedding.Endpoint,
			Model: cfg.Embedding.Model, APIKey: cfg.Embedding.APIKey,
			Dimension: cfg.Embedding.Dimension,
		})
		ti, tErr := vectorstore.NewTripIndex(vectorstore.Config{
			Host: cfg.Database.Qdrant.Host,
			Port: cfg.Database.Qdrant.Port,
		}, embed, logger)
		if tErr != nil {
			logger.Warn("Qdrant unavailable, running without trip recall", zap.Error(tErr))
		} else {
			tripIndex = ti
			orch.WithRecall(tripIndex)
		}
	}

	// Initialize destination knowledge graph over Neo4j
	var places *kgraph.Graph
	if cfg.Database.Neo4j.URI != "" {
		kg, kErr := kgraph.New(cfg.Database.Neo4j.URI, cfg.Database.Neo4j.User, cfg.Database.Neo4j.Password, logger)
		if kErr == nil {
			kErr = kg.Ping(ctx)
		}
		if kErr != nil {
			logger.Warn("Neo4j unavailable, running without knowledge graph", zap.Error(kErr))
		} else {
			places = kg
			orch.WithPlaceGraph(places)
		}
	}

	// Initialize notifiers
	broadcaster := notify.NewBroadcaster(logger)
	if cfg.Notify.Discord.Enabled && cfg.Notify.Discord.BotToken != "" {
		d, dErr := notify.NewDiscord(cfg.Notify.Discord.BotToken, cfg.Notify.Discord.ChannelID, logger)
		if dErr != nil {
			logger.Warn("Discord notifier unavailable", zap.Error(dErr))
		} else {
			broadcaster.Add(d)
		}
	}
	if cfg.Notify.Slack.Enabled && cfg.Notify.Slack.BotToken != "" {
		broadcaster.Add(notify.NewSlack(cfg.Notify.Slack.BotToken, cfg.Notify.Slack.Channel, logger))
	}

	// Initialize the LLM graph engine and its search tools
	registry := tools.NewRegistry()
	tools.RegisterTravelTools(registry, tools.NewDuckDuckGo(logger))
	if cfg.Planner.PromptDir != "" {
		graph.PromptDir = cfg.Planner.PromptDir
	}
	graphEngine := graph.NewEngine(router, registry, logger).WithMaxHops(cfg.Planner.GraphMaxHops)

	// Initialize the task manager
	tasks := task.NewManager(orch, logger).
		WithEvents(events).
		WithTimeout(time.Duration(cfg.Planner.TaskTimeoutSeconds) * time.Second)
	if len(router.ListProviders()) > 0 {
		tasks.WithGraph(graphEngine)
	} else {
		logger.Warn("no LLM providers configured, graph planning disabled")
	}
	if pgStore != nil {
		tasks.WithStore(pgStore)
	}
	if tripIndex != nil {
		tasks.WithIndexer(tripIndex)
	}
	if places != nil {
		tasks.WithGrapher(places)
	}
	if len(broadcaster.Platforms()) > 0 {
		tasks.WithNotifier(broadcaster)
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	retention := time.Duration(cfg.Planner.RetentionMinutes) * time.Minute
	tasks.StartJanitor(janitorCtx, retention)

	// Build HTTP handler. Typed nils must not leak into the interfaces.
	var trips api.TripStore
	if pgStore != nil {
		trips = pgStore
	}
	var recall orchestrator.Recaller
	if tripIndex != nil {
		recall = tripIndex
	}
	handler := api.NewHandler(tasks, orch, comms, router, trips, recall, logger)

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("windrose listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down windrose...")
	stopJanitor()
	srv.Shutdown(ctx)
	if pgStore != nil {
		pgStore.Close()
	}
	if events != nil {
		events.Close()
	}
	if tripIndex != nil {
		tripIndex.Close()
	}
	if places != nil {
		places.Close(ctx)
	}
}
