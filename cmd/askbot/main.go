// cmd/askbot/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"jira-askbot/internal/bot"
	"jira-askbot/internal/common/auth"
	"jira-askbot/internal/common/cache"
	"jira-askbot/internal/common/camunda"
	"jira-askbot/internal/common/config"
	"jira-askbot/internal/common/database"
	"jira-askbot/internal/common/jira"
	"jira-askbot/internal/common/llm"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/common/observability"
	"jira-askbot/internal/conversation"
	"jira-askbot/internal/dictionary"
	"jira-askbot/internal/history"
	"jira-askbot/internal/mapping"
	"jira-askbot/internal/resultcache"
	"jira-askbot/pkg/registry"

	refreshdictionaries "jira-askbot/internal/workers/dictionary/refresh-dictionaries"
	teachmapping "jira-askbot/internal/workers/mapping/teach-mapping"
	classifyintent "jira-askbot/internal/workers/nlq/classify-intent"
	enrichcontext "jira-askbot/internal/workers/nlq/enrich-context"
	extractentities "jira-askbot/internal/workers/nlq/extract-entities"
	synthesizequery "jira-askbot/internal/workers/nlq/synthesize-query"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting askbot...", zap.String("version", cfg.App.Version))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Redis ---
	var rc *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rc, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rc.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rc.Close()
	zapLog.Info("Redis connected successfully")

	store := cache.NewRedisStore(rc, cfg.Cache.KeyPrefix)

	// --- PostgreSQL (history and, optionally, conversations) ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	}

	var recorder bot.HistoryRecorder
	if pg != nil {
		r := history.NewRecorder(pg.GetDB())
		if err := r.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("history schema failed", zap.Error(err))
		}
		recorder = r
	}

	conversations, err := newConversationStore(ctx, cfg, store, pg)
	if err != nil {
		zapLog.Fatal("conversation store failed", zap.Error(err))
	}

	// --- Domain services ---
	credentials, err := auth.NewCredentialStore(store, cfg.Security.SecretKey, config.GetSeconds(cfg.Cache.CredentialsTTL))
	if err != nil {
		zapLog.Fatal("credential store failed", zap.Error(err))
	}
	tracker := jira.NewClient(cfg.Tracker.BaseURL, config.GetDuration(cfg.Tracker.Timeout))
	mappings := mapping.NewStore(store, config.GetSeconds(cfg.Cache.MappingTTL), log)
	dictionaries := dictionary.NewCache(store, tracker, credentials, config.GetSeconds(cfg.Cache.DictionaryTTL), log)
	results := resultcache.New(store, config.GetSeconds(cfg.Cache.ResultTTL), log)

	var completer llm.Completer = llm.Disabled{}
	if !cfg.LLM.Disabled {
		completer = llm.NewClient(llm.Config{
			BaseURL:    cfg.LLM.BaseURL,
			APIKey:     cfg.LLM.APIKey,
			ProxyToken: cfg.LLM.ProxyToken,
			Model:      cfg.LLM.Model,
			Timeout:    config.GetDuration(cfg.LLM.Timeout),
		}, nil)
	} else {
		zapLog.Warn("LLM disabled, stages run on rules only")
	}

	synthCfg := synthesizequery.LoadConfig()
	if cfg.Synthesis.MaxQueryLength > 0 {
		synthCfg.MaxQueryLength = cfg.Synthesis.MaxQueryLength
	}
	synthCfg.StrictAssignee = cfg.Synthesis.StrictAssignee

	stages := bot.Stages{
		Enricher:    enrichcontext.NewHandler(enrichcontext.LoadConfig(), conversations, log),
		Classifier:  classifyintent.NewHandler(classifyintent.LoadConfig(), completer, log),
		Extractor:   extractentities.NewHandler(extractentities.LoadConfig(), completer, log),
		Synthesizer: synthesizequery.NewHandler(synthCfg, mappings, dictionaries, completer, log),
	}

	processor := bot.NewProcessor(&bot.Config{
		MaxResults: cfg.Tracker.MaxResults,
		ReplyLimit: cfg.Synthesis.ReplyLimit,
	}, bot.Deps{
		Stages:        stages,
		Tracker:       tracker,
		Credentials:   credentials,
		Mappings:      mappings,
		Dictionaries:  dictionaries,
		Results:       results,
		Conversations: conversations,
		History:       recorder,
		Stats:         store,
		Observability: obs,
	}, log)

	// --- Zeebe stage workers ---
	var zeebe *camunda.Client
	var workers []*camunda.Worker
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress, config.GetDuration(cfg.Camunda.RequestTimeout))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		reg, err := loadRegistry(cfg.Camunda.RegistryPath)
		if err != nil {
			zapLog.Fatal("stage registry failed", zap.Error(err))
		}

		handlers := map[string]camunda.JobHandler{
			enrichcontext.TaskType:       stages.Enricher,
			classifyintent.TaskType:      stages.Classifier,
			extractentities.TaskType:     stages.Extractor,
			synthesizequery.TaskType:     stages.Synthesizer,
			teachmapping.TaskType:        teachmapping.NewHandler(teachmapping.LoadConfig(), mappings, log),
			refreshdictionaries.TaskType: refreshdictionaries.NewHandler(refreshdictionaries.LoadConfig(), dictionaries, credentials, log),
		}
		workers = startWorkers(zeebe, cfg, reg, handlers, log, zapLog)
		zapLog.Info("Stage workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP: messages, health and metrics ---
	mux := http.NewServeMux()
	mux.Handle("/api/v1/messages", bot.NewMessageHandler(processor, log))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := rc.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
		if zeebe != nil {
			if err := zeebe.HealthCheck(r.Context()); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "zeebe unavailable")
				return
			}
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("askbot stopped gracefully")
}

func newConversationStore(ctx context.Context, cfg *config.Config, store cache.Store, pg *database.PostgresClient) (conversation.Store, error) {
	if cfg.Conversation.Backend != "postgres" {
		return conversation.NewRedisStore(store, config.GetSeconds(cfg.Conversation.TTL)), nil
	}
	if pg == nil {
		return nil, fmt.Errorf("conversation backend postgres requires database.postgres.enabled")
	}
	s := conversation.NewPostgresStore(pg.GetDB())
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func loadRegistry(path string) (*registry.StageRegistry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	return registry.LoadRegistry(path)
}

func startWorkers(zeebe *camunda.Client, cfg *config.Config, reg *registry.StageRegistry, handlers map[string]camunda.JobHandler, log logger.Logger, zapLog *zap.Logger) []*camunda.Worker {
	var workers []*camunda.Worker
	for _, stage := range reg.Stages {
		handler, ok := handlers[stage.TaskType]
		if !ok {
			zapLog.Warn("no handler for registered stage", zap.String("taskType", stage.TaskType))
			continue
		}
		if !config.IsWorkerEnabled(cfg, stage.TaskType) {
			zapLog.Info("worker disabled", zap.String("taskType", stage.TaskType))
			continue
		}

		wcfg := config.GetWorkerConfig(cfg, stage.TaskType)
		maxJobs := wcfg.MaxJobsActive
		if maxJobs == 0 {
			maxJobs = cfg.Camunda.MaxJobsActive
		}
		timeout := reg.TimeoutFor(stage.TaskType, config.GetDuration(cfg.Camunda.Timeout))
		if wcfg.Timeout > 0 {
			timeout = config.GetDuration(wcfg.Timeout)
		}

		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), stage.TaskType, camunda.WorkerOptions{
			MaxJobsActive: maxJobs,
			Timeout:       timeout,
		}, handler, log))
	}
	return workers
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
