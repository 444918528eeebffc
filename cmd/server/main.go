package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hubenschmidt/speakscore-engine/internal/alignclient"
	"github.com/hubenschmidt/speakscore-engine/internal/httpkit"
	"github.com/hubenschmidt/speakscore-engine/internal/jobqueue"
	"github.com/hubenschmidt/speakscore-engine/internal/llmannotate"
	"github.com/hubenschmidt/speakscore-engine/internal/modelhealth"
	"github.com/hubenschmidt/speakscore-engine/internal/phonemeclient"
	"github.com/hubenschmidt/speakscore-engine/internal/pipeline"
	"github.com/hubenschmidt/speakscore-engine/internal/sttclient"
	"github.com/hubenschmidt/speakscore-engine/internal/trace"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := loadConfig()
	pool := httpkit.Pool{Size: cfg.modelPoolSize, Timeout: cfg.modelTimeout}

	var tracer *trace.Tracer
	if cfg.postgresURL != "" {
		store, err := trace.Open(cfg.postgresURL)
		if err != nil {
			slog.Warn("trace store unavailable, continuing without tracing", "error", err)
		} else {
			tracer = trace.NewTracer(store)
			defer tracer.Close()
		}
	}

	var distributed *jobqueue.RedisStore
	if cfg.redisURL != "" {
		rs, err := jobqueue.NewRedisStore(cfg.redisURL)
		if err != nil {
			slog.Warn("redis store unavailable, falling back to in-process only", "error", err)
		} else {
			distributed = rs
			defer rs.Close()
		}
	}
	jobStore := jobqueue.NewStore(distributed, cfg.jobTTL)
	defer jobStore.Close()

	llmBackends := map[string]llmannotate.Client{}
	if cfg.openaiAPIKey != "" {
		llmBackends["openai"] = llmannotate.NewOpenAIClient(cfg.openaiAPIKey, cfg.openaiModel)
	}
	if cfg.anthropicAPIKey != "" {
		llmBackends["anthropic"] = llmannotate.NewAnthropicClient(cfg.anthropicAPIKey, cfg.anthropicURL, cfg.anthropicModel)
	}
	var llmRouter *llmannotate.Router
	if len(llmBackends) > 0 {
		llmRouter = llmannotate.NewRouter(llmBackends, cfg.llmEngine)
	}

	pl := pipeline.New(pipeline.Config{
		STT:           sttclient.NewHTTPClient(cfg.sttURL, pool),
		Aligner:       alignclient.NewHTTPClient(cfg.alignURL, pool),
		Phoneme:       phonemeclient.NewHTTPClient(cfg.phonemeURL, pool),
		LLM:           llmRouter,
		LLMEngine:     cfg.llmEngine,
		Tracer:        tracer,
		EngineVersion: cfg.engineVersion,
	})

	modelChecker := modelhealth.NewChecker(modelhealth.NewRegistry(map[string]modelhealth.ServiceMeta{
		"stt":     {Category: "stt", HealthURL: cfg.sttURL + "/health"},
		"align":   {Category: "align", HealthURL: cfg.alignURL + "/health"},
		"phoneme": {Category: "phoneme", HealthURL: cfg.phonemeURL + "/health"},
	}))

	d := &deps{
		jobStore:       jobStore,
		pipeline:       pl,
		modelChecker:   modelChecker,
		maxUploadBytes: cfg.maxUploadBytes,
		pending:        &sync.Map{},
	}
	d.worker = jobqueue.NewWorker(jobStore, d.runJob, cfg.maxConcurrentJobs)

	mux := http.NewServeMux()
	registerRoutes(mux, d)

	srv := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server_listening", "port", cfg.port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server_error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_error", "error", err)
	}
}
