package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/oakline/assessmap/internal/config"
	"github.com/oakline/assessmap/internal/corpus"
	"github.com/oakline/assessmap/internal/embedding"
	"github.com/oakline/assessmap/internal/mapper"
	"github.com/oakline/assessmap/internal/observability"
	"github.com/oakline/assessmap/internal/server"
	"github.com/oakline/assessmap/internal/vector"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "assessmap",
		Short: "Semantic mapping service for mental health assessment questionnaires",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (optional)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mapping HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	checkBackendCmd := &cobra.Command{
		Use:   "check-backend",
		Short: "Probe the embedding backend and report its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckBackend(configPath)
		},
	}

	var (
		mapConversation string
		mapType         string
		mapCategory     string
		mapQuestion     string
		mapJSON         bool
	)
	mapCmd := &cobra.Command{
		Use:   "map [message]",
		Short: "Map a single message against the questionnaire corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(configPath, args[0], mapConversation, mapType, mapCategory, mapQuestion, mapJSON)
		},
	}
	mapCmd.Flags().StringVar(&mapConversation, "conversation", "default", "Conversation identifier")
	mapCmd.Flags().StringVar(&mapType, "type", "auto", "Mapping type: auto, question or option")
	mapCmd.Flags().StringVar(&mapCategory, "category", "", "Questionnaire category (option mapping)")
	mapCmd.Flags().StringVar(&mapQuestion, "question", "", "Question text (option mapping)")
	mapCmd.Flags().BoolVar(&mapJSON, "json", false, "Output result as JSON")

	corpusCmd := &cobra.Command{
		Use:   "corpus",
		Short: "Inspect the built-in questionnaire corpus",
	}
	corpusListCmd := &cobra.Command{
		Use:   "list",
		Short: "List categories and their question counts",
		Run: func(cmd *cobra.Command, args []string) {
			reg := corpus.New()
			for _, cat := range reg.Categories() {
				fmt.Printf("%-6s %d questions\n", cat, len(reg.Questions(cat)))
			}
		},
	}
	corpusQuestionsCmd := &cobra.Command{
		Use:   "questions [category]",
		Short: "List the questions of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := corpus.New()
			cat := corpus.Category(args[0])
			questions := reg.Questions(cat)
			if len(questions) == 0 {
				return fmt.Errorf("unknown category %q", args[0])
			}
			for _, q := range questions {
				fmt.Println(q)
			}
			return nil
		},
	}
	corpusCmd.AddCommand(corpusListCmd, corpusQuestionsCmd)

	rootCmd.AddCommand(serveCmd, checkBackendCmd, mapCmd, corpusCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// buildPipeline wires the embedding provider, cache and mapper from cfg.
func buildPipeline(cfg *config.Config, log *slog.Logger, metrics *observability.ServiceMetrics) (*corpus.Registry, *embedding.Cache, *mapper.Service, embedding.Backend, error) {
	var backend embedding.Backend
	if cfg.Matching.Mode != config.ModeKeyword {
		backend = embedding.NewOllamaClient(cfg.Embedding.BackendURL, cfg.Embedding.Model, cfg.Embedding.Timeout)
	}

	provider := embedding.NewProvider(backend, embedding.ProviderConfig{
		RetryCount: cfg.Embedding.RetryCount,
		RetryDelay: cfg.Embedding.RetryDelay,
	}, log, metrics)

	cache, err := embedding.NewCache(provider, cfg.Embedding.CacheSize, metrics)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("creating cache: %w", err)
	}

	reg := corpus.New()
	svc := mapper.New(reg, cache, mapper.Options{
		AbandonThreshold:   cfg.Matching.AbandonThresholdOrDefault(),
		MinQuestionOverlap: cfg.Matching.MinQuestionOverlap,
	}, log, metrics)

	return reg, cache, svc, backend, nil
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := buildLogger(cfg.Log)
	slog.SetDefault(log)

	registry := observability.NewMetricsRegistry()
	metrics := observability.NewServiceMetrics(registry)

	ctx := context.Background()
	tracerProvider, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "assessmap",
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	reg, cache, svc, backend, err := buildPipeline(cfg, log, metrics)
	if err != nil {
		return err
	}

	prefetcher := embedding.NewPrefetcher(cache, embedding.PrefetcherConfig{
		BatchSize:  cfg.Prefetch.BatchSize,
		QueueSize:  cfg.Prefetch.QueueSize,
		BatchDelay: cfg.Prefetch.BatchDelay,
	}, log, metrics)
	prefetcher.Start()

	var mirror *vector.Mirror
	var index *vector.QdrantIndex
	if cfg.Vector.Enabled {
		index, err = vector.NewQdrant(ctx, cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection)
		if err != nil {
			return fmt.Errorf("connecting vector index: %w", err)
		}
		mirror = vector.NewMirror(index, cache)
	}

	health := server.NewHealth(version)
	var probe func(ctx context.Context) error
	space := embedding.SpaceFallback
	if backend != nil {
		space = backend.Space()
		probe = func(ctx context.Context) error {
			_, err := backend.Embed(ctx, "ping")
			return err
		}
	}
	health.RegisterCheck("backend", server.BackendHealthChecker(space, probe))
	health.RegisterCheck("warmup", server.WarmupHealthChecker(reg.Texts(), cache.Len))

	srv := server.New(server.Config{
		Addr:       cfg.Server.Addr,
		Mapper:     svc,
		Prefetcher: prefetcher,
		Mirror:     mirror,
		Registry:   registry,
		Metrics:    metrics,
		Health:     health,
		Log:        log,
	})

	shutdown := server.NewShutdownHandler(nil, log)
	shutdown.RegisterHook("http-server", 10, srv.Shutdown)
	shutdown.RegisterHook("prefetcher", 20, prefetcher.Stop)
	if index != nil {
		shutdown.RegisterHook("vector-index", 90, func(ctx context.Context) error {
			return index.Close()
		})
	}
	shutdown.RegisterHook("tracing", 80, tracerProvider.Shutdown)
	shutdown.Start()

	go func() {
		<-shutdown.ShutdownCh()
		health.SetReady(false)
	}()

	prefetcher.WarmCorpus(reg)
	health.SetReady(true)

	if mirror != nil {
		go func() {
			n, err := mirror.SyncCorpus(context.Background(), reg)
			if err != nil {
				log.Error("corpus mirror sync failed", "error", err)
				return
			}
			log.Info("corpus mirrored to vector index", "entries", n, "collection", cfg.Vector.Collection)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-shutdown.ShutdownCh():
	}

	shutdown.Wait()
	return nil
}

func runCheckBackend(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Matching.Mode == config.ModeKeyword {
		fmt.Println("keyword mode: no embedding backend configured")
		return nil
	}

	client := embedding.NewOllamaClient(cfg.Embedding.BackendURL, cfg.Embedding.Model, cfg.Embedding.Timeout)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Embedding.Timeout)
	defer cancel()

	start := time.Now()
	values, err := client.Embed(ctx, "ping")
	if err != nil {
		fmt.Printf("backend %s (%s): UNREACHABLE: %v\n", cfg.Embedding.BackendURL, client.Space(), err)
		fmt.Println("the service would fall back to deterministic keyword embeddings")
		return err
	}
	fmt.Printf("backend %s (%s): OK, %d dimensions in %v\n", cfg.Embedding.BackendURL, client.Space(), len(values), time.Since(start))
	return nil
}

func runMap(configPath, message, conversation, mappingType, category, question string, asJSON bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := buildLogger(cfg.Log)

	_, _, svc, _, err := buildPipeline(cfg, log, nil)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var out mapper.Outcome
	switch mappingType {
	case "question":
		out, err = svc.MapQuestion(ctx, conversation, message)
	case "option":
		if category == "" || question == "" {
			return fmt.Errorf("--category and --question are required for option mapping")
		}
		out, err = svc.MapOption(ctx, corpus.Category(category), question, message)
	default:
		out, err = svc.MapAuto(ctx, conversation, message)
	}
	if err != nil {
		return err
	}

	if asJSON {
		data, _ := json.MarshalIndent(map[string]any{
			"mappingType": out.MappingType,
			"category":    out.Category,
			"question":    out.Question,
			"option":      out.Option,
			"score":       out.Score,
			"confidence":  out.Confidence,
		}, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("type:       %s\n", out.MappingType)
	fmt.Printf("category:   %s\n", out.Category)
	fmt.Printf("question:   %s\n", out.Question)
	if out.MappingType == mapper.MappingOption {
		fmt.Printf("option:     %s\n", out.Option)
		fmt.Printf("score:      %d\n", out.Score)
	}
	fmt.Printf("confidence: %.3f\n", out.Confidence)
	return nil
}
