package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aiamplify/Link2Social-Studio-App-sub001/generator"
	"github.com/aiamplify/Link2Social-Studio-App-sub001/publisher"
	"github.com/aiamplify/Link2Social-Studio-App-sub001/schedule"
	"github.com/aiamplify/Link2Social-Studio-App-sub001/server"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to config.json")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	topic := flag.String("topic", "", "one-shot: generate a carousel about this topic")
	url := flag.String("url", "", "one-shot: generate a carousel from this link")
	article := flag.Bool("article", false, "one-shot: generate a long-form article instead of a carousel")
	platformsCSV := flag.String("platforms", "twitter,linkedin", "comma-separated target platforms")
	outDir := flag.String("out", "out", "directory for rendered slide images in one-shot mode")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	logger := buildLogger(*verbose)
	defer logger.Sync()

	cfg, err := publisher.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	backend, err := buildBackend(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pipeline, err := generator.NewPipeline(backend, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serve {
		runServer(ctx, cfg, pipeline, logger, *addr)
		return
	}

	source, err := oneShotSource(*topic, *url)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *article {
		runArticle(ctx, pipeline, source, *outDir, logger)
		return
	}
	runCarousel(ctx, pipeline, source, *platformsCSV, *outDir, logger)
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

func oneShotSource(topic, url string) (generator.Source, error) {
	switch {
	case topic != "" && url != "":
		return generator.Source{}, fmt.Errorf("--topic and --url are mutually exclusive")
	case url != "":
		return generator.Source{Kind: generator.SourceURL, Value: url}, nil
	case topic != "":
		return generator.Source{Kind: generator.SourceTopic, Value: topic}, nil
	default:
		return generator.Source{}, fmt.Errorf("--topic or --url is required (or use --serve)")
	}
}

func buildBackend(ctx context.Context, cfg publisher.Config) (generator.Backend, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key in config")
	}
	settings := &generator.BackendSettings{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		ImageModel: cfg.LLM.ImageModel,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
	}
	switch cfg.LLM.Provider {
	case "gemini":
		return generator.NewGeminiBackendFromConfig(ctx, settings)
	case "openai":
		return generator.NewOpenAIBackendFromConfig(settings)
	case "deepseek":
		// DeepSeek exposes an OpenAI-compatible endpoint; base_url is required.
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAIBackendFromConfig(settings)
	case "mock":
		return generator.MockBackend{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

func runServer(ctx context.Context, cfg publisher.Config, pipeline *generator.Pipeline, logger *zap.Logger, addrOverride string) {
	store, err := schedule.Open(cfg.ScheduleFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	adapters := buildAdapters(cfg, logger)
	if len(adapters) > 0 {
		runner := schedule.NewRunner(store, adapters, logger, time.Minute)
		go runner.Run(ctx)
	}

	srv, err := server.New(pipeline, store, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	listen := cfg.ServerAddr
	if addrOverride != "" {
		listen = addrOverride
	}
	if listen == "" {
		listen = ":8080"
	}
	logger.Info("starting web server", zap.String("addr", listen))
	if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildAdapters(cfg publisher.Config, logger *zap.Logger) []publisher.Adapter {
	var adapters []publisher.Adapter
	if cfg.Blotato != nil {
		for name := range cfg.Blotato.AccountIDs {
			a, err := publisher.NewBlotatoAdapter(cfg.Blotato, generator.Platform(name), nil, logger)
			if err != nil {
				logger.Warn("skipping blotato adapter", zap.String("platform", name), zap.Error(err))
				continue
			}
			adapters = append(adapters, a)
		}
	}
	if cfg.Blog != nil {
		if a, err := publisher.NewBlogAdapter(cfg.Blog, nil); err == nil {
			adapters = append(adapters, a)
		} else {
			logger.Warn("skipping blog adapter", zap.Error(err))
		}
	}
	return adapters
}

func runCarousel(ctx context.Context, pipeline *generator.Pipeline, source generator.Source, platformsCSV, outDir string, logger *zap.Logger) {
	var platforms []generator.Platform
	for _, p := range strings.Split(platformsCSV, ",") {
		if p = strings.TrimSpace(p); p != "" {
			platforms = append(platforms, generator.Platform(p))
		}
	}

	result, err := pipeline.GenerateCarousel(ctx, generator.CarouselRequest{
		Source:     source,
		Platforms:  platforms,
		OnProgress: func(stage string) { logger.Info(stage) },
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, post := range result.Captions {
		fmt.Printf("--- %s (%d/%d chars)\n%s\n\n", post.Platform, len(post.Content), post.Limit.Characters, post.Content)
	}
	writeArtifacts(result.Slides, outDir, "slide", logger)
}

func runArticle(ctx context.Context, pipeline *generator.Pipeline, source generator.Source, outDir string, logger *zap.Logger) {
	result, err := pipeline.GenerateArticle(ctx, generator.ArticleRequest{
		Source:     source,
		ImageCount: 2,
		OnProgress: func(stage string) { logger.Info(stage) },
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("# %s\n\n_%s_\n\n%s\n", result.Title, result.Subtitle, result.Content)
	writeArtifacts(result.Visuals, outDir, "visual", logger)
}

func writeArtifacts(artifacts []generator.Artifact, outDir, prefix string, logger *zap.Logger) {
	wrote := false
	for _, a := range artifacts {
		if a.Status != generator.ArtifactComplete {
			logger.Warn("artifact failed to render", zap.String("kind", prefix), zap.Int("index", a.Index))
			continue
		}
		if !wrote {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return
			}
			wrote = true
		}
		path := filepath.Join(outDir, fmt.Sprintf("%s-%d.png", prefix, a.Index+1))
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		logger.Info("wrote artifact", zap.String("path", path))
	}
}
