package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mdubba/jira-insights/app/api"
	"github.com/mdubba/jira-insights/app/cfg"
	"github.com/mdubba/jira-insights/app/insights"
	"github.com/mdubba/jira-insights/app/jira"
	"github.com/mdubba/jira-insights/app/pipeline"
	"github.com/mdubba/jira-insights/app/processor"
	"github.com/mdubba/jira-insights/app/slides"
	"github.com/mdubba/jira-insights/app/vectorstore"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Environment variables from a local .env file, if present
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	log.Printf("Jira Insights %s starting...", appCfg.Version)

	p, store, err := buildPipeline(appCfg)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	if appCfg.Serve {
		runServer(appCfg, p, store)
		return
	}

	runOnce(appCfg, p)
}

func buildPipeline(appCfg *cfg.Cfg) (*pipeline.Pipeline, *vectorstore.Store, error) {
	jiraClient := jira.NewClient(appCfg.JiraURL, appCfg.JiraUsername, appCfg.JiraAPIToken, appCfg.UserAgent)
	extractor := jira.NewExtractor(jiraClient, appCfg.JiraDataDir,
		time.Duration(appCfg.RateLimitDelay)*time.Second)

	proc := processor.NewProcessor(appCfg.ProcessedDataDir)

	store, err := vectorstore.NewStore(appCfg.WeaviateHost, appCfg.WeaviateScheme,
		appCfg.WeaviateAPIKey, appCfg.EmbeddingModel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	generator := insights.NewGenerator(appCfg.OpenAIAPIKey, "", appCfg.OpenAIModel,
		store, appCfg.InsightsDir)

	local := slides.LocalWriter{Dir: appCfg.PresentationsDir}

	var remote pipeline.RemotePresenter
	if appCfg.BeautifulAIAPIKey != "" {
		remote = slides.NewBeautifulAI(appCfg.BeautifulAIBaseURL, appCfg.BeautifulAIAPIKey,
			appCfg.PresentationsDir)
	} else {
		log.Printf("Beautiful.ai sync disabled (BEAUTIFUL_AI_API_KEY not set)")
	}

	return pipeline.New(extractor, proc, store, generator, local, remote,
		appCfg.JiraDataDir, appCfg.InsightsDir), store, nil
}

// runOnce executes a single pipeline run and exits non-zero on failure.
func runOnce(appCfg *cfg.Cfg, p *pipeline.Pipeline) {
	skip, err := pipeline.ParseSkips(appCfg.SkipStages)
	if err != nil {
		log.Fatalf("Invalid --skip value: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx, appCfg.JiraProjectKey, skip)
	if err != nil {
		log.Fatalf("Pipeline run failed: %v", err)
	}

	log.Printf("Pipeline run completed: %d issues, %d vector items", result.IssueCount, result.VectorItemCount)
	if result.LocalPresentation != "" {
		log.Printf("Presentation written to %s", result.LocalPresentation)
	}
	if result.RemotePresentationID != "" {
		log.Printf("Remote presentation: %s", result.RemotePresentationID)
	}
}

func runServer(appCfg *cfg.Cfg, p *pipeline.Pipeline, store *vectorstore.Store) {
	apiHandler := api.NewHandler(p, store, appCfg.JiraProjectKey, appCfg.InsightsDir)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute, // pipeline runs are synchronous
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("Endpoints available:")
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  Run pipeline:  http://localhost:%s/api/run (POST, requires API key)", appCfg.Port)
			log.Printf("  Status:        http://localhost:%s/api/status (requires API key)", appCfg.Port)
			log.Printf("  Search:        http://localhost:%s/api/search?q=<query> (requires API key)", appCfg.Port)
			log.Printf("  Issues:        http://localhost:%s/api/issues (requires API key)", appCfg.Port)
		} else {
			log.Printf("  API endpoints: DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Jira Insights server started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	log.Println("Jira Insights server shutdown complete")
}
