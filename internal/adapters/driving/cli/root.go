// Package cli implements the docster command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	configfile "github.com/sujeethshingade/docster/internal/adapters/driven/config/file"
	"github.com/sujeethshingade/docster/internal/adapters/driven/llm/gemini"
	"github.com/sujeethshingade/docster/internal/adapters/driven/llm/ollama"
	"github.com/sujeethshingade/docster/internal/adapters/driven/storage/sqlite"
	"github.com/sujeethshingade/docster/internal/connectors/github"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
	"github.com/sujeethshingade/docster/internal/core/services"
	"github.com/sujeethshingade/docster/internal/logger"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "docster",
	Short: "Generate and chat with documentation for GitHub repositories",
	Long: `Docster fetches a GitHub repository, summarises its source files
with an LLM, aggregates the summaries into repository documentation,
and answers questions grounded in that documentation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.docster/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the CLI. Interrupts cancel the command context so an
// in-progress generation saves its partial work before exiting.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired services a command needs. Commands build only
// what they use: read-only commands never touch the network.
type app struct {
	cfg   configfile.Config
	store driven.DocStore
	llm   driven.LLMService
}

// newApp loads configuration and opens the documentation store.
func newApp() (*app, error) {
	cfg, err := configfile.Load(configPath)
	if err != nil {
		return nil, err
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open documentation store: %w", err)
	}

	return &app{cfg: cfg, store: store}, nil
}

// close releases the app's resources.
func (a *app) close() {
	if a.llm != nil {
		a.llm.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// buildLLM constructs the configured generation backend.
func (a *app) buildLLM() (driven.LLMService, error) {
	if a.llm != nil {
		return a.llm, nil
	}

	switch a.cfg.LLM.Provider {
	case "ollama":
		a.llm = ollama.New(ollama.Config{
			BaseURL: a.cfg.LLM.OllamaURL,
			Model:   a.cfg.LLM.Model,
		})
	default:
		svc, err := gemini.New(gemini.Config{
			APIKey: a.cfg.LLM.GeminiAPIKey,
			Model:  a.cfg.LLM.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("configure gemini backend (set GEMINI_API_KEY): %w", err)
		}
		a.llm = svc
	}

	logger.Debug("Using %s model %s", a.cfg.LLM.Provider, a.llm.ModelName())
	return a.llm, nil
}

// buildGenerator wires the full documentation pipeline.
func (a *app) buildGenerator() (*services.Generator, error) {
	llm, err := a.buildLLM()
	if err != nil {
		return nil, err
	}

	var clientOpts []github.ClientOption
	if a.cfg.GitHub.BaseURL != "" {
		clientOpts = append(clientOpts, github.WithBaseURL(a.cfg.GitHub.BaseURL))
	}
	client := github.NewClient(a.cfg.GitHub.Token, clientOpts...)

	var fetcherOpts []github.FetcherOption
	var selectorOpts []services.SelectorOption
	if a.cfg.Generator.MaxFileKB > 0 {
		maxBytes := int64(a.cfg.Generator.MaxFileKB) * 1024
		fetcherOpts = append(fetcherOpts, github.WithMaxFileBytes(maxBytes))
		selectorOpts = append(selectorOpts, services.WithMaxFileBytes(maxBytes))
	}
	fetcher := github.NewFetcher(client, fetcherOpts...)

	var chunkerOpts []services.ChunkerOption
	if a.cfg.Generator.ChunkTokens > 0 {
		chunkerOpts = append(chunkerOpts, services.WithChunkTokens(a.cfg.Generator.ChunkTokens))
	}

	retry := services.DefaultRetryPolicy()
	var generatorOpts []services.GeneratorOption
	if a.cfg.Generator.Concurrency > 0 {
		generatorOpts = append(generatorOpts, services.WithConcurrency(a.cfg.Generator.Concurrency))
	}

	return services.NewGenerator(
		fetcher,
		a.store,
		services.NewSelector(selectorOpts...),
		services.NewChunker(chunkerOpts...),
		services.NewSummarizer(llm, retry),
		services.NewAggregator(llm, retry),
		generatorOpts...,
	), nil
}

// buildChat wires the chat answerer.
func (a *app) buildChat() (*services.ChatAnswerer, error) {
	llm, err := a.buildLLM()
	if err != nil {
		return nil, err
	}
	retriever := services.NewRetriever(a.store)
	return services.NewChatAnswerer(a.store, retriever, llm, services.DefaultRetryPolicy()), nil
}
