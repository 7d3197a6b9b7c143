package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/leadsmith/leadsmith/internal/app"
	"github.com/leadsmith/leadsmith/internal/config"
	"github.com/leadsmith/leadsmith/internal/enrich"
	enrichgemini "github.com/leadsmith/leadsmith/internal/enrich/gemini"
	"github.com/leadsmith/leadsmith/internal/pipeline"
	"github.com/leadsmith/leadsmith/internal/scrape"
	"github.com/leadsmith/leadsmith/internal/search"
	searchgemini "github.com/leadsmith/leadsmith/internal/search/gemini"
	"github.com/leadsmith/leadsmith/pkg/leadapi"
	"github.com/leadsmith/leadsmith/pkg/pipeline/redact"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "local":
		os.Exit(runLocal(ctx, os.Args[2:]))
	case "remote":
		os.Exit(runRemote(ctx, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

// runFlags are the flags shared by the local and remote subcommands.
type runFlags struct {
	inputPath      string
	searchQuery    string
	configPath     string
	workers        int
	maxRetries     int
	requestTimeout time.Duration
	rateLimitRPS   float64
	failFast       bool

	geminiModel   string
	geminiBaseURL string
	structured    bool

	userAgent       string
	scrapeTimeout   time.Duration
	maxContactPages int
	socialFallback  string
}

func registerRunFlags(fs *flag.FlagSet, pipeEnv pipeline.Options, gemEnv geminiEnv) *runFlags {
	rf := &runFlags{}
	fs.StringVar(&rf.inputPath, "input", "", "Input CSV file path (must include 'name' and 'address' columns)")
	fs.StringVar(&rf.searchQuery, "search-query", defaultString("LEADSMITH_SEARCH_QUERY", ""), "Listing query recorded in the search_query column for rows without their own (env: LEADSMITH_SEARCH_QUERY)")
	fs.StringVar(&rf.configPath, "config", defaultString("LEADSMITH_CONFIG", ""), "Optional YAML config file path (env: LEADSMITH_CONFIG)")
	fs.IntVar(&rf.workers, "workers", pipeEnv.Workers, "Number of concurrent enrichment workers (env: WORKERS)")
	fs.IntVar(&rf.maxRetries, "max-retries", pipeEnv.MaxRetries, "Max retries per business for transient failures (env: MAX_RETRIES)")
	fs.DurationVar(&rf.requestTimeout, "request-timeout", pipeEnv.RequestTimeout, "Per-business enrichment timeout (env: REQUEST_TIMEOUT)")
	fs.Float64Var(&rf.rateLimitRPS, "rate-limit-rps", pipeEnv.RateLimitRPS, "Global request rate limit (RPS), 0 disables (env: RATE_LIMIT_RPS)")
	fs.BoolVar(&rf.failFast, "fail-fast", pipeEnv.FailFast, "Fail fast on first enrichment error (env: FAIL_FAST)")
	fs.StringVar(&rf.geminiModel, "gemini-model", gemEnv.model, "Gemini model name (env: GEMINI_MODEL)")
	fs.StringVar(&rf.geminiBaseURL, "gemini-base-url", gemEnv.baseURL, "Gemini API base URL override (env: GEMINI_BASE_URL)")
	fs.BoolVar(&rf.structured, "structured", gemEnv.structured, "Run model-assisted extraction over scraped pages (env: GEMINI_STRUCTURED)")
	fs.StringVar(&rf.userAgent, "user-agent", "", "User-Agent header for page fetches (default: browser-like)")
	fs.DurationVar(&rf.scrapeTimeout, "scrape-timeout", 0, "Per-page fetch timeout (default 15s)")
	fs.IntVar(&rf.maxContactPages, "max-contact-pages", 0, "Max contact pages to try per site beyond the root (default 5)")
	fs.StringVar(&rf.socialFallback, "social-fallback", "", "Social search trigger: emails or emails_and_phones (default emails)")
	return rf
}

func runLocal(ctx context.Context, args []string) int {
	pipeEnv, err := loadPipelineOptionsFromEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}
	gemEnv, err := loadGeminiEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	fs := flag.NewFlagSet("local", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	rf := registerRunFlags(fs, pipeEnv, gemEnv)
	var outputPath string
	var storePath string
	fs.StringVar(&outputPath, "output", "", "Output CSV file path")
	fs.StringVar(&storePath, "store", defaultString("LEADSMITH_STORE", ""), "Optional SQLite lead store path (env: LEADSMITH_STORE)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if rf.inputPath == "" || outputPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "local requires --input and --output")
		return 2
	}

	enricher, err := buildEngine(ctx, rf, gemEnv)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "setup error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	if err := app.RunLocal(ctx, app.LocalParams{
		InputPath:   rf.inputPath,
		OutputPath:  outputPath,
		StorePath:   storePath,
		SearchQuery: rf.searchQuery,
	}, rf.pipelineOptions(), enricher); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "local run failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	return 0
}

func runRemote(ctx context.Context, args []string) int {
	pipeEnv, err := loadPipelineOptionsFromEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}
	gemEnv, err := loadGeminiEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	fs := flag.NewFlagSet("remote", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	rf := registerRunFlags(fs, pipeEnv, gemEnv)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if rf.inputPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "remote requires --input")
		return 2
	}

	env, err := leadapi.LoadEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "lead api env error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	enricher, err := buildEngine(ctx, rf, gemEnv)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "setup error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	if err := app.RunRemote(ctx, env, app.RemoteParams{
		InputPath:   rf.inputPath,
		SearchQuery: rf.searchQuery,
	}, rf.pipelineOptions(), enricher); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "remote run failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	return 0
}

func (rf *runFlags) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Workers:        rf.workers,
		MaxRetries:     rf.maxRetries,
		RequestTimeout: rf.requestTimeout,
		RateLimitRPS:   rf.rateLimitRPS,
		FailFast:       rf.failFast,
	}
}

// buildEngine assembles the enrichment engine from config file, env, and
// flags. The web search and structured extraction stages require a Gemini
// key; without one the engine scrapes only.
func buildEngine(ctx context.Context, rf *runFlags, gemEnv geminiEnv) (*enrich.Engine, error) {
	fileCfg, err := config.Load(rf.configPath)
	if err != nil {
		return nil, err
	}

	scrapeCfg := scrape.Config{
		UserAgent: rf.userAgent,
		Timeout:   rf.scrapeTimeout,
	}
	maxContactPages := rf.maxContactPages
	socialFallback := rf.socialFallback
	if fileCfg != nil {
		if scrapeCfg.UserAgent == "" {
			scrapeCfg.UserAgent = fileCfg.Scrape.UserAgent
		}
		if scrapeCfg.Timeout == 0 {
			scrapeCfg.Timeout = fileCfg.ScrapeTimeout()
		}
		scrapeCfg.MaxTextBytes = fileCfg.Scrape.MaxTextBytes
		if maxContactPages == 0 {
			maxContactPages = fileCfg.Scrape.MaxContactPages
		}
		if socialFallback == "" {
			socialFallback = fileCfg.Enrich.SocialFallbackTrigger
		}
	}

	var searcher search.Searcher
	var structured enrich.StructuredExtractor
	if gemEnv.apiKey != "" {
		gs, err := searchgemini.New(ctx, searchgemini.Config{
			APIKey:  gemEnv.apiKey,
			Model:   rf.geminiModel,
			BaseURL: rf.geminiBaseURL,
		})
		if err != nil {
			return nil, err
		}
		searcher = gs

		if rf.structured {
			ge, err := enrichgemini.New(ctx, enrichgemini.Config{
				APIKey:  gemEnv.apiKey,
				Model:   rf.geminiModel,
				BaseURL: rf.geminiBaseURL,
			})
			if err != nil {
				return nil, err
			}
			structured = ge
		}
	} else {
		_, _ = fmt.Fprintln(os.Stderr, "warning: GEMINI_API_KEY not set; running without web search enrichment")
	}

	return enrich.New(scrape.NewFetcher(scrapeCfg), searcher, structured, enrich.Config{
		MaxContactPages:       maxContactPages,
		SocialFallbackTrigger: socialFallback,
	}), nil
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `leadsmith: contact enrichment for business lead lists

Usage:
  leadsmith <command> [flags]

Commands:
  local   Enrich a local seed CSV and write a local output CSV
  remote  Enrich a local seed CSV and push results to the lead API

Examples:
  leadsmith local --input businesses.csv --output leads.csv
  leadsmith local --input businesses.csv --output leads.csv --store leads.db
  leadsmith local --input businesses.csv --output leads.csv --search-query "coffee shops in Oakland"
  leadsmith remote --input businesses.csv

Environment (lead API, remote mode):
  LEADAPI_URL         Lead API base URL
  LEADAPI_TOKEN       Bearer token (or LEADAPI_TOKEN_FILE for a mounted file)
  DEFAULT_CA_PATH     Optional PEM bundle to trust for TLS

Environment (Gemini):
  GEMINI_API_KEY      Gemini API key (omit to disable search enrichment)
  GEMINI_MODEL        Gemini model name
  GEMINI_BASE_URL     Optional base URL override (proxies/testing)
  GEMINI_STRUCTURED   If true/1, run model-assisted extraction on page text

`)
}

type geminiEnv struct {
	apiKey     string
	model      string
	baseURL    string
	structured bool
}

func loadGeminiEnv() (geminiEnv, error) {
	structured, err := envBool("GEMINI_STRUCTURED")
	if err != nil {
		return geminiEnv{}, err
	}
	env := geminiEnv{
		apiKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		model:      strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
		baseURL:    strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		structured: structured,
	}
	if env.apiKey != "" && env.model == "" {
		return geminiEnv{}, fmt.Errorf("GEMINI_MODEL is required when GEMINI_API_KEY is set")
	}
	return env, nil
}

func loadPipelineOptionsFromEnv() (pipeline.Options, error) {
	workers, err := envInt("WORKERS", 3)
	if err != nil {
		return pipeline.Options{}, err
	}
	maxRetries, err := envInt("MAX_RETRIES", 3)
	if err != nil {
		return pipeline.Options{}, err
	}
	requestTimeout, err := envDuration("REQUEST_TIMEOUT", 90*time.Second)
	if err != nil {
		return pipeline.Options{}, err
	}
	failFast, err := envBool("FAIL_FAST")
	if err != nil {
		return pipeline.Options{}, err
	}
	rateLimitRPS, err := envFloat("RATE_LIMIT_RPS", 0)
	if err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.Options{
		Workers:        workers,
		MaxRetries:     maxRetries,
		RequestTimeout: requestTimeout,
		RateLimitRPS:   rateLimitRPS,
		FailFast:       failFast,
	}, nil
}

func defaultString(varName string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envBool(varName string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return false, nil
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
