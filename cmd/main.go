package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/arlegis/billbot/internal/models"
	"github.com/arlegis/billbot/internal/types"
	cfgPkg "github.com/arlegis/billbot/pkg/config"
	"github.com/arlegis/billbot/pkg/fetcher"
	"github.com/arlegis/billbot/pkg/ingest"
	"github.com/arlegis/billbot/pkg/llm"
	"github.com/arlegis/billbot/pkg/store"
	"github.com/arlegis/billbot/pkg/warehouse"
	"github.com/arlegis/billbot/server"
)

type Config struct {
	Backend         string
	BaseURL         string
	DBUrl           string
	BillsDir        string
	CSVDir          string
	FetchURL        string
	Model           string
	EmbedModel      string
	TableName       string
	SearchService   string
	ChunkSize       int
	ChunkOverlap    int
	VectorDim       int
	BatchSize       int
	MaxTokens       int
	RetrievedChunks int
	HistorySize     int
	RateLimit       float64
	Temperature     float64
	Streaming       bool
	ServeAddr       string

	Snowflake struct {
		Account   string
		User      string
		Password  string
		Role      string
		Warehouse string
		Database  string
		Schema    string
	}
}

func main() {
	config := parseFlags()

	if err := run(config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Config {
	var config Config
	var configPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&config.Backend, "backend", "cortex", "Chunk store backend: cortex or local")
	flag.StringVar(&config.BaseURL, "ollama-url", "", "Ollama server URL (local backend)")
	flag.StringVar(&config.DBUrl, "db-url", "", "PostgreSQL connection string (local backend)")
	flag.StringVar(&config.BillsDir, "bills", "", "Directory of bill PDFs to ingest")
	flag.StringVar(&config.CSVDir, "csv-out", "", "Directory for per-bill chunk CSV exports")
	flag.StringVar(&config.FetchURL, "fetch-url", "", "Listing page to download bill PDFs from")
	flag.StringVar(&config.Model, "model", "", "Model for answer generation")
	flag.StringVar(&config.TableName, "table", "", "Chunk table name")
	flag.IntVar(&config.ChunkSize, "chunk-size", 0, "Size of text chunks in characters")
	flag.IntVar(&config.ChunkOverlap, "chunk-overlap", 0, "Character overlap between chunks")
	flag.IntVar(&config.BatchSize, "batch-size", 0, "Batch size for store operations")
	flag.IntVar(&config.MaxTokens, "max-tokens", 0, "Maximum tokens for LLM response")
	flag.IntVar(&config.RetrievedChunks, "chunks", 0, "Number of context chunks to retrieve")
	flag.BoolVar(&config.Streaming, "stream", true, "Enable streaming responses (local backend)")
	flag.Float64Var(&config.Temperature, "temperature", 0, "Set the LLM temperature")
	flag.StringVar(&config.ServeAddr, "serve", "", "Run the WebSocket chat server on this address instead of the CLI loop")
	flag.Parse()

	cfg, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Flags win; anything unset falls back to the config file.
	if config.BaseURL == "" {
		config.BaseURL = cfg.LLM.BaseURL
	}
	if config.DBUrl == "" {
		config.DBUrl = cfg.Database.URL
	}
	if config.BillsDir == "" {
		config.BillsDir = cfg.Ingest.BillsDir
	}
	if config.CSVDir == "" {
		config.CSVDir = cfg.Ingest.CSVDir
	}
	if config.FetchURL == "" {
		config.FetchURL = cfg.Fetcher.ListingURL
	}
	if config.Model == "" {
		config.Model = cfg.LLM.Model
	}
	if config.ChunkSize == 0 {
		config.ChunkSize = cfg.Ingest.ChunkSize
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = cfg.Ingest.ChunkOverlap
	}
	if config.BatchSize == 0 {
		config.BatchSize = cfg.Database.BatchSize
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = cfg.LLM.MaxTokens
	}
	if config.RetrievedChunks == 0 {
		config.RetrievedChunks = cfg.Chat.RetrievedChunks
	}
	if config.Temperature == 0 {
		config.Temperature = cfg.LLM.Temperature
	}
	// -stream has a true default, so a bool zero-check can't tell "unset"
	// from "off"; only an explicit flag overrides the config file.
	if !flagWasSet("stream") {
		config.Streaming = cfg.Chat.Streaming
	}
	if config.TableName == "" {
		if config.Backend == "local" {
			config.TableName = cfg.Database.TableName
		} else {
			config.TableName = cfg.Warehouse.TableName
		}
	}
	config.EmbedModel = cfg.LLM.EmbedModel
	config.VectorDim = cfg.Database.VectorDim
	config.HistorySize = cfg.Chat.HistorySize
	config.RateLimit = cfg.Fetcher.RateLimit
	config.SearchService = cfg.Warehouse.SearchService
	config.Snowflake.Account = cfg.Warehouse.Account
	config.Snowflake.User = cfg.Warehouse.User
	config.Snowflake.Password = cfg.Warehouse.Password
	config.Snowflake.Role = cfg.Warehouse.Role
	config.Snowflake.Warehouse = cfg.Warehouse.Warehouse
	config.Snowflake.Database = cfg.Warehouse.Database
	config.Snowflake.Schema = cfg.Warehouse.Schema

	cfg.Ingest.ChunkSize = config.ChunkSize
	cfg.Ingest.ChunkOverlap = config.ChunkOverlap
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		os.Exit(1)
	}

	return config
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(config Config) error {
	ctx := context.Background()

	chunkStore, completer, chatEngine, err := buildBackend(config)
	if err != nil {
		return err
	}
	defer chunkStore.Close()

	if config.FetchURL != "" {
		if err := fetchBills(ctx, config); err != nil {
			return err
		}
	}

	if config.BillsDir != "" {
		if _, err := os.Stat(config.BillsDir); err == nil {
			if err := ingestBills(ctx, config, chunkStore); err != nil {
				return err
			}
		} else {
			color.Yellow("bills directory %s not found, skipping ingestion", config.BillsDir)
		}
	}

	if config.ServeAddr != "" {
		srv := server.New(server.Config{
			Model:           config.Model,
			RetrievedChunks: config.RetrievedChunks,
			HistorySize:     config.HistorySize,
			Streaming:       config.Streaming,
		}, chunkStore, completer, chatEngine)
		return srv.ListenAndServe(config.ServeAddr)
	}

	return chatLoop(ctx, config, chunkStore, completer, chatEngine)
}

// buildBackend wires up the selected storage/generation backend. The chat
// engine is nil for cortex; generation then goes through the warehouse.
func buildBackend(config Config) (types.ChunkStore, types.Completer, *llm.ChatEngine, error) {
	switch config.Backend {
	case "cortex":
		wh, err := warehouse.NewWithConfig(warehouse.WarehouseConfig{
			Account:       config.Snowflake.Account,
			User:          config.Snowflake.User,
			Password:      config.Snowflake.Password,
			Role:          config.Snowflake.Role,
			Warehouse:     config.Snowflake.Warehouse,
			Database:      config.Snowflake.Database,
			Schema:        config.Snowflake.Schema,
			TableName:     config.TableName,
			SearchService: config.SearchService,
			SearchLimit:   config.RetrievedChunks,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize warehouse: %v", err)
		}
		return wh, wh, nil, nil

	case "local":
		embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			Model:   config.EmbedModel,
			BaseURL: config.BaseURL,
		})
		if err != nil {
			return nil, nil, nil, err
		}

		vectorStore, err := store.NewWithConfig(store.VectorStoreConfig{
			ConnString:  config.DBUrl,
			TableName:   config.TableName,
			VectorDim:   config.VectorDim,
			BatchSize:   config.BatchSize,
			SearchLimit: config.RetrievedChunks,
			Embedder:    embedder,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize vector store: %v", err)
		}

		chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
			Model:       config.Model,
			MaxTokens:   config.MaxTokens,
			BaseURL:     config.BaseURL,
			Temperature: config.Temperature,
		})
		if err != nil {
			vectorStore.Close()
			return nil, nil, nil, fmt.Errorf("failed to initialize chat engine: %v", err)
		}

		return vectorStore, chatEngine, chatEngine, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown backend %q (want cortex or local)", config.Backend)
	}
}

func fetchBills(ctx context.Context, config Config) error {
	color.Blue("\nFetching bill PDFs from %s\n", config.FetchURL)

	fetchBar := getProgressBar(-1, "⬇ Downloading bills...")
	f, err := fetcher.NewWithConfig(fetcher.FetcherConfig{
		ListingURL: config.FetchURL,
		OutDir:     config.BillsDir,
		RateLimit:  config.RateLimit,
		OnProgress: func(name string) {
			fetchBar.Add(1)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize fetcher: %v", err)
	}

	n, err := f.Fetch(ctx)
	fetchBar.Finish()
	if err != nil {
		return fmt.Errorf("failed to fetch bills: %v", err)
	}

	color.Green("\n✓ Downloaded %d bills\n", n)
	return nil
}

func ingestBills(ctx context.Context, config Config, chunkStore types.ChunkStore) error {
	color.Blue("\nStarting bill ingestion from %s\n", config.BillsDir)

	processingBar := getProgressBar(countPDFs(config.BillsDir), "🔄 Processing bills...")

	ingestor := ingest.NewWithConfig(ingest.IngestorConfig{
		BillsDir:     config.BillsDir,
		CSVDir:       config.CSVDir,
		ChunkSize:    config.ChunkSize,
		ChunkOverlap: config.ChunkOverlap,
		OnProgress: func(file string) {
			processingBar.Add(1)
		},
	})

	records, err := ingestor.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to ingest bills: %v", err)
	}
	processingBar.Finish()
	color.Green("\n✓ Processed into %d chunks\n", len(records))

	if len(records) == 0 {
		return nil
	}

	storageBar := getProgressBar(len(records), "💾 Storing chunks...")
	batchSize := config.BatchSize
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		if err := chunkStore.Store(ctx, batch); err != nil {
			return fmt.Errorf("failed to store batch: %v", err)
		}
		storageBar.Add(len(batch))
	}
	storageBar.Finish()
	color.Green("\n✓ Storage complete\n")

	return nil
}

func countPDFs(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			n++
		}
	}
	return n
}

func showBills(ctx context.Context, chunkStore types.ChunkStore) {
	stats, err := chunkStore.Stats(ctx)
	if err == nil {
		color.Blue("Bills loaded: %d (latest filing: %s)", stats.TotalBills, stats.LatestFiledDate)
	}

	bills, err := chunkStore.RecentBills(ctx, 5)
	if err != nil || len(bills) == 0 {
		return
	}

	color.Blue("\nRecent bills:")
	for _, b := range bills {
		name := strings.TrimSuffix(b.SourceFile, ".pdf")
		fmt.Printf("  %s — %s (Filed: %s, Sponsor: %s)\n", name, b.Subtitle, b.DateFiled, b.Sponsor)
	}
}

func chatLoop(ctx context.Context, config Config, chunkStore types.ChunkStore, completer types.Completer, chatEngine *llm.ChatEngine) error {
	color.Cyan("\nAsk me anything about bills filed for the 2025 session (type 'exit' to quit)")
	showBills(ctx, chunkStore)

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	var history []models.ChatMessage

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.ToLower(question) == "exit" {
			break
		}

		querySpinner := getSpinner("🔍 Searching bills...")
		chunks, err := chunkStore.Search(ctx, question, config.RetrievedChunks)
		querySpinner.Finish()
		if err != nil {
			color.Red("Error searching bills: %v\n", err)
			continue
		}

		stats, err := chunkStore.Stats(ctx)
		if err != nil {
			color.Red("Error loading bill stats: %v\n", err)
			continue
		}

		prompt := llm.BuildPrompt(llm.PromptData{
			Question: question,
			Stats:    stats,
			Chunks:   chunks,
			History:  history,
		})

		var answer string
		if config.Streaming && chatEngine != nil {
			stream, err := chatEngine.CompleteStream(ctx, prompt)
			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}

			fmt.Print("\n")
			assistantPrompt("Assistant: ")
			for chunk := range stream {
				if strings.HasPrefix(chunk, "Error:") {
					color.Red("\n%s", chunk)
					break
				}
				fmt.Print(chunk)
				answer += chunk
			}
			fmt.Print("\n")
		} else {
			responseSpinner := getSpinner("🤖 Generating response...")
			answer, err = completer.Complete(ctx, config.Model, prompt)
			responseSpinner.Finish()
			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}
			assistantPrompt("\nAssistant: %s\n", answer)
		}

		history = append(history,
			models.ChatMessage{Role: "user", Content: question},
			models.ChatMessage{Role: "assistant", Content: answer})
		history = llm.HistoryWindow(history, config.HistorySize)
	}

	return nil
}
