package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		EmbedModel  string  `yaml:"embed_model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"database"`

	Warehouse struct {
		Account       string `yaml:"account"`
		User          string `yaml:"user"`
		Password      string `yaml:"password"`
		Role          string `yaml:"role"`
		Warehouse     string `yaml:"warehouse"`
		Database      string `yaml:"database"`
		Schema        string `yaml:"schema"`
		TableName     string `yaml:"table_name"`
		SearchService string `yaml:"search_service"`
	} `yaml:"warehouse"`

	Ingest struct {
		BillsDir     string `yaml:"bills_dir"`
		CSVDir       string `yaml:"csv_dir"`
		ChunkSize    int    `yaml:"chunk_size"`
		ChunkOverlap int    `yaml:"chunk_overlap"`
	} `yaml:"ingest"`

	Fetcher struct {
		ListingURL string  `yaml:"listing_url"`
		RateLimit  float64 `yaml:"rate_limit"`
	} `yaml:"fetcher"`

	Chat struct {
		RetrievedChunks int  `yaml:"retrieved_chunks"`
		HistorySize     int  `yaml:"history_size"`
		Streaming       bool `yaml:"streaming"`
	} `yaml:"chat"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/billbot/config.yaml"),
			"/etc/billbot/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	config := newConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(config)
	applyDefaults(config)

	return config, nil
}

// newConfig seeds the defaults that have to exist before unmarshalling,
// so an explicit false in the file is distinguishable from an absent key.
func newConfig() *Config {
	config := &Config{}
	config.Chat.Streaming = true
	return config
}

func getDefaultConfig() (*Config, error) {
	config := newConfig()
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral-large2"
	}
	if config.LLM.EmbedModel == "" {
		config.LLM.EmbedModel = "nomic-embed-text:latest"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "bill_chunks"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.Warehouse.TableName == "" {
		config.Warehouse.TableName = "BILL_CHUNKS"
	}
	if config.Warehouse.SearchService == "" {
		config.Warehouse.SearchService = "bill_search_service"
	}

	if config.Ingest.BillsDir == "" {
		config.Ingest.BillsDir = "bills"
	}
	if config.Ingest.ChunkSize == 0 {
		config.Ingest.ChunkSize = 2000
	}
	if config.Ingest.ChunkOverlap == 0 {
		config.Ingest.ChunkOverlap = 300
	}

	if config.Fetcher.RateLimit == 0 {
		config.Fetcher.RateLimit = 2.0
	}

	if config.Chat.RetrievedChunks == 0 {
		config.Chat.RetrievedChunks = 5
	}
	if config.Chat.HistorySize == 0 {
		config.Chat.HistorySize = 10
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if v := os.Getenv("SNOWFLAKE_ACCOUNT"); v != "" {
		config.Warehouse.Account = v
	}
	if v := os.Getenv("SNOWFLAKE_USER"); v != "" {
		config.Warehouse.User = v
	}
	if v := os.Getenv("SNOWFLAKE_PASSWORD"); v != "" {
		config.Warehouse.Password = v
	}
	if v := os.Getenv("SNOWFLAKE_ROLE"); v != "" {
		config.Warehouse.Role = v
	}
	if v := os.Getenv("SNOWFLAKE_WAREHOUSE"); v != "" {
		config.Warehouse.Warehouse = v
	}
	if v := os.Getenv("SNOWFLAKE_DATABASE"); v != "" {
		config.Warehouse.Database = v
	}
	if v := os.Getenv("SNOWFLAKE_SCHEMA"); v != "" {
		config.Warehouse.Schema = v
	}
}
