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
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
		TimeoutSecs int     `yaml:"timeout"`
	} `yaml:"llm"`

	Embedding struct {
		Model       string  `yaml:"model"`
		NResults    int     `yaml:"n_results"`
		TimeoutSecs int     `yaml:"timeout"`
		RateLimit   float64 `yaml:"rate_limit"`
	} `yaml:"embedding"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"database"`

	Parser struct {
		UseOCR        bool   `yaml:"use_ocr"`
		ExtractTables bool   `yaml:"extract_tables"`
		DenoiseImages bool   `yaml:"denoise_images"`
		MinTextLength int    `yaml:"min_text_length"`
		OCRDPI        int    `yaml:"ocr_dpi"`
		OCRLanguage   string `yaml:"ocr_language"`
		OCRTimeout    int    `yaml:"ocr_timeout"`
		// Lossy OCR character fixes (| to I, 0 to O). Off by default
		// because they corrupt digits in legitimate text.
		SubstituteOCRChars bool `yaml:"substitute_ocr_chars"`
	} `yaml:"parser"`

	Processor struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"processor"`

	Paths struct {
		PDFFolder string `yaml:"pdf_folder"`
		DocFolder string `yaml:"doc_folder"`
	} `yaml:"paths"`

	UI struct {
		Streaming bool `yaml:"streaming"`
	} `yaml:"ui"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/docquery/config.yaml"),
			"/etc/docquery/config.yaml",
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

	config := Config{}
	setEnabledDefaults(&config)
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	setEnabledDefaults(config)
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

// setEnabledDefaults pre-sets the boolean toggles that default to on, so
// that an absent yaml key means enabled rather than false.
func setEnabledDefaults(config *Config) {
	config.Parser.UseOCR = true
	config.Parser.ExtractTables = true
	config.Parser.DenoiseImages = true
	config.UI.Streaming = true
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
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
	if config.LLM.TimeoutSecs == 0 {
		config.LLM.TimeoutSecs = 120
	}

	if config.Embedding.Model == "" {
		config.Embedding.Model = "nomic-embed-text:latest"
	}
	if config.Embedding.NResults == 0 {
		config.Embedding.NResults = 5
	}
	if config.Embedding.TimeoutSecs == 0 {
		config.Embedding.TimeoutSecs = 60
	}
	if config.Embedding.RateLimit == 0 {
		config.Embedding.RateLimit = 10.0
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "doc_chunks"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.Parser.MinTextLength == 0 {
		config.Parser.MinTextLength = 10
	}
	if config.Parser.OCRDPI == 0 {
		config.Parser.OCRDPI = 300
	}
	if config.Parser.OCRLanguage == "" {
		config.Parser.OCRLanguage = "eng"
	}
	if config.Parser.OCRTimeout == 0 {
		config.Parser.OCRTimeout = 60
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 500
	}
	if config.Processor.ChunkOverlap == 0 {
		config.Processor.ChunkOverlap = 50
	}

	if config.Paths.PDFFolder == "" {
		config.Paths.PDFFolder = "data/pdfs"
	}
	if config.Paths.DocFolder == "" {
		config.Paths.DocFolder = "data/docs"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
}
