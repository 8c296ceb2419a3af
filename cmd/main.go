package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	cfgPkg "github.com/mkarlin/docquery/pkg/config"
)

type Config struct {
	BaseURL            string
	DBUrl              string
	PDFFolder          string
	DocFolder          string
	Model              string
	EmbedModel         string
	TableName          string
	VectorDim          int
	BatchSize          int
	ChunkSize          int
	ChunkOverlap       int
	NResults           int
	MinTextLength      int
	OCRDPI             int
	OCRLanguage        string
	OCRTimeout         time.Duration
	UseOCR             bool
	ExtractTables      bool
	DenoiseImages      bool
	SubstituteOCRChars bool
	Streaming          bool
	Temperature        float64
	MaxTokens          int
	LLMTimeout         time.Duration
	EmbedTimeout       time.Duration
	EmbedRateLimit     float64

	Ingest    bool
	Rebuild   bool
	ServeAddr string
}

func main() {
	config := parseFlags()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Config {
	var config Config
	var configPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&config.BaseURL, "ollama-url", os.Getenv("OLLAMA_BASE_URL"), "Ollama server URL")
	flag.StringVar(&config.DBUrl, "db-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flag.StringVar(&config.Model, "model", "", "LLM model for answer generation")
	flag.BoolVar(&config.Ingest, "ingest", false, "Extract and index the PDF folder, then exit")
	flag.BoolVar(&config.Rebuild, "rebuild", false, "Rebuild the vector index from stored documents, then exit")
	flag.StringVar(&config.ServeAddr, "serve", "", "Serve the HTTP API on this address instead of the chat REPL")
	flag.StringVar(&config.PDFFolder, "pdfs", "", "Folder of PDF files to ingest")
	flag.Parse()

	cfg, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		os.Exit(1)
	}

	// Command line flags win over the config file.
	if config.BaseURL == "" {
		config.BaseURL = cfg.LLM.BaseURL
	}
	if config.DBUrl == "" {
		config.DBUrl = cfg.Database.URL
	}
	if config.Model == "" {
		config.Model = cfg.LLM.Model
	}
	if config.PDFFolder == "" {
		config.PDFFolder = cfg.Paths.PDFFolder
	}

	config.DocFolder = cfg.Paths.DocFolder
	config.EmbedModel = cfg.Embedding.Model
	config.TableName = cfg.Database.TableName
	config.VectorDim = cfg.Database.VectorDim
	config.BatchSize = cfg.Database.BatchSize
	config.ChunkSize = cfg.Processor.ChunkSize
	config.ChunkOverlap = cfg.Processor.ChunkOverlap
	config.NResults = cfg.Embedding.NResults
	config.MinTextLength = cfg.Parser.MinTextLength
	config.OCRDPI = cfg.Parser.OCRDPI
	config.OCRLanguage = cfg.Parser.OCRLanguage
	config.OCRTimeout = time.Duration(cfg.Parser.OCRTimeout) * time.Second
	config.UseOCR = cfg.Parser.UseOCR
	config.ExtractTables = cfg.Parser.ExtractTables
	config.DenoiseImages = cfg.Parser.DenoiseImages
	config.SubstituteOCRChars = cfg.Parser.SubstituteOCRChars
	config.Streaming = cfg.UI.Streaming
	config.Temperature = cfg.LLM.Temperature
	config.MaxTokens = cfg.LLM.MaxTokens
	config.LLMTimeout = time.Duration(cfg.LLM.TimeoutSecs) * time.Second
	config.EmbedTimeout = time.Duration(cfg.Embedding.TimeoutSecs) * time.Second
	config.EmbedRateLimit = cfg.Embedding.RateLimit

	return config
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
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
