package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://localhost:11434"
  model: "mistral"
  max_tokens: 1000
  temperature: 0.5
  timeout: 90

embedding:
  model: "all-minilm"
  n_results: 3

database:
  url: "postgres://localhost:5432/test"
  table_name: "test_chunks"
  vector_dim: 384
  batch_size: 50

parser:
  use_ocr: false
  min_text_length: 20
  ocr_dpi: 150
  ocr_language: "fra"
  ocr_timeout: 30

processor:
  chunk_size: 400
  chunk_overlap: 40

paths:
  pdf_folder: "testdata/pdfs"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configData), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.5, cfg.LLM.Temperature)
	assert.Equal(t, 90, cfg.LLM.TimeoutSecs)
	assert.Equal(t, "all-minilm", cfg.Embedding.Model)
	assert.Equal(t, 3, cfg.Embedding.NResults)
	assert.Equal(t, "test_chunks", cfg.Database.TableName)
	assert.Equal(t, 384, cfg.Database.VectorDim)
	assert.False(t, cfg.Parser.UseOCR)
	assert.Equal(t, 20, cfg.Parser.MinTextLength)
	assert.Equal(t, 150, cfg.Parser.OCRDPI)
	assert.Equal(t, "fra", cfg.Parser.OCRLanguage)
	assert.Equal(t, 30, cfg.Parser.OCRTimeout)
	assert.Equal(t, 400, cfg.Processor.ChunkSize)
	assert.Equal(t, 40, cfg.Processor.ChunkOverlap)
	assert.Equal(t, "testdata/pdfs", cfg.Paths.PDFFolder)

	// Unset values fall back to defaults.
	assert.Equal(t, "data/docs", cfg.Paths.DocFolder)
	assert.Equal(t, 60, cfg.Embedding.TimeoutSecs)
	assert.True(t, cfg.Parser.ExtractTables)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope", "..", "missing-but-empty-path-means-defaults.yaml"))
	// A path that does not exist is an error; the defaults path is "".
	assert.Error(t, err)
	assert.Nil(t, cfg)

	t.Chdir(t.TempDir())
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Equal(t, "nomic-embed-text:latest", cfg.Embedding.Model)
	assert.Equal(t, 500, cfg.Processor.ChunkSize)
	assert.Equal(t, 50, cfg.Processor.ChunkOverlap)
	assert.Equal(t, 5, cfg.Embedding.NResults)
	assert.Equal(t, 10, cfg.Parser.MinTextLength)
	assert.Equal(t, 300, cfg.Parser.OCRDPI)
	assert.Equal(t, 60, cfg.Parser.OCRTimeout)
	assert.True(t, cfg.Parser.UseOCR)
	assert.True(t, cfg.Parser.DenoiseImages)
}

func TestValidate(t *testing.T) {
	cfg, err := getDefaultConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Validate())

	cfg.Processor.ChunkOverlap = cfg.Processor.ChunkSize
	cfg.Parser.OCRDPI = 10
	cfg.Parser.OCRTimeout = 0
	cfg.LLM.MaxTokens = 0

	errs := cfg.Validate()
	require.Len(t, errs, 4)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
		assert.NotEmpty(t, e.Error())
	}
	assert.Contains(t, fields, "processor.chunk_overlap")
	assert.Contains(t, fields, "parser.ocr_dpi")
	assert.Contains(t, fields, "parser.ocr_timeout")
	assert.Contains(t, fields, "llm.max_tokens")
}
