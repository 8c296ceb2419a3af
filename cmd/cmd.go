package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/mkarlin/docquery/internal/models"
	"github.com/mkarlin/docquery/internal/types"
	"github.com/mkarlin/docquery/pkg/docstore"
	"github.com/mkarlin/docquery/pkg/extract"
	"github.com/mkarlin/docquery/pkg/indexer"
	"github.com/mkarlin/docquery/pkg/llm"
	"github.com/mkarlin/docquery/pkg/ocr"
	"github.com/mkarlin/docquery/pkg/retrieve"
	"github.com/mkarlin/docquery/pkg/store"
	"github.com/mkarlin/docquery/pkg/tables"
	"github.com/mkarlin/docquery/server"
)

func run(config Config) error {
	ctx := context.Background()

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     config.EmbedModel,
		BaseURL:   config.BaseURL,
		Timeout:   config.EmbedTimeout,
		RateLimit: config.EmbedRateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}

	vectorStore, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: config.DBUrl,
		TableName:  config.TableName,
		VectorDim:  config.VectorDim,
		BatchSize:  config.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	defer vectorStore.Close()

	documents, err := docstore.New(config.DocFolder)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}

	ix := indexer.New(indexer.Config{
		ChunkSize:    config.ChunkSize,
		ChunkOverlap: config.ChunkOverlap,
		BatchSize:    config.BatchSize,
	}, embedder, vectorStore, documents, slog.Default())

	if config.Ingest {
		if err := runIngest(ctx, config, documents, ix); err != nil {
			return err
		}
		if !config.Rebuild && config.ServeAddr == "" {
			return nil
		}
	}

	if config.Rebuild {
		spinner := getSpinner(" Rebuilding vector index...")
		total, err := ix.Rebuild(ctx)
		spinner.Finish()
		if err != nil {
			return fmt.Errorf("rebuild failed: %w", err)
		}
		color.Green("\n✓ Rebuilt index with %d chunks\n", total)
		if config.ServeAddr == "" {
			return nil
		}
	}

	assembler := retrieve.NewAssembler(ix, config.NResults)

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       config.Model,
		MaxTokens:   config.MaxTokens,
		BaseURL:     config.BaseURL,
		Temperature: config.Temperature,
		Timeout:     config.LLMTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	if config.ServeAddr != "" {
		color.Blue("Serving HTTP API on %s\n", config.ServeAddr)
		return server.New(assembler, chatEngine).ListenAndServe(config.ServeAddr)
	}

	return runChat(ctx, config, assembler, chatEngine)
}

// runIngest extracts every PDF in the folder, persists the document
// records and indexes their chunks. Per-file failures are collected
// into the run summary; they never stop the batch.
func runIngest(ctx context.Context, config Config, documents types.DocumentStore, ix *indexer.Indexer) error {
	files, err := filepath.Glob(filepath.Join(config.PDFFolder, "*.pdf"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	if len(files) == 0 {
		color.Yellow("No PDF files found in %s\n", config.PDFFolder)
		return nil
	}

	var pageOCR types.PageOCR
	if config.UseOCR {
		pageOCR = ocr.NewExtractor(ocr.Config{
			Language: config.OCRLanguage,
			DPI:      config.OCRDPI,
			Denoise:  config.DenoiseImages,
			Timeout:  config.OCRTimeout,
		})
	}
	var tableSource types.TableSource
	if config.ExtractTables {
		tableSource = tables.NewExtractor()
	}

	cascade := extract.NewCascade(extract.CascadeConfig{
		MinTextLength:      config.MinTextLength,
		SubstituteOCRChars: config.SubstituteOCRChars,
	}, pageOCR, tableSource, slog.Default())

	color.Blue("\nProcessing %d PDF files from %s\n", len(files), config.PDFFolder)
	bar := getProgressBar(len(files), "📄 Extracting documents...")

	var failed []string
	ocrPages, totalChunks := 0, 0

	for _, path := range files {
		doc, err := cascade.ExtractFile(ctx, path)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			bar.Add(1)
			continue
		}

		if err := documents.Save(doc); err != nil {
			failed = append(failed, fmt.Sprintf("%s: save: %v", doc.Filename, err))
			bar.Add(1)
			continue
		}

		if err := ix.IndexDocument(ctx, doc); err != nil {
			failed = append(failed, fmt.Sprintf("%s: index: %v", doc.Filename, err))
			bar.Add(1)
			continue
		}

		for _, p := range doc.Pages {
			if p.Method == models.MethodOCR {
				ocrPages++
			}
		}
		totalChunks += len(ix.ChunkDocument(doc))
		bar.Add(1)
	}
	bar.Finish()

	color.Green("\n✓ Processed %d/%d files (%d chunks, %d OCR pages)\n",
		len(files)-len(failed), len(files), totalChunks, ocrPages)
	if len(failed) > 0 {
		color.Yellow("Skipped files:\n")
		for _, f := range failed {
			color.Yellow("  - %s\n", f)
		}
	}
	return nil
}

func runChat(ctx context.Context, config Config, assembler *retrieve.Assembler, chatEngine *llm.ChatEngine) error {
	color.Blue("Ask questions about your documents. Type 'exit' to quit.\n")

	userPrompt := color.New(color.FgGreen, color.Bold).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "exit") || strings.EqualFold(query, "quit") {
			break
		}

		searchSpinner := getSpinner(" Searching documents...")
		contextText, citations, err := assembler.Assemble(ctx, query)
		searchSpinner.Finish()

		if err != nil {
			color.Red("\nCouldn't retrieve context: %v\n", err)
			continue
		}
		if contextText == "" {
			assistantPrompt("\nAssistant: I couldn't find relevant information in the documents.\n")
			continue
		}

		if config.Streaming {
			fmt.Print("\n")
			assistantPrompt("Assistant: ")

			stream, err := chatEngine.AnswerStream(ctx, query, contextText)
			if err != nil {
				color.Red("\nCould not generate an answer: %v\n", err)
				continue
			}
			for chunk := range stream {
				if strings.HasPrefix(chunk, "Error:") {
					color.Red("\nCould not generate an answer. %s\n", chunk)
					break
				}
				fmt.Print(chunk)
			}
			fmt.Print("\n")
		} else {
			responseSpinner := getSpinner(" Generating response...")
			answer, err := chatEngine.Answer(ctx, query, contextText)
			responseSpinner.Finish()

			if err != nil {
				color.Red("\nCould not generate an answer: %v\n", err)
				continue
			}
			assistantPrompt("\nAssistant: %s\n", answer)
		}

		if len(citations) > 0 {
			fmt.Println()
			color.White("Sources:")
			for _, c := range citations {
				color.White("  - %s", c)
			}
		}
	}

	return scanner.Err()
}
