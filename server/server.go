// Package server exposes retrieval and answer generation over a small
// JSON HTTP API, the machine-facing counterpart of the chat REPL.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Assembler retrieves ranked context plus citations for a query.
type Assembler interface {
	Assemble(ctx context.Context, query string) (string, []string, error)
}

// Answerer is the answer-generation collaborator. It may fail or time
// out; the server surfaces that as a distinct error state without
// touching retrieval.
type Answerer interface {
	Answer(ctx context.Context, query, contextText string) (string, error)
}

type QueryRequest struct {
	Question string `json:"question"`
}

type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	assembler Assembler
	chat      Answerer
	logger    *slog.Logger
}

func New(assembler Assembler, chat Answerer) *Server {
	return &Server{
		assembler: assembler,
		chat:      chat,
		logger:    slog.Default(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "question must not be empty"})
		return
	}

	contextText, citations, err := s.assembler.Assemble(r.Context(), question)
	if err != nil {
		// Retrieval broke. This is not the same as finding nothing.
		s.logger.Error("retrieval failed", "error", err)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "couldn't retrieve context"})
		return
	}
	if contextText == "" {
		writeJSON(w, http.StatusOK, QueryResponse{
			Answer: "I couldn't find relevant information in the documents.",
		})
		return
	}

	answer, err := s.chat.Answer(r.Context(), question, contextText)
	if err != nil {
		s.logger.Error("answer generation failed", "error", err)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "could not generate an answer"})
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{Answer: answer, Sources: citations})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
