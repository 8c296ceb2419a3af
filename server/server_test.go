package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlin/docquery/server"
)

type fakeAssembler struct {
	contextText string
	citations   []string
	err         error
}

func (f fakeAssembler) Assemble(ctx context.Context, query string) (string, []string, error) {
	return f.contextText, f.citations, f.err
}

type fakeAnswerer struct {
	answer string
	err    error
}

func (f fakeAnswerer) Answer(ctx context.Context, query, contextText string) (string, error) {
	return f.answer, f.err
}

func doQuery(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestQueryHappyPath(t *testing.T) {
	s := server.New(
		fakeAssembler{contextText: "the cat sat", citations: []string{"cat.pdf (Page 1)"}},
		fakeAnswerer{answer: "The cat sat."},
	)

	rec := doQuery(t, s.Handler(), `{"question":"what did the cat do?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The cat sat.", resp.Answer)
	assert.Equal(t, []string{"cat.pdf (Page 1)"}, resp.Sources)
}

func TestQueryNoRelevantDocuments(t *testing.T) {
	s := server.New(fakeAssembler{}, fakeAnswerer{answer: "unused"})

	rec := doQuery(t, s.Handler(), `{"question":"anything"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Answer, "couldn't find relevant information")
	assert.Empty(t, resp.Sources)
}

func TestQueryRetrievalFailureIsDistinct(t *testing.T) {
	s := server.New(fakeAssembler{err: errors.New("store down")}, fakeAnswerer{})

	rec := doQuery(t, s.Handler(), `{"question":"anything"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp server.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "couldn't retrieve context", resp.Error)
}

func TestQueryGenerationFailure(t *testing.T) {
	s := server.New(
		fakeAssembler{contextText: "some context"},
		fakeAnswerer{err: errors.New("ollama timeout")},
	)

	rec := doQuery(t, s.Handler(), `{"question":"anything"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp server.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "could not generate an answer", resp.Error)
}

func TestQueryValidation(t *testing.T) {
	s := server.New(fakeAssembler{}, fakeAnswerer{})

	rec := doQuery(t, s.Handler(), `{"question":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doQuery(t, s.Handler(), `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s := server.New(fakeAssembler{}, fakeAnswerer{})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
