package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// maxRequestBody bounds search and ask request bodies
const maxRequestBody = 1 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"index not built: run ingestion first"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports the index state and dependency health
// @Description Readiness response
type ReadyResponse struct {
	Status       string            `json:"status" example:"ready"`
	State        domain.IndexState `json:"state" example:"ready"`
	Capabilities Capabilities      `json:"capabilities"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Capabilities reports which query operations can currently be served
type Capabilities struct {
	Retrieve bool `json:"retrieve"`
	Answer   bool `json:"answer"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns 200 once an index is loaded and every configured dependency answers a ping
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse  "Index not built or a dependency is down"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{
		Status: "ready",
		State:  s.runtime.State(),
		Capabilities: Capabilities{
			Retrieve: s.runtime.CanRetrieve(),
			Answer:   s.runtime.CanAnswer(),
		},
	}
	status := http.StatusOK

	if !resp.Capabilities.Answer {
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}

	if len(s.dependencies) > 0 {
		resp.Dependencies = make(map[string]string, len(s.dependencies))
		for name, p := range s.dependencies {
			if err := p.Ping(r.Context()); err != nil {
				resp.Dependencies[name] = "unavailable"
				resp.Status = "not_ready"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Dependencies[name] = "ok"
		}
	}

	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleSwagger serves the registered OpenAPI document
func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Ingestion endpoints

// handleIngest godoc
// @Summary      Rebuild the index
// @Description  Re-ingests the configured document directory and atomically replaces the live index. The previous index keeps serving until the new one is ready.
// @Tags         Ingestion
// @Produce      json
// @Success      200  {object}  domain.IngestResult
// @Failure      409  {object}  ErrorResponse  "Another ingestion is running"
// @Failure      422  {object}  ErrorResponse  "No indexable documents"
// @Failure      502  {object}  ErrorResponse  "Embedding service failed"
// @Router       /ingest [post]
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	result, err := s.ingestion.Ingest(r.Context(), "")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListRuns godoc
// @Summary      List ingestion runs
// @Description  Returns recent ingestion runs, newest first
// @Tags         Ingestion
// @Produce      json
// @Param        limit  query     int  false  "Maximum runs to return"  default(20)
// @Success      200    {array}   domain.IngestRun
// @Failure      400    {object}  ErrorResponse  "Invalid limit"
// @Router       /ingest/runs [get]
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.ingestion.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*domain.IngestRun{}
	}

	writeJSON(w, http.StatusOK, runs)
}

// handleIndexStatus godoc
// @Summary      Index status
// @Description  Summarises the live index and the most recent ingestion run
// @Tags         Ingestion
// @Produce      json
// @Success      200  {object}  domain.IndexStatus
// @Router       /index [get]
func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.ingestion.Status(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Query endpoints

// searchRequest represents a retrieval request
type searchRequest struct {
	Query    string   `json:"query" example:"how are hotel stays reimbursed"`
	Limit    int      `json:"limit,omitempty" example:"5"`
	MinScore *float64 `json:"min_score,omitempty" example:"0.2"`
}

// handleSearch godoc
// @Summary      Retrieve passages
// @Description  Embeds the query and returns the nearest indexed passages scoring at least min_score
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      searchRequest  true  "Search query"
// @Success      200      {object}  domain.SearchResult
// @Failure      400      {object}  ErrorResponse  "Invalid request or missing query"
// @Failure      409      {object}  ErrorResponse  "Index not built"
// @Failure      502      {object}  ErrorResponse  "Embedding service failed"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	opts, ok := s.searchOptions(w, req.Limit, req.MinScore)
	if !ok {
		return
	}

	result, err := s.search.Retrieve(r.Context(), req.Query, opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// askRequest represents a question to answer from the corpus
type askRequest struct {
	Question string   `json:"question" example:"How are hotel stays reimbursed?"`
	Limit    int      `json:"limit,omitempty" example:"5"`
	MinScore *float64 `json:"min_score,omitempty" example:"0.2"`
}

// handleAsk godoc
// @Summary      Answer a question
// @Description  Retrieves passages for the question and asks the chat model to answer strictly from them. Returns the fixed fallback answer when nothing relevant is found.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      askRequest  true  "Question"
// @Success      200      {object}  domain.Answer
// @Failure      400      {object}  ErrorResponse  "Invalid request or missing question"
// @Failure      409      {object}  ErrorResponse  "Index not built"
// @Failure      502      {object}  ErrorResponse  "Embedding or chat service failed"
// @Router       /ask [post]
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	opts, ok := s.searchOptions(w, req.Limit, req.MinScore)
	if !ok {
		return
	}

	answer, err := s.answers.Ask(r.Context(), req.Question, opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// searchOptions merges request overrides onto the server defaults
func (s *Server) searchOptions(w http.ResponseWriter, limit int, minScore *float64) (domain.SearchOptions, bool) {
	opts := s.defaults
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return opts, false
	}
	if limit > 0 {
		opts.Limit = limit
	}
	if minScore != nil {
		if *minScore < -1 || *minScore > 1 {
			writeError(w, http.StatusBadRequest, "min_score must be between -1 and 1")
			return opts, false
		}
		opts.MinScore = *minScore
	}
	return opts.Normalise(), true
}

// Helper functions

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps domain errors onto HTTP statuses
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrIndexNotReady),
		errors.Is(err, domain.ErrIngestionInProgress),
		errors.Is(err, domain.ErrEmbeddingModelMismatch):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrNoDocuments):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, domain.ErrServiceUnavailable):
		status, message = http.StatusBadGateway, err.Error()
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
	}

	writeError(w, status, message)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
