package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/runtime"
)

// Ensure answerService implements AnswerService
var _ driving.AnswerService = (*answerService)(nil)

const llmService = "llm"

const systemPromptTemplate = `You answer questions using only the numbered passages supplied with the question.

Rules:
- Use only information stated in the passages. Do not use prior knowledge.
- If the passages do not contain the answer, reply with exactly: %s
- Cite the passages you relied on by number in square brackets, for example [1].
- Keep the answer short and factual.`

// AnswerConfig configures answer generation
type AnswerConfig struct {
	Fallback    string  // Returned whenever no grounded answer can be given
	Temperature float32 // Sampling temperature sent with each chat request
}

// answerService implements the AnswerService interface
type answerService struct {
	services  *runtime.Services
	retriever driving.SearchService
	fallback  string
	temp      float32
	logger    *slog.Logger
}

// NewAnswerService creates a new AnswerService
func NewAnswerService(services *runtime.Services, retriever driving.SearchService, cfg AnswerConfig, logger *slog.Logger) driving.AnswerService {
	if cfg.Fallback == "" {
		cfg.Fallback = domain.DefaultFallbackAnswer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &answerService{
		services:  services,
		retriever: retriever,
		fallback:  cfg.Fallback,
		temp:      cfg.Temperature,
		logger:    logger,
	}
}

// Answer composes an answer from passages with a single chat call.
// Without passages it returns the fallback and makes no call.
func (s *answerService) Answer(ctx context.Context, question string, passages []*domain.RankedChunk) (*domain.Answer, error) {
	return s.answer(ctx, time.Now(), question, passages, domain.FallbackNoPassages)
}

// Ask retrieves passages for the question, then answers from them
func (s *answerService) Ask(ctx context.Context, question string, opts domain.SearchOptions) (*domain.Answer, error) {
	start := time.Now()

	result, err := s.retriever.Retrieve(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	reason := domain.FallbackNoPassages
	if result.Candidates > 0 {
		reason = domain.FallbackBelowThreshold
	}
	return s.answer(ctx, start, question, result.Results, reason)
}

// answer is shared by Answer and Ask. emptyReason records why passages is empty, if it is.
func (s *answerService) answer(
	ctx context.Context,
	start time.Time,
	question string,
	passages []*domain.RankedChunk,
	emptyReason domain.FallbackReason,
) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	if len(passages) == 0 {
		s.logger.Info("answering with fallback", "reason", emptyReason)
		return s.fallbackAnswer(question, nil, emptyReason, "", start), nil
	}

	llm := s.services.LLMService()
	if llm == nil {
		return nil, domain.NewServiceCallError(llmService, "complete", errors.New("no chat service configured"))
	}

	reply, err := llm.Complete(ctx, driven.ChatRequest{
		Messages:    BuildMessages(question, passages, s.fallback),
		Temperature: s.temp,
	})
	if err != nil {
		return nil, asServiceError(llmService, "complete", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" || domain.IsFallback(reply, s.fallback) {
		s.logger.Info("answering with fallback",
			"reason", domain.FallbackModelDeclined,
			"passages", len(passages),
			"top_score", passages[0].Score,
		)
		return s.fallbackAnswer(question, passages, domain.FallbackModelDeclined, llm.Model(), start), nil
	}

	return &domain.Answer{
		Question: question,
		Text:     reply,
		Passages: passages,
		Grounded: true,
		Model:    llm.Model(),
		Took:     time.Since(start),
	}, nil
}

func (s *answerService) fallbackAnswer(
	question string,
	passages []*domain.RankedChunk,
	reason domain.FallbackReason,
	model string,
	start time.Time,
) *domain.Answer {
	if passages == nil {
		passages = []*domain.RankedChunk{}
	}
	return &domain.Answer{
		Question: question,
		Text:     s.fallback,
		Passages: passages,
		Grounded: false,
		Fallback: reason,
		Model:    model,
		Took:     time.Since(start),
	}
}

// BuildMessages assembles the grounding prompt: a system message with the
// answering rules and a user message carrying the numbered passages verbatim,
// each attributed with its source path and chunk index.
func BuildMessages(question string, passages []*domain.RankedChunk, fallback string) []driven.ChatMessage {
	var b strings.Builder
	b.WriteString("Passages:\n\n")
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "[%d] source: %s (chunk %d)\n%s\n", i+1, p.Record.SourcePath, p.Record.ChunkIndex, p.Record.Text)
	}
	fmt.Fprintf(&b, "\nQuestion: %s", question)

	return []driven.ChatMessage{
		{Role: driven.ChatRoleSystem, Content: fmt.Sprintf(systemPromptTemplate, fallback)},
		{Role: driven.ChatRoleUser, Content: b.String()},
	}
}
