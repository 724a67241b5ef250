package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// AnswerService composes grounded answers from retrieved passages
type AnswerService interface {
	// Answer asks the chat model to answer strictly from passages.
	// With no passages it returns the fallback without calling the model.
	Answer(ctx context.Context, question string, passages []*domain.RankedChunk) (*domain.Answer, error)

	// Ask retrieves passages for the question and answers from them
	Ask(ctx context.Context, question string, opts domain.SearchOptions) (*domain.Answer, error)
}
