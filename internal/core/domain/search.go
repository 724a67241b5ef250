package domain

import (
	"strings"
	"time"
)

const (
	// DefaultRetrievalK is the number of passages retrieved when none is requested
	DefaultRetrievalK = 5
	// MaxRetrievalK bounds k for a single query
	MaxRetrievalK = 100
	// DefaultMinScore is the inner-product threshold below which passages are dropped
	DefaultMinScore = 0.2
	// DefaultFallbackAnswer is returned whenever no grounded answer can be given
	DefaultFallbackAnswer = "I don't know."
)

// SearchOptions configures a retrieval request
type SearchOptions struct {
	Limit    int     `json:"limit"`     // k, the number of nearest entries to consider
	MinScore float64 `json:"min_score"` // Entries scoring below this are dropped
}

// DefaultSearchOptions returns sensible defaults
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:    DefaultRetrievalK,
		MinScore: DefaultMinScore,
	}
}

// Normalise clamps the limit into [1, MaxRetrievalK].
func (o SearchOptions) Normalise() SearchOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultRetrievalK
	}
	if o.Limit > MaxRetrievalK {
		o.Limit = MaxRetrievalK
	}
	return o
}

// SearchResult represents the result of a retrieval query
type SearchResult struct {
	Query      string         `json:"query"`
	Results    []*RankedChunk `json:"results"`
	Candidates int            `json:"candidates"`  // Entries returned by the index before threshold filtering
	TotalCount int            `json:"total_count"` // Entries in the index when the query ran
	MinScore   float64        `json:"min_score"`
	Took       time.Duration  `json:"took" swaggertype:"integer" example:"1500000"`
}

// RankedChunk is one retrieved passage with its inner-product score
type RankedChunk struct {
	ID     int            `json:"id"` // Positional index entry ID
	Score  float64        `json:"score"`
	Record MetadataRecord `json:"record"`
}

// FallbackReason explains why an answer is the fixed fallback
type FallbackReason string

const (
	FallbackNone           FallbackReason = ""
	FallbackNoPassages     FallbackReason = "no_passages"     // Index returned nothing at all
	FallbackBelowThreshold FallbackReason = "below_threshold" // Candidates existed but all scored below MinScore
	FallbackModelDeclined  FallbackReason = "model_declined"  // Model judged the passages insufficient
)

// Answer is the outcome of answering a question from retrieved passages
type Answer struct {
	Question string         `json:"question"`
	Text     string         `json:"answer"`
	Passages []*RankedChunk `json:"passages"`
	Grounded bool           `json:"grounded"`
	Fallback FallbackReason `json:"fallback,omitempty"`
	Model    string         `json:"model,omitempty"`
	Took     time.Duration  `json:"took" swaggertype:"integer" example:"1500000"`
}

// IsFallback reports whether text is the fallback string, ignoring case,
// surrounding whitespace and trailing punctuation.
func IsFallback(text, fallback string) bool {
	clean := func(s string) string {
		s = strings.TrimSpace(strings.ToLower(s))
		s = strings.ReplaceAll(s, "’", "'")
		return strings.TrimRight(s, ".!? ")
	}
	return clean(text) != "" && clean(text) == clean(fallback)
}
