// pkg/ai/client.go

package ai

import (
	"context"
	"errors"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/prompt"
)

var ErrEmptyResponse = errors.New("backend returned no content")

// Snippet is one retrieved passage used as generation context.
type Snippet struct {
	SourceID string  `json:"sourceId"`
	Title    string  `json:"title,omitempty"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// Completer turns an instruction plus retrieved context into an outline.
type Completer interface {
	CompleteOutline(ctx context.Context, in prompt.Instruction, snippets []Snippet) (*outline.Outline, error)
}

// Retriever finds context snippets for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Snippet, error)
}
