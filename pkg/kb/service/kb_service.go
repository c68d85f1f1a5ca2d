package service

import (
	"context"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
)

type DocumentInput struct {
	Title     string
	Tags      string
	Category  string
	Text      string
	SourceURL string
}

// Hit is a scored chunk with its parent document.
type Hit struct {
	Chunk entities.KBChunk
	Doc   entities.KBDocument
	Score float64
}

type KBService interface {
	UpsertDocument(ctx context.Context, in DocumentInput) (*entities.KBDocument, int, error)
	Search(ctx context.Context, query string, k int) ([]Hit, error)
	ListDocs(ctx context.Context) ([]entities.KBDocument, error)
}
