package repository

import (
	"context"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
)

type KBRepository interface {
	CreateDocWithChunks(ctx context.Context, d *entities.KBDocument, chunks []entities.KBChunk) error
	ListDocs(ctx context.Context) ([]entities.KBDocument, error)
	AllChunks(ctx context.Context) ([]entities.KBChunk, error)
	DocsByIDs(ctx context.Context, ids []uint) (map[uint]entities.KBDocument, error)
}
