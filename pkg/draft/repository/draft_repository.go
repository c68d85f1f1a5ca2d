package repository

import (
	"context"
	"errors"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
)

var ErrNotFound = errors.New("draft not found")

// DraftRepository stores one record per key. Put replaces the whole record;
// concurrent writers for the same key resolve last write wins.
type DraftRepository interface {
	Put(ctx context.Context, d *entities.Draft) error
	Get(ctx context.Context, key string) (*entities.Draft, error)
	Delete(ctx context.Context, key string) error
}
