package repository

import (
	"context"
	"errors"
	"time"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
)

var ErrNotFound = errors.New("topic not found")

type TopicRepository interface {
	List(ctx context.Context) ([]entities.Topic, error)
	FindByID(ctx context.Context, id uint) (*entities.Topic, error)
	FindByNormalizedName(ctx context.Context, normalized string) (*entities.Topic, error)
	Create(ctx context.Context, t *entities.Topic) error
	Update(ctx context.Context, t *entities.Topic) error
	TouchUsed(ctx context.Context, ids []uint, at time.Time) error
}
