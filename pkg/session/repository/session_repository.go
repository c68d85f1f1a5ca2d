package repository

import (
	"context"
	"errors"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
)

var ErrNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(ctx context.Context, s *entities.Session) error
	Update(ctx context.Context, s *entities.Session) error
	FindByID(ctx context.Context, id uint) (*entities.Session, error)
	Exists(ctx context.Context, id uint) (bool, error)
}
