package repositoryImp

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/session/repository"
)

type sessionRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.SessionRepository { return &sessionRepo{db} }

func (r *sessionRepo) Create(ctx context.Context, s *entities.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) Update(ctx context.Context, s *entities.Session) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uint) (*entities.Session, error) {
	var s entities.Session
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&entities.Session{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
