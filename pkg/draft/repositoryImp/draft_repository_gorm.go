package repositoryImp

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/draft/repository"
)

type gormRepo struct{ db *gorm.DB }

func NewGorm(db *gorm.DB) repository.DraftRepository { return &gormRepo{db} }

func (r *gormRepo) Put(ctx context.Context, d *entities.Draft) error {
	// Save writes every column, so nothing from an earlier snapshot survives.
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *gormRepo) Get(ctx context.Context, key string) (*entities.Draft, error) {
	var d entities.Draft
	if err := r.db.WithContext(ctx).Where(&entities.Draft{Key: key}).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *gormRepo) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&entities.Draft{Key: key}).Error
}
