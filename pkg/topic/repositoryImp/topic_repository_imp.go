package repositoryImp

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/repository"
)

type topicRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.TopicRepository { return &topicRepo{db} }

func (r *topicRepo) List(ctx context.Context) ([]entities.Topic, error) {
	var ts []entities.Topic
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&ts).Error; err != nil {
		return nil, err
	}
	return ts, nil
}

func (r *topicRepo) FindByID(ctx context.Context, id uint) (*entities.Topic, error) {
	var t entities.Topic
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *topicRepo) FindByNormalizedName(ctx context.Context, normalized string) (*entities.Topic, error) {
	var t entities.Topic
	if err := r.db.WithContext(ctx).Where("normalized_name = ?", normalized).Order("id ASC").First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *topicRepo) Create(ctx context.Context, t *entities.Topic) error {
	t.NormalizedName = matcher.NormalizeName(t.Name)
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *topicRepo) Update(ctx context.Context, t *entities.Topic) error {
	t.NormalizedName = matcher.NormalizeName(t.Name)
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *topicRepo) TouchUsed(ctx context.Context, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entities.Topic{}).Where("id IN ?", ids).
		UpdateColumn("last_used_at", at).Error
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}
