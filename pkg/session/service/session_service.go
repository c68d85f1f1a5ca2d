package service

import (
	"context"
	"errors"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/readiness"
	topicservice "github.com/advisorpages/trainingBuilder-sub002/pkg/topic/service"
)

var (
	ErrNotFound   = errors.New("session not found")
	ErrNotPending = errors.New("draft is not pending")
)

type CreateResult struct {
	Session   *entities.Session        `json:"session"`
	DraftKey  string                   `json:"draftKey"`
	Topics    *topicservice.LinkReport `json:"topics"`
	Readiness readiness.Score          `json:"readiness"`
}

// PublishResult is a normal result whether or not the gate let the session
// through.
type PublishResult struct {
	Published bool              `json:"published"`
	Session   *entities.Session `json:"session"`
	Readiness readiness.Score   `json:"readiness"`
}

type SessionService interface {
	CreateFromDraft(ctx context.Context, pendingKey string) (*CreateResult, error)
	Publish(ctx context.Context, id uint) (*PublishResult, error)
	Get(ctx context.Context, id uint) (*entities.Session, error)
}
