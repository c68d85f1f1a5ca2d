package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	draftservice "github.com/advisorpages/trainingBuilder-sub002/pkg/draft/service"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/logger"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/readiness"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/session/repository"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/session/service"
	topicservice "github.com/advisorpages/trainingBuilder-sub002/pkg/topic/service"
)

// TopicLinker persists the topic sections of an outline.
type TopicLinker interface {
	EnsureTopicsFromOutline(ctx context.Context, o *outline.Outline, category string) (*topicservice.LinkReport, error)
}

type SessionSvc struct {
	repo      repository.SessionRepository
	drafts    draftservice.DraftService
	topics    TopicLinker
	threshold int
	log       *logger.Logger
	now       func() time.Time
}

func New(repo repository.SessionRepository, drafts draftservice.DraftService, topics TopicLinker, threshold int, log *logger.Logger) *SessionSvc {
	if log == nil {
		log = logger.Nop()
	}
	if threshold <= 0 {
		threshold = readiness.DefaultThreshold
	}
	return &SessionSvc{repo: repo, drafts: drafts, topics: topics, threshold: threshold, log: log.With("service", "SessionStore"), now: time.Now}
}

func (s *SessionSvc) Get(ctx context.Context, id uint) (*entities.Session, error) {
	sess, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, service.ErrNotFound
	}
	return sess, err
}

// CreateFromDraft materializes a pending draft. Topic linking failures are
// logged and never block creation.
func (s *SessionSvc) CreateFromDraft(ctx context.Context, pendingKey string) (*service.CreateResult, error) {
	snap, key, err := s.drafts.Get(ctx, pendingKey)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(key, draftservice.PendingPrefix) {
		return nil, fmt.Errorf("%w: %s", service.ErrNotPending, key)
	}
	o, err := snap.FlexibleOutline()
	if err != nil {
		return nil, err
	}

	sess := &entities.Session{Status: entities.SessionStatusDraft}
	apply(sess, snap.Metadata, o)
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	report := s.link(ctx, sess, o, snap.Metadata.Category)
	score := readiness.Compute(snap.Metadata, o, snap.TopicAssignments, s.threshold)
	sess.ReadinessScore = score.Score
	if err := s.repo.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("update session %d: %w", sess.ID, err)
	}

	if o != nil {
		env := outline.Flexible(o)
		snap.Outline = &env
	}
	saved, err := s.drafts.Promote(ctx, key, sess.ID, snap)
	if err != nil {
		return nil, fmt.Errorf("move draft: %w", err)
	}
	s.log.Info("session created from draft", "session_id", sess.ID, "draft", key, "topics", len(report.TopicIDs), "score", score.Score)
	return &service.CreateResult{Session: sess, DraftKey: saved.Key, Topics: report, Readiness: score}, nil
}

// Publish recomputes readiness from the latest draft, or the stored session
// when there is none, and publishes only at or above the threshold.
func (s *SessionSvc) Publish(ctx context.Context, id uint) (*service.PublishResult, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	meta, o, assignments := metadataOf(sess), sess.Outline, []readiness.TopicAssignment(nil)

	snap, _, err := s.drafts.Get(ctx, draftservice.SessionPrefix+strconv.FormatUint(uint64(id), 10))
	switch {
	case err == nil:
		meta, assignments = snap.Metadata, snap.TopicAssignments
		if o, err = snap.FlexibleOutline(); err != nil {
			return nil, err
		}
	case !errors.Is(err, draftservice.ErrNotFound):
		return nil, err
	}

	score := readiness.Compute(meta, o, assignments, s.threshold)
	if sess.Status == entities.SessionStatusPublished {
		return &service.PublishResult{Published: true, Session: sess, Readiness: score}, nil
	}
	sess.ReadinessScore = score.Score
	if !score.CanPublish {
		if err := s.repo.Update(ctx, sess); err != nil {
			return nil, err
		}
		s.log.Info("publish blocked by readiness", "session_id", id, "score", score.Score, "threshold", score.Threshold)
		return &service.PublishResult{Published: false, Session: sess, Readiness: score}, nil
	}

	apply(sess, meta, o)
	s.link(ctx, sess, o, meta.Category)
	now := s.now().UTC()
	sess.Status = entities.SessionStatusPublished
	sess.PublishedAt = &now
	if err := s.repo.Update(ctx, sess); err != nil {
		return nil, err
	}
	s.log.Info("session published", "session_id", id, "score", score.Score)
	return &service.PublishResult{Published: true, Session: sess, Readiness: score}, nil
}

// link runs the synchronizer and stamps the resulting refs onto o.
func (s *SessionSvc) link(ctx context.Context, sess *entities.Session, o *outline.Outline, category string) *topicservice.LinkReport {
	empty := &topicservice.LinkReport{TopicIDs: []uint{}, Results: []topicservice.LinkResult{}}
	if o == nil || s.topics == nil {
		return empty
	}
	report, err := s.topics.EnsureTopicsFromOutline(ctx, o, category)
	if err != nil {
		s.log.Warn("topic linking failed, keeping session without topic links", "session_id", sess.ID, "error", err)
		return empty
	}
	report.Stamp(o)
	sess.Outline = o
	sess.TopicIDs = report.TopicIDs
	return report
}

func apply(sess *entities.Session, m readiness.Metadata, o *outline.Outline) {
	sess.Title = m.Title
	sess.Description = m.Description
	if o != nil {
		if sess.Title == "" {
			sess.Title = o.SuggestedTitle
		}
		if sess.Description == "" {
			sess.Description = o.SuggestedDescription
		}
		sess.Outline = o
	}
	sess.Category = m.Category
	sess.SessionType = m.SessionType
	sess.DesiredOutcome = m.DesiredOutcome
	sess.StartTime = m.StartTime
	sess.EndTime = m.EndTime
	sess.LocationID = m.LocationID
	sess.AudienceID = m.AudienceID
	sess.ToneID = m.ToneID
	sess.DurationMinutes = m.WindowMinutes()
	if sess.DurationMinutes == 0 && o != nil {
		sess.DurationMinutes = o.Sum()
	}
}

func metadataOf(sess *entities.Session) readiness.Metadata {
	return readiness.Metadata{
		Title:          sess.Title,
		Description:    sess.Description,
		Category:       sess.Category,
		SessionType:    sess.SessionType,
		DesiredOutcome: sess.DesiredOutcome,
		StartTime:      sess.StartTime,
		EndTime:        sess.EndTime,
		LocationID:     sess.LocationID,
		AudienceID:     sess.AudienceID,
		ToneID:         sess.ToneID,
	}
}
