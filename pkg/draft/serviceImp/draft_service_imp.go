package serviceImp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/draft/repository"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/draft/service"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/logger"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/readiness"
)

// SessionLookup answers whether a session id exists.
type SessionLookup interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

type DraftSvc struct {
	repo      repository.DraftRepository
	sessions  SessionLookup
	threshold int
	log       *logger.Logger
	now       func() time.Time
}

func New(repo repository.DraftRepository, sessions SessionLookup, threshold int, log *logger.Logger) *DraftSvc {
	if log == nil {
		log = logger.Nop()
	}
	return &DraftSvc{repo: repo, sessions: sessions, threshold: threshold, log: log.With("service", "DraftReconciler"), now: time.Now}
}

func (s *DraftSvc) NewPendingKey() string { return service.PendingPrefix + uuid.NewString() }

func (s *DraftSvc) Autosave(ctx context.Context, target string, snap service.Snapshot) (*service.SaveResult, error) {
	key, sid, err := s.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := normalizeOutlines(&snap); err != nil {
		return nil, err
	}
	s.derive(&snap)

	if err := s.put(ctx, key, sid, &snap); err != nil {
		return nil, err
	}
	s.log.Debug("draft saved", "key", key, "score", snap.Readiness.Score)
	return &service.SaveResult{
		Key:             key,
		SessionID:       sid,
		SavedAt:         snap.SavedAt,
		Pending:         sid == nil,
		DurationMinutes: snap.DurationMinutes,
		Readiness:       *snap.Readiness,
	}, nil
}

func (s *DraftSvc) Get(ctx context.Context, target string) (*service.Snapshot, string, error) {
	key, _, err := s.resolve(ctx, target)
	if err != nil {
		return nil, "", err
	}
	d, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, key, service.ErrNotFound
		}
		return nil, key, err
	}
	var snap service.Snapshot
	if err := json.Unmarshal([]byte(d.Payload), &snap); err != nil {
		return nil, key, fmt.Errorf("decode draft %s: %w", key, err)
	}
	return &snap, key, nil
}

func (s *DraftSvc) Delete(ctx context.Context, target string) error {
	key, _, err := s.resolve(ctx, target)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, key)
}

func (s *DraftSvc) Promote(ctx context.Context, pendingKey string, sessionID uint, snap *service.Snapshot) (*service.SaveResult, error) {
	stored, from, err := s.Get(ctx, pendingKey)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap = stored
	}
	if err := normalizeOutlines(snap); err != nil {
		return nil, err
	}
	s.derive(snap)
	to := service.SessionPrefix + strconv.FormatUint(uint64(sessionID), 10)
	if err := s.put(ctx, to, &sessionID, snap); err != nil {
		return nil, err
	}
	if from != to {
		if err := s.repo.Delete(ctx, from); err != nil {
			s.log.Warn("pending draft not removed after promotion", "key", from, "error", err)
		}
	}
	return &service.SaveResult{
		Key:             to,
		SessionID:       &sessionID,
		SavedAt:         snap.SavedAt,
		DurationMinutes: snap.DurationMinutes,
		Readiness:       *snap.Readiness,
	}, nil
}

func (s *DraftSvc) put(ctx context.Context, key string, sid *uint, snap *service.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.repo.Put(ctx, &entities.Draft{Key: key, SessionID: sid, Payload: string(raw), SavedAt: snap.SavedAt})
}

// derive overwrites every server-owned field.
func (s *DraftSvc) derive(snap *service.Snapshot) {
	o, _ := snap.FlexibleOutline()
	snap.DurationMinutes = snap.Metadata.WindowMinutes()
	if snap.DurationMinutes == 0 && o != nil {
		snap.DurationMinutes = o.Sum()
	}
	score := readiness.Compute(snap.Metadata, o, snap.TopicAssignments, s.threshold)
	snap.Readiness = &score
	snap.SavedAt = s.now().UTC()
}

// resolve maps a target onto its store key. Numeric targets, optionally
// prefixed with session:, address a session draft when the session exists.
func (s *DraftSvc) resolve(ctx context.Context, target string) (string, *uint, error) {
	target = strings.TrimSpace(target)
	raw := strings.TrimPrefix(strings.TrimPrefix(target, service.SessionPrefix), service.PendingPrefix)
	if raw == "" || strings.ContainsAny(raw, " \t\n/") {
		return "", nil, fmt.Errorf("%w: %q", service.ErrInvalidKey, target)
	}
	if !strings.HasPrefix(target, service.PendingPrefix) {
		if n, err := strconv.ParseUint(raw, 10, 32); err == nil && n > 0 && s.sessions != nil {
			id := uint(n)
			ok, err := s.sessions.Exists(ctx, id)
			if err != nil {
				return "", nil, err
			}
			if ok {
				return service.SessionPrefix + raw, &id, nil
			}
		}
	}
	return service.PendingPrefix + raw, nil, nil
}

// normalizeOutlines stores every outline in flexible shape.
func normalizeOutlines(snap *service.Snapshot) error {
	if snap.Outline != nil {
		o, err := outline.Normalize(*snap.Outline)
		if err != nil {
			return err
		}
		env := outline.Flexible(o)
		snap.Outline = &env
	}
	for i, v := range snap.AIVersions {
		if v.Outline == nil {
			continue
		}
		o, err := outline.Normalize(*v.Outline)
		if err != nil {
			return fmt.Errorf("aiVersions[%d]: %w", i, err)
		}
		env := outline.Flexible(o)
		snap.AIVersions[i].Outline = &env
	}
	return nil
}
