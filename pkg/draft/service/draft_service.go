package service

import (
	"context"
	"errors"
	"time"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/readiness"
)

var (
	ErrNotFound   = errors.New("draft not found")
	ErrInvalidKey = errors.New("invalid draft key")
)

const (
	SessionPrefix = "session:"
	PendingPrefix = "pending:"
)

// AIVersion is one generated outline the author can go back to.
type AIVersion struct {
	ID        string            `json:"id"`
	Outline   *outline.Envelope `json:"outline,omitempty"`
	Source    string            `json:"source,omitempty"`
	Label     string            `json:"label,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Snapshot is the whole in-progress state of a session. DurationMinutes,
// Readiness and SavedAt are derived on the server; values sent by clients
// are overwritten.
type Snapshot struct {
	Metadata          readiness.Metadata          `json:"metadata"`
	Outline           *outline.Envelope           `json:"outline,omitempty"`
	Prompt            string                      `json:"prompt,omitempty"`
	AIVersions        []AIVersion                 `json:"aiVersions,omitempty"`
	AcceptedVersionID string                      `json:"acceptedVersionId,omitempty"`
	TopicAssignments  []readiness.TopicAssignment `json:"topicAssignments,omitempty"`

	DurationMinutes int              `json:"durationMinutes"`
	Readiness       *readiness.Score `json:"readiness,omitempty"`
	SavedAt         time.Time        `json:"savedAt"`
}

// FlexibleOutline returns the snapshot's outline in flexible shape, nil when
// there is none.
func (s *Snapshot) FlexibleOutline() (*outline.Outline, error) {
	if s == nil || s.Outline == nil {
		return nil, nil
	}
	return outline.Normalize(*s.Outline)
}

type SaveResult struct {
	Key             string          `json:"key"`
	SessionID       *uint           `json:"sessionId,omitempty"`
	SavedAt         time.Time       `json:"savedAt"`
	Pending         bool            `json:"pending"`
	DurationMinutes int             `json:"durationMinutes"`
	Readiness       readiness.Score `json:"readiness"`
}

type DraftService interface {
	// Autosave stores snap under the target's key, replacing whatever was
	// there. A numeric target naming an existing session maps to
	// session:<id>; anything else is kept under pending:<target>.
	Autosave(ctx context.Context, target string, snap Snapshot) (*SaveResult, error)
	Get(ctx context.Context, target string) (*Snapshot, string, error)
	Delete(ctx context.Context, target string) error
	NewPendingKey() string
	// Promote moves a pending draft under session:<id>. A non-nil snap
	// replaces the stored snapshot on the way.
	Promote(ctx context.Context, pendingKey string, sessionID uint, snap *Snapshot) (*SaveResult, error)
}
