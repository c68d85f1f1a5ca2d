package entities

import (
	"time"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
)

const (
	SessionStatusDraft     = "draft"
	SessionStatusPublished = "published"
)

type Session struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Category        string           `gorm:"index" json:"category,omitempty"`
	SessionType     string           `json:"sessionType,omitempty"`
	DesiredOutcome  string           `json:"desiredOutcome,omitempty"`
	StartTime       *time.Time       `json:"startTime,omitempty"`
	EndTime         *time.Time       `json:"endTime,omitempty"`
	DurationMinutes int              `json:"durationMinutes"`
	LocationID      *uint            `json:"locationId,omitempty"`
	AudienceID      *uint            `json:"audienceId,omitempty"`
	ToneID          string           `json:"toneId,omitempty"`
	Status          string           `gorm:"index" json:"status"`
	Outline         *outline.Outline `gorm:"serializer:json" json:"outline,omitempty"`
	TopicIDs        []uint           `gorm:"serializer:json" json:"topicIds,omitempty"`
	ReadinessScore  int              `json:"readinessScore"`
	PublishedAt     *time.Time       `json:"publishedAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}
