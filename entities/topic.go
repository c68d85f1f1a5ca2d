package entities

import "time"

// Topic is a reusable training topic. Name is unique in practice under
// NormalizedName; concurrent creators may still produce near duplicates.
type Topic struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	Name                 string         `json:"name"`
	NormalizedName       string         `gorm:"index" json:"-"`
	Category             string         `gorm:"index" json:"category,omitempty"`
	Description          string         `json:"description,omitempty"`
	LearningOutcomes     []string       `gorm:"serializer:json" json:"learningOutcomes,omitempty"`
	TrainerNotes         string         `json:"trainerNotes,omitempty"`
	MaterialsNeeded      []string       `gorm:"serializer:json" json:"materialsNeeded,omitempty"`
	DeliveryGuidance     string         `json:"deliveryGuidance,omitempty"`
	AIGenerationMetadata map[string]any `gorm:"serializer:json" json:"aiGenerationMetadata,omitempty"`
	LastUsedAt           *time.Time     `json:"lastUsedAt,omitempty"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}
